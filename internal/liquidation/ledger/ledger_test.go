package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) ofType(eventType string) []domain.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.LedgerEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

type fixture struct {
	ledger      *Ledger
	repo        *repository.MemoryLedgerRepository
	publisher   *recordingPublisher
	invalidator *countingInvalidator
	metrics     *Metrics
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// newFixture onboards distributor D1 with retailers R1 and R2, distributor
// D2 with retailer R9, and opens D1/SKU-1 with 300 units worth 150.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:        repository.NewMemoryLedgerRepository(),
		publisher:   &recordingPublisher{},
		invalidator: &countingInvalidator{},
		metrics:     NewMetrics(nil),
	}
	f.ledger = New(f.repo,
		WithPublisher(f.publisher),
		WithMetrics(f.metrics),
		WithCacheInvalidator(f.invalidator),
		WithClock(func() time.Time { return fixedNow }),
	)

	ctx := context.Background()
	for _, d := range []domain.Dealer{
		{ID: "D1", Name: "North", Type: domain.DealerDistributor},
		{ID: "D2", Name: "South", Type: domain.DealerDistributor},
		{ID: "R1", Name: "Retail One", Type: domain.DealerRetailer, DistributorID: "D1"},
		{ID: "R2", Name: "Retail Two", Type: domain.DealerRetailer, DistributorID: "D1"},
		{ID: "R9", Name: "Retail Nine", Type: domain.DealerRetailer, DistributorID: "D2"},
	} {
		_, err := f.ledger.OnboardDealer(ctx, d)
		require.NoError(t, err)
	}

	_, err := f.ledger.OpenEntry(ctx, OpenEntryInput{
		DealerID:     "D1",
		SKU:          "SKU-1",
		OpeningStock: domain.MustQuantity(300, "150"),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) entry(t *testing.T, dealerID, sku string) domain.StockEntry {
	t.Helper()
	e, err := f.repo.FindEntry(context.Background(), dealerID, sku)
	require.NoError(t, err)
	return *e
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) *domain.ValidationError {
	t.Helper()
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, code, v.Code)
	return v
}

func countShortfall(t *testing.T, f *fixture, counted int64) {
	t.Helper()
	res, err := f.ledger.SubmitStockCount(context.Background(), StockCountSubmission{
		DealerID: "D1",
		Counts:   map[string]int64{"SKU-1": counted},
		InRange:  true,
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	require.Equal(t, domain.StatusPendingClassification, res.Outcomes[0].Status)
}

func TestOnboardDealer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OnboardDealer(ctx, domain.Dealer{ID: "D1", Name: "Again", Type: domain.DealerDistributor})
	requireCode(t, err, domain.CodeDealerExists)

	_, err = f.ledger.OnboardDealer(ctx, domain.Dealer{ID: "R5", Name: "Orphan", Type: domain.DealerRetailer, DistributorID: "NOPE"})
	assert.True(t, domain.IsNotFound(err))

	_, err = f.ledger.OnboardDealer(ctx, domain.Dealer{ID: "R6", Name: "Nested", Type: domain.DealerRetailer, DistributorID: "R1"})
	requireCode(t, err, domain.CodeInvalidDealer)

	_, err = f.ledger.DeactivateDealer(ctx, "D2")
	require.NoError(t, err)
	_, err = f.ledger.OnboardDealer(ctx, domain.Dealer{ID: "R7", Name: "Late", Type: domain.DealerRetailer, DistributorID: "D2"})
	requireCode(t, err, domain.CodeDealerInactive)

	d, err := f.ledger.DeactivateDealer(ctx, "D2")
	require.NoError(t, err, "deactivation is idempotent")
	assert.False(t, d.Active)
}

func TestOpenEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "D1", SKU: "SKU-1"})
	requireCode(t, err, domain.CodeEntryExists)

	_, err = f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "D404", SKU: "SKU-1"})
	assert.True(t, domain.IsNotFound(err))

	_, err = f.ledger.DeactivateDealer(ctx, "D2")
	require.NoError(t, err)
	_, err = f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "D2", SKU: "SKU-1"})
	requireCode(t, err, domain.CodeDealerInactive)

	e, err := f.ledger.OpenEntry(ctx, OpenEntryInput{
		DealerID:     "R1",
		SKU:          "SKU-1",
		OpeningStock: domain.MustQuantity(40, "0.38"),
		YTDNetSales:  domain.MustQuantity(310, "1.93"),
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, int64(350), e.BalanceStock.Volume)
	assert.Equal(t, int64(0), e.LiquidationPercentage)
}

func TestReconciliationCycleWithRetailers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countShortfall(t, f, 90)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.reconciliationsStarted))

	// partial split is refused and leaves the entry pending
	_, err := f.ledger.Classify(ctx, "D1", "SKU-1", 100, 50)
	v := requireCode(t, err, domain.CodeClassificationMismatch)
	assert.Equal(t, int64(60), v.Shortfall())
	assert.Equal(t, domain.StatusPendingClassification, f.entry(t, "D1", "SKU-1").Reconciliation.Status)

	res, err := f.ledger.Classify(ctx, "D1", "SKU-1", 110, 100)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.True(t, f.entry(t, "D1", "SKU-1").Reconciliation.AwaitingAllocation())

	alloc, err := f.ledger.AllocateToRetailers(ctx, "D1", "SKU-1", map[string]int64{"R1": 60, "R2": 40})
	require.NoError(t, err)
	require.Len(t, alloc.Assignments, 2)
	for _, a := range alloc.Assignments {
		assert.NotEmpty(t, a.ID)
	}

	stored := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, domain.StatusCommitted, stored.Reconciliation.Status)
	assert.Equal(t, int64(110), stored.LiquidatedToFarmer.Volume)
	assert.Equal(t, int64(0), stored.LiquidatedViaRetailer.Volume)
	assert.Equal(t, int64(100), stored.HeldByRetailers.Volume)
	assert.Equal(t, int64(90), stored.CurrentStock.Volume)
	assert.Equal(t, int64(190), stored.BalanceStock.Volume)
	assert.Equal(t, int64(37), stored.LiquidationPercentage)
	require.NoError(t, domain.ValidateMetrics(stored))

	assignments, err := f.repo.ListAssignments(ctx, "D1", "SKU-1")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	events := f.publisher.ofType(domain.EventReconciliationCommitted)
	require.Len(t, events, 1)
	assert.Equal(t, int64(210), events[0].Quantity.Volume)
	assert.Len(t, events[0].Assignments, 2)
	assert.NotEmpty(t, events[0].EventID)
	assert.Equal(t, fixedNow, events[0].Timestamp)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.reconciliationsCommitted))
	assert.Positive(t, f.invalidator.calls)
}

func TestAllocateRejectsForeignRetailer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countShortfall(t, f, 90)
	_, err := f.ledger.Classify(ctx, "D1", "SKU-1", 110, 100)
	require.NoError(t, err)

	_, err = f.ledger.AllocateToRetailers(ctx, "D1", "SKU-1", map[string]int64{"R1": 50, "R9": 50})
	requireCode(t, err, domain.CodeForeignRetailer)

	stored := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, domain.StatusPendingClassification, stored.Reconciliation.Status)
	assert.Equal(t, int64(300), stored.CurrentStock.Volume)
	assert.Empty(t, f.publisher.ofType(domain.EventReconciliationCommitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.rejections.WithLabelValues(string(domain.CodeForeignRetailer))))
}

func TestClassifyRetailerPortionOnlyForDistributors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "R1", SKU: "SKU-1", OpeningStock: domain.MustQuantity(20, "10")})
	require.NoError(t, err)
	_, err = f.ledger.RecordStockCount(ctx, "R1", "SKU-1", 15, domain.Documents{})
	require.NoError(t, err)

	_, err = f.ledger.Classify(ctx, "R1", "SKU-1", 0, 5)
	requireCode(t, err, domain.CodeRetailerSplitNotAllowed)

	res, err := f.ledger.Classify(ctx, "R1", "SKU-1", 5, 0)
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, int64(5), res.Entry.LiquidatedToFarmer.Volume)
}

func TestSubmitStockCountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "D1", SKU: "SKU-2", OpeningStock: domain.MustQuantity(10, "1")})
	require.NoError(t, err)

	tests := []struct {
		name string
		sub  StockCountSubmission
		code domain.ErrorCode
	}{
		{name: "missing dealer", sub: StockCountSubmission{InRange: true}, code: domain.CodeMissingField},
		{name: "out of range", sub: StockCountSubmission{DealerID: "D1", Counts: map[string]int64{"SKU-1": 1, "SKU-2": 1}}, code: domain.CodeOutOfRange},
		{name: "negative", sub: StockCountSubmission{DealerID: "D1", InRange: true, Counts: map[string]int64{"SKU-1": -1, "SKU-2": 1}}, code: domain.CodeNegativeQuantity},
		{name: "incomplete", sub: StockCountSubmission{DealerID: "D1", InRange: true, Counts: map[string]int64{"SKU-1": 1}}, code: domain.CodeIncompleteStockCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.SubmitStockCount(ctx, tt.sub)
			v := requireCode(t, err, tt.code)
			if tt.code == domain.CodeIncompleteStockCount {
				assert.Equal(t, []string{"SKU-2"}, v.Missing)
			}
		})
	}

	_, err = f.ledger.SubmitStockCount(ctx, StockCountSubmission{
		DealerID: "D1",
		InRange:  true,
		Counts:   map[string]int64{"SKU-1": 1, "SKU-2": 1, "SKU-X": 1},
	})
	assert.True(t, domain.IsNotFound(err))

	// nothing was applied by any rejected submission
	assert.Equal(t, domain.StatusIdle, f.entry(t, "D1", "SKU-1").Reconciliation.Status)
	assert.Equal(t, domain.StatusIdle, f.entry(t, "D1", "SKU-2").Reconciliation.Status)
}

// failingSaves refuses to write entries of one SKU, whichever save path is used.
type failingSaves struct {
	*repository.MemoryLedgerRepository
	sku string
}

var errDiskFull = errors.New("disk full")

func (r *failingSaves) SaveEntry(ctx context.Context, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	if entry.SKU == r.sku {
		return errDiskFull
	}
	return r.MemoryLedgerRepository.SaveEntry(ctx, entry, assignments...)
}

func (r *failingSaves) SaveEntries(ctx context.Context, entries []*domain.StockEntry) error {
	for _, e := range entries {
		if e.SKU == r.sku {
			return errDiskFull
		}
	}
	return r.MemoryLedgerRepository.SaveEntries(ctx, entries)
}

func TestSubmitStockCountWritesNothingWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OpenEntry(ctx, OpenEntryInput{DealerID: "D1", SKU: "SKU-2", OpeningStock: domain.MustQuantity(10, "1")})
	require.NoError(t, err)

	l := New(&failingSaves{MemoryLedgerRepository: f.repo, sku: "SKU-2"},
		WithPublisher(f.publisher),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return fixedNow }),
	)
	_, err = l.SubmitStockCount(ctx, StockCountSubmission{
		DealerID: "D1",
		InRange:  true,
		Counts:   map[string]int64{"SKU-1": 90, "SKU-2": 4},
	})
	require.ErrorIs(t, err, errDiskFull)

	first := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, domain.StatusIdle, first.Reconciliation.Status)
	assert.Equal(t, int64(300), first.CurrentStock.Volume)
	assert.Equal(t, domain.StatusIdle, f.entry(t, "D1", "SKU-2").Reconciliation.Status)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.reconciliationsStarted))
}

func TestStockIncreaseIsAppliedAndReported(t *testing.T) {
	f := newFixture(t)

	res, err := f.ledger.SubmitStockCount(context.Background(), StockCountSubmission{
		DealerID: "D1",
		InRange:  true,
		Counts:   map[string]int64{"SKU-1": 320},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.True(t, res.Outcomes[0].StockIncrease)
	assert.Equal(t, int64(320), f.entry(t, "D1", "SKU-1").CurrentStock.Volume)

	events := f.publisher.ofType(domain.EventStockIncreaseDetected)
	require.Len(t, events, 1)
	assert.Equal(t, int64(20), events[0].Quantity.Volume)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.stockIncreases))
}

func TestNewCountAbandonsPendingReconciliation(t *testing.T) {
	f := newFixture(t)

	countShortfall(t, f, 90)
	countShortfall(t, f, 250)

	stored := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(50), stored.Reconciliation.Difference)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.reconciliationsAbandoned))
}

func TestRetailerCascade(t *testing.T) {
	f := newFixture(t)
	before := f.entry(t, "D1", "SKU-1")
	require.Equal(t, int64(0), before.LiquidatedViaRetailer.Volume)

	_, err := f.ledger.RecordFarmerSaleFromRetailer(context.Background(), RetailerSale{
		DistributorID: "D1",
		RetailerID:    "R1",
		SKU:           "SKU-1",
		Quantity:      domain.MustQuantity(15, "0.18"),
	})
	require.NoError(t, err)

	after := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(15), after.LiquidatedViaRetailer.Volume)
	assert.True(t, decimal.RequireFromString("0.18").Equal(after.LiquidatedViaRetailer.Value))
	assert.Equal(t, before.BalanceStock.Volume-15, after.BalanceStock.Volume)
	assert.Equal(t, before.CurrentStock.Volume, after.CurrentStock.Volume)

	events := f.publisher.ofType(domain.EventRetailerSaleRecorded)
	require.Len(t, events, 1)
	assert.Equal(t, "R1", events[0].RetailerID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.retailerSales))
}

func TestRetailerSaleConsumesAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countShortfall(t, f, 90)
	_, err := f.ledger.Classify(ctx, "D1", "SKU-1", 110, 100)
	require.NoError(t, err)
	_, err = f.ledger.AllocateToRetailers(ctx, "D1", "SKU-1", map[string]int64{"R1": 60, "R2": 40})
	require.NoError(t, err)

	sale := RetailerSale{DistributorID: "D1", RetailerID: "R1", SKU: "SKU-1", Quantity: domain.MustQuantity(50, "25")}
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, sale)
	require.NoError(t, err)

	assignments, err := f.repo.FindAssignments(ctx, "D1", "R1", "SKU-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, int64(50), assignments[0].SoldVolume)

	resold := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(50), resold.LiquidatedViaRetailer.Volume)
	assert.Equal(t, int64(50), resold.HeldByRetailers.Volume)
	assert.True(t, decimal.NewFromInt(25).Equal(resold.HeldByRetailers.Value))

	before := f.entry(t, "D1", "SKU-1")
	sale.Quantity = domain.MustQuantity(20, "10")
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, sale)
	v := requireCode(t, err, domain.CodeExceedsAvailable)
	assert.Equal(t, int64(10), *v.Expected)

	after := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, before.LiquidatedViaRetailer.Volume, after.LiquidatedViaRetailer.Volume)
	assert.Equal(t, before.HeldByRetailers.Volume, after.HeldByRetailers.Volume)
}

func TestRetailerPortionCountsOnceWhenResold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countShortfall(t, f, 200)
	_, err := f.ledger.Classify(ctx, "D1", "SKU-1", 0, 100)
	require.NoError(t, err)
	_, err = f.ledger.AllocateToRetailers(ctx, "D1", "SKU-1", map[string]int64{"R1": 100})
	require.NoError(t, err)

	committed := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(0), committed.LiquidatedViaRetailer.Volume)
	assert.Equal(t, int64(100), committed.HeldByRetailers.Volume)
	assert.Equal(t, int64(200), committed.CurrentStock.Volume)
	assert.Equal(t, int64(300), committed.BalanceStock.Volume)
	assert.Equal(t, int64(0), committed.LiquidationPercentage)

	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, RetailerSale{
		DistributorID: "D1", RetailerID: "R1", SKU: "SKU-1", Quantity: domain.MustQuantity(100, "50"),
	})
	require.NoError(t, err)

	resold := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(100), resold.LiquidatedViaRetailer.Volume)
	assert.Equal(t, int64(0), resold.HeldByRetailers.Volume)
	assert.Equal(t, int64(100), resold.TotalLiquidation.Volume)
	assert.Equal(t, int64(200), resold.BalanceStock.Volume)
	assert.Equal(t, int64(33), resold.LiquidationPercentage)
	require.NoError(t, domain.ValidateMetrics(resold))
}

func TestRetailerSaleEventAppliedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale := RetailerSale{
		EventID:       "evt-42",
		DistributorID: "D1",
		RetailerID:    "R1",
		SKU:           "SKU-1",
		Quantity:      domain.MustQuantity(7, "3.5"),
	}
	first, err := f.ledger.RecordFarmerSaleFromRetailer(ctx, sale)
	require.NoError(t, err)
	again, err := f.ledger.RecordFarmerSaleFromRetailer(ctx, sale)
	require.NoError(t, err)

	assert.Equal(t, first.LiquidatedViaRetailer.Volume, again.LiquidatedViaRetailer.Volume)
	assert.Equal(t, int64(7), f.entry(t, "D1", "SKU-1").LiquidatedViaRetailer.Volume)
	assert.Len(t, f.publisher.ofType(domain.EventRetailerSaleRecorded), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.retailerSales))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.duplicateEvents))

	applied, err := f.repo.FindProcessedEvent(ctx, "evt-42")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, applied.AppliedAt)
}

func TestRetailerSaleRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := RetailerSale{DistributorID: "D1", RetailerID: "R1", SKU: "SKU-1", Quantity: domain.MustQuantity(1, "1")}

	foreign := base
	foreign.RetailerID = "R9"
	_, err := f.ledger.RecordFarmerSaleFromRetailer(ctx, foreign)
	requireCode(t, err, domain.CodeForeignRetailer)

	notDistributor := base
	notDistributor.DistributorID = "R2"
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, notDistributor)
	requireCode(t, err, domain.CodeInvalidDealer)

	negative := base
	negative.Quantity = domain.Quantity{Volume: -3}
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, negative)
	requireCode(t, err, domain.CodeNegativeQuantity)

	_, err = f.ledger.DeactivateDealer(ctx, "R2")
	require.NoError(t, err)
	inactive := base
	inactive.RetailerID = "R2"
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, inactive)
	requireCode(t, err, domain.CodeDealerInactive)

	assert.Equal(t, int64(0), f.entry(t, "D1", "SKU-1").LiquidatedViaRetailer.Volume)
}

func TestConcurrentRetailerSalesAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const sales = 50
	var wg sync.WaitGroup
	errs := make(chan error, sales)
	for i := 0; i < sales; i++ {
		retailer := "R1"
		if i%2 == 1 {
			retailer = "R2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordFarmerSaleFromRetailer(ctx, RetailerSale{
				DistributorID: "D1",
				RetailerID:    retailer,
				SKU:           "SKU-1",
				Quantity:      domain.MustQuantity(1, "0.5"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored := f.entry(t, "D1", "SKU-1")
	assert.Equal(t, int64(sales), stored.LiquidatedViaRetailer.Volume)
	assert.True(t, decimal.NewFromInt(25).Equal(stored.LiquidatedViaRetailer.Value))
	assert.Equal(t, int64(300-sales), stored.BalanceStock.Volume)
	require.NoError(t, domain.ValidateMetrics(stored))
}

func TestMutationsBlockedWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	countShortfall(t, f, 90)

	_, err := f.ledger.RecordNetSales(ctx, "D1", "SKU-1", domain.MustQuantity(10, "5"))
	requireCode(t, err, domain.CodeReconciliationPending)
	_, err = f.ledger.RecordDirectFarmerSale(ctx, "D1", "SKU-1", domain.Quantity{Volume: 5})
	requireCode(t, err, domain.CodeReconciliationPending)

	// retailer sales are independent of the distributor's count
	_, err = f.ledger.RecordFarmerSaleFromRetailer(ctx, RetailerSale{
		DistributorID: "D1", RetailerID: "R1", SKU: "SKU-1", Quantity: domain.MustQuantity(5, "1"),
	})
	require.NoError(t, err)
}

func TestCorrectOpeningStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.CorrectOpeningStock(ctx, "D1", "SKU-1", domain.MustQuantity(250, "125"), "")
	requireCode(t, err, domain.CodeMissingField)

	e, err := f.ledger.CorrectOpeningStock(ctx, "D1", "SKU-1", domain.MustQuantity(250, "125"), "opening count keyed twice")
	require.NoError(t, err)
	assert.Equal(t, int64(250), e.OpeningStock.Volume)
	assert.Equal(t, int64(250), f.entry(t, "D1", "SKU-1").BalanceStock.Volume)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.ledger.RecordFarmerSaleFromRetailer(context.Background(), RetailerSale{
		DistributorID: "D1", RetailerID: "R1", SKU: "SKU-1", Quantity: domain.MustQuantity(3, "1"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.entry(t, "D1", "SKU-1").LiquidatedViaRetailer.Volume)
}
