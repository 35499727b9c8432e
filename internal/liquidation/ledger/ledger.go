package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// Publisher receives ledger events after the step they describe is persisted.
type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// CacheInvalidator drops read models derived from the ledger.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.LedgerEvent) error { return nil }

type Option func(*Ledger)

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(l *Ledger) { l.invalidator = c }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger applies every mutation of dealers and stock entries. All mutations
// touching one dealer's entries run under that dealer's lock, so the derived
// fields are recomputed, checked and persisted as one step.
type Ledger struct {
	repo        domain.LedgerRepository
	locks       *keyedMutex
	publisher   Publisher
	metrics     *Metrics
	invalidator CacheInvalidator
	now         func() time.Time
}

// New creates a Ledger over repo.
func New(repo domain.LedgerRepository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:      repo,
		locks:     newKeyedMutex(),
		publisher: NoopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	return l
}

// OpenEntryInput opens a ledger row. CurrentStock defaults to opening plus YTD.
type OpenEntryInput struct {
	DealerID     string
	SKU          string
	OpeningStock domain.Quantity
	YTDNetSales  domain.Quantity
	CurrentStock *domain.Quantity
}

// StockCountSubmission is one field visit's count of every SKU a dealer holds.
type StockCountSubmission struct {
	DealerID  string
	Counts    map[string]int64
	InRange   bool
	Documents domain.Documents
}

// RetailerSale is a retailer's sale to a farmer of stock supplied by the
// distributor. A non-empty EventID makes the sale idempotent: a second sale
// with the same id is ignored.
type RetailerSale struct {
	EventID       string
	DistributorID string
	RetailerID    string
	SKU           string
	Quantity      domain.Quantity
}

type ClassifyResult struct {
	Entry     domain.StockEntry `json:"entry"`
	Committed bool              `json:"committed"`
}

type AllocationResult struct {
	Entry       domain.StockEntry           `json:"entry"`
	Assignments []domain.RetailerAssignment `json:"assignments"`
}

type StockCountResult struct {
	Outcomes []domain.StockCountOutcome `json:"outcomes"`
	Entries  []domain.StockEntry        `json:"entries"`
}

// OnboardDealer registers a distributor or a retailer under an active distributor.
func (l *Ledger) OnboardDealer(ctx context.Context, dealer domain.Dealer) (d *domain.Dealer, err error) {
	defer func() { l.record(ctx, "onboard_dealer", dealer.ID, "", err) }()

	dealer.Active = true
	if err := dealer.Validate(); err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(dealer.ID)
	defer unlock()

	if _, err := l.repo.FindDealer(ctx, dealer.ID); err == nil {
		return nil, domain.NewValidationError(domain.CodeDealerExists, "id", "dealer already onboarded")
	} else if !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up dealer: %w", err)
	}

	if dealer.Type == domain.DealerRetailer {
		parent, err := l.repo.FindDealer(ctx, dealer.DistributorID)
		if err != nil {
			return nil, err
		}
		if !parent.IsDistributor() {
			return nil, domain.NewValidationError(domain.CodeInvalidDealer, "distributor_id", "parent dealer is not a distributor")
		}
		if !parent.Active {
			return nil, domain.NewValidationError(domain.CodeDealerInactive, "distributor_id", "parent distributor is deactivated")
		}
	}

	if err := l.repo.CreateDealer(ctx, &dealer); err != nil {
		return nil, fmt.Errorf("failed to create dealer: %w", err)
	}
	l.invalidate(ctx)
	return &dealer, nil
}

// DeactivateDealer marks a dealer inactive. Its entries stay in reporting.
func (l *Ledger) DeactivateDealer(ctx context.Context, dealerID string) (d *domain.Dealer, err error) {
	defer func() { l.record(ctx, "deactivate_dealer", dealerID, "", err) }()

	unlock := l.locks.Lock(dealerID)
	defer unlock()

	dealer, err := l.repo.FindDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if !dealer.Active {
		return dealer, nil
	}

	dealer.Active = false
	if err := l.repo.UpdateDealer(ctx, dealer); err != nil {
		return nil, fmt.Errorf("failed to update dealer: %w", err)
	}
	l.invalidate(ctx)
	return dealer, nil
}

// OpenEntry creates the StockEntry for a dealer and SKU.
func (l *Ledger) OpenEntry(ctx context.Context, in OpenEntryInput) (e *domain.StockEntry, err error) {
	defer func() { l.record(ctx, "open_entry", in.DealerID, in.SKU, err) }()

	entry, err := domain.NewStockEntry(in.DealerID, in.SKU, in.OpeningStock, in.YTDNetSales, in.CurrentStock)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(in.DealerID)
	defer unlock()

	if _, err := l.activeDealer(ctx, in.DealerID); err != nil {
		return nil, err
	}
	if _, err := l.repo.FindEntry(ctx, in.DealerID, in.SKU); err == nil {
		return nil, domain.NewValidationError(domain.CodeEntryExists, "sku", "entry already open for this dealer and sku")
	} else if !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up entry: %w", err)
	}

	if err := l.check(entry); err != nil {
		return nil, err
	}
	if err := l.repo.CreateEntry(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	l.invalidate(ctx)
	return &entry, nil
}

// RecordStockCount applies one physical count to one entry.
func (l *Ledger) RecordStockCount(ctx context.Context, dealerID, sku string, counted int64, docs domain.Documents) (out domain.StockCountOutcome, err error) {
	defer func() { l.record(ctx, "record_stock_count", dealerID, sku, err) }()

	unlock := l.locks.Lock(dealerID)
	defer unlock()

	if _, err := l.activeDealer(ctx, dealerID); err != nil {
		return out, err
	}
	entry, err := l.repo.FindEntry(ctx, dealerID, sku)
	if err != nil {
		return out, err
	}
	_, out, err = l.applyStockCount(ctx, *entry, counted, docs)
	return out, err
}

// SubmitStockCount applies a field visit's counts. The visit must have been
// made within range of the dealer and must count every SKU the dealer holds.
func (l *Ledger) SubmitStockCount(ctx context.Context, sub StockCountSubmission) (res StockCountResult, err error) {
	defer func() { l.record(ctx, "submit_stock_count", sub.DealerID, "", err) }()

	if sub.DealerID == "" {
		return res, domain.NewValidationError(domain.CodeMissingField, "dealer_id", "dealer id is required")
	}
	if !sub.InRange {
		return res, domain.NewValidationError(domain.CodeOutOfRange, "in_range", "stock count was taken outside the dealer's geofence")
	}
	for sku, counted := range sub.Counts {
		if counted < 0 {
			return res, domain.NewMismatchError(domain.CodeNegativeQuantity, "counts."+sku, 0, counted)
		}
	}

	unlock := l.locks.Lock(sub.DealerID)
	defer unlock()

	if _, err := l.activeDealer(ctx, sub.DealerID); err != nil {
		return res, err
	}
	entries, err := l.repo.ListEntries(ctx, sub.DealerID)
	if err != nil {
		return res, fmt.Errorf("failed to list entries: %w", err)
	}

	known := make(map[string]struct{}, len(entries))
	var missing []string
	for _, e := range entries {
		known[e.SKU] = struct{}{}
		if _, ok := sub.Counts[e.SKU]; !ok {
			missing = append(missing, e.SKU)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return res, &domain.ValidationError{
			Code:    domain.CodeIncompleteStockCount,
			Field:   "counts",
			Missing: missing,
		}
	}
	var unknown []string
	for sku := range sub.Counts {
		if _, ok := known[sku]; !ok {
			unknown = append(unknown, sku)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return res, domain.NewNotFound("stock_entry", domain.EntryKey{DealerID: sub.DealerID, SKU: unknown[0]}.String())
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].SKU < entries[j].SKU })

	now := l.now().UTC()
	for _, e := range entries {
		updated, outcome, err := e.RecordStockCount(sub.Counts[e.SKU], sub.Documents, now)
		if err != nil {
			return StockCountResult{}, err
		}
		if err := l.check(updated); err != nil {
			return StockCountResult{}, err
		}
		res.Entries = append(res.Entries, updated)
		res.Outcomes = append(res.Outcomes, outcome)
	}
	updates := make([]*domain.StockEntry, len(res.Entries))
	for i := range res.Entries {
		updates[i] = &res.Entries[i]
	}
	if err := l.repo.SaveEntries(ctx, updates); err != nil {
		return StockCountResult{}, fmt.Errorf("failed to save entries: %w", err)
	}
	l.invalidate(ctx)

	for i, e := range entries {
		l.stockCounted(ctx, e, res.Entries[i], res.Outcomes[i])
	}
	return res, nil
}

func (l *Ledger) applyStockCount(ctx context.Context, entry domain.StockEntry, counted int64, docs domain.Documents) (domain.StockEntry, domain.StockCountOutcome, error) {
	updated, outcome, err := entry.RecordStockCount(counted, docs, l.now().UTC())
	if err != nil {
		return entry, outcome, err
	}
	if err := l.persist(ctx, &updated); err != nil {
		return entry, outcome, err
	}
	l.stockCounted(ctx, entry, updated, outcome)
	return updated, outcome, nil
}

// stockCounted runs the side effects of a persisted count.
func (l *Ledger) stockCounted(ctx context.Context, entry, updated domain.StockEntry, outcome domain.StockCountOutcome) {
	if outcome.AbandonedPending {
		l.metrics.reconciliationsAbandoned.Inc()
		logger.Warn(ctx).
			Str("dealer_id", entry.DealerID).
			Str("sku", entry.SKU).
			Int64("abandoned_difference", entry.Reconciliation.Difference).
			Msg("Pending reconciliation superseded by a new stock count")
	}
	switch {
	case outcome.Status == domain.StatusPendingClassification:
		l.metrics.reconciliationsStarted.Inc()
	case outcome.StockIncrease:
		l.metrics.stockIncreases.Inc()
		logger.Warn(ctx).
			Str("dealer_id", entry.DealerID).
			Str("sku", entry.SKU).
			Int64("previous_volume", outcome.PreviousVolume).
			Int64("counted_volume", outcome.CountedVolume).
			Msg("Stock count above last known stock")
		l.publish(ctx, domain.LedgerEvent{
			EventType: domain.EventStockIncreaseDetected,
			DealerID:  entry.DealerID,
			SKU:       entry.SKU,
			Quantity:  domain.Quantity{Volume: outcome.Increase},
			Entry:     &updated,
		})
	}
}

// Classify splits the pending shortfall of an entry into farmer and retailer
// portions. Only distributors may name a retailer portion.
func (l *Ledger) Classify(ctx context.Context, dealerID, sku string, toFarmer, toRetailer int64) (res ClassifyResult, err error) {
	defer func() { l.record(ctx, "classify", dealerID, sku, err) }()

	unlock := l.locks.Lock(dealerID)
	defer unlock()

	dealer, err := l.activeDealer(ctx, dealerID)
	if err != nil {
		return res, err
	}
	if toRetailer > 0 && !dealer.IsDistributor() {
		return res, domain.NewValidationError(domain.CodeRetailerSplitNotAllowed, "to_retailer", "only distributors hand stock to retailers")
	}
	entry, err := l.repo.FindEntry(ctx, dealerID, sku)
	if err != nil {
		return res, err
	}

	updated, committed, err := entry.Classify(toFarmer, toRetailer, l.now().UTC())
	if err != nil {
		return res, err
	}
	if err := l.persist(ctx, &updated); err != nil {
		return res, err
	}

	if committed {
		l.committed(ctx, updated, nil)
	}
	return ClassifyResult{Entry: updated, Committed: committed}, nil
}

// AllocateToRetailers names the retailers that received the retailer portion
// and commits the reconciliation.
func (l *Ledger) AllocateToRetailers(ctx context.Context, dealerID, sku string, allocations map[string]int64) (res AllocationResult, err error) {
	defer func() { l.record(ctx, "allocate_to_retailers", dealerID, sku, err) }()

	unlock := l.locks.Lock(dealerID)
	defer unlock()

	if _, err := l.activeDealer(ctx, dealerID); err != nil {
		return res, err
	}
	entry, err := l.repo.FindEntry(ctx, dealerID, sku)
	if err != nil {
		return res, err
	}

	updated, assignments, err := entry.AllocateToRetailers(allocations, l.now().UTC())
	if err != nil {
		return res, err
	}

	retailerIDs := make([]string, 0, len(allocations))
	for id := range allocations {
		retailerIDs = append(retailerIDs, id)
	}
	sort.Strings(retailerIDs)
	for _, id := range retailerIDs {
		if err := l.checkRetailerOf(ctx, dealerID, id); err != nil {
			return res, err
		}
	}

	for i := range assignments {
		assignments[i].ID = uuid.NewString()
	}
	if err := l.persist(ctx, &updated, assignments...); err != nil {
		return res, err
	}

	l.committed(ctx, updated, assignments)
	return AllocationResult{Entry: updated, Assignments: assignments}, nil
}

// RecordFarmerSaleFromRetailer attributes a retailer's farmer sale to the
// supplying distributor's entry. When the retailer holds assignments for the
// SKU the sale is drawn from their unsold volume and may not exceed it, and
// the drawn volume leaves the distributor's held-by-retailers figure.
func (l *Ledger) RecordFarmerSaleFromRetailer(ctx context.Context, sale RetailerSale) (e domain.StockEntry, err error) {
	defer func() { l.record(ctx, "record_retailer_sale", sale.DistributorID, sale.SKU, err) }()

	if sale.RetailerID == "" {
		return e, domain.NewValidationError(domain.CodeMissingField, "retailer_id", "retailer id is required")
	}
	if err := sale.Quantity.Validate("retailer_sale"); err != nil {
		return e, err
	}

	unlock := l.locks.Lock(sale.DistributorID)
	defer unlock()

	if sale.EventID != "" {
		if _, err := l.repo.FindProcessedEvent(ctx, sale.EventID); err == nil {
			return l.duplicateSale(ctx, sale)
		} else if !domain.IsNotFound(err) {
			return e, fmt.Errorf("failed to look up event: %w", err)
		}
	}

	distributor, err := l.activeDealer(ctx, sale.DistributorID)
	if err != nil {
		return e, err
	}
	if !distributor.IsDistributor() {
		return e, domain.NewValidationError(domain.CodeInvalidDealer, "distributor_id", "dealer is not a distributor")
	}
	if err := l.checkRetailerOf(ctx, sale.DistributorID, sale.RetailerID); err != nil {
		return e, err
	}
	entry, err := l.repo.FindEntry(ctx, sale.DistributorID, sale.SKU)
	if err != nil {
		return e, err
	}

	assignments, err := l.repo.FindAssignments(ctx, sale.DistributorID, sale.RetailerID, sale.SKU)
	if err != nil {
		return e, fmt.Errorf("failed to load assignments: %w", err)
	}
	var (
		consumed []domain.RetailerAssignment
		released domain.Quantity
	)
	if len(assignments) > 0 {
		consumed, released, err = domain.ConsumeSale(assignments, sale.Quantity.Volume)
		if err != nil {
			return e, err
		}
	}

	updated, err := entry.AddRetailerFarmerSale(sale.Quantity, released)
	if err != nil {
		return e, err
	}

	if sale.EventID == "" {
		err = l.persist(ctx, &updated, consumed...)
	} else {
		err = l.persistForEvent(ctx, domain.ProcessedEvent{
			ID:        sale.EventID,
			DealerID:  sale.DistributorID,
			SKU:       sale.SKU,
			AppliedAt: l.now().UTC(),
		}, &updated, consumed...)
	}
	if errors.Is(err, domain.ErrEventAlreadyApplied) {
		return l.duplicateSale(ctx, sale)
	}
	if err != nil {
		return e, err
	}

	l.metrics.retailerSales.Inc()
	l.publish(ctx, domain.LedgerEvent{
		EventType:   domain.EventRetailerSaleRecorded,
		DealerID:    sale.DistributorID,
		SKU:         sale.SKU,
		RetailerID:  sale.RetailerID,
		Quantity:    sale.Quantity,
		Entry:       &updated,
		Assignments: consumed,
	})
	return updated, nil
}

// duplicateSale answers a redelivered sale with the entry as it stands.
func (l *Ledger) duplicateSale(ctx context.Context, sale RetailerSale) (domain.StockEntry, error) {
	l.metrics.duplicateEvents.Inc()
	logger.Info(ctx).
		Str("event_id", sale.EventID).
		Str("dealer_id", sale.DistributorID).
		Str("sku", sale.SKU).
		Msg("Retailer sale already applied")

	entry, err := l.repo.FindEntry(ctx, sale.DistributorID, sale.SKU)
	if err != nil {
		return domain.StockEntry{}, err
	}
	return *entry, nil
}

// RecordNetSales adds net sales into the dealer for the SKU.
func (l *Ledger) RecordNetSales(ctx context.Context, dealerID, sku string, q domain.Quantity) (domain.StockEntry, error) {
	return l.mutate(ctx, "record_net_sales", dealerID, sku, func(e domain.StockEntry) (domain.StockEntry, error) {
		return e.AddNetSales(q)
	})
}

// RecordDirectFarmerSale books a dealer's own farmer sale made between counts.
func (l *Ledger) RecordDirectFarmerSale(ctx context.Context, dealerID, sku string, q domain.Quantity) (domain.StockEntry, error) {
	return l.mutate(ctx, "record_farmer_sale", dealerID, sku, func(e domain.StockEntry) (domain.StockEntry, error) {
		return e.AddDirectFarmerSale(q)
	})
}

// CorrectOpeningStock replaces the opening snapshot. A reason is mandatory
// and is kept in the log.
func (l *Ledger) CorrectOpeningStock(ctx context.Context, dealerID, sku string, q domain.Quantity, reason string) (domain.StockEntry, error) {
	return l.mutate(ctx, "correct_opening_stock", dealerID, sku, func(e domain.StockEntry) (domain.StockEntry, error) {
		if reason == "" {
			return e, domain.NewValidationError(domain.CodeMissingField, "reason", "a correction reason is required")
		}
		updated, err := e.CorrectOpeningStock(q)
		if err != nil {
			return e, err
		}
		logger.Warn(ctx).
			Str("dealer_id", dealerID).
			Str("sku", sku).
			Str("previous_opening", e.OpeningStock.String()).
			Str("new_opening", q.String()).
			Str("reason", reason).
			Msg("Opening stock corrected")
		return updated, nil
	})
}

func (l *Ledger) mutate(ctx context.Context, op, dealerID, sku string, fn func(domain.StockEntry) (domain.StockEntry, error)) (e domain.StockEntry, err error) {
	defer func() { l.record(ctx, op, dealerID, sku, err) }()

	unlock := l.locks.Lock(dealerID)
	defer unlock()

	if _, err := l.activeDealer(ctx, dealerID); err != nil {
		return e, err
	}
	entry, err := l.repo.FindEntry(ctx, dealerID, sku)
	if err != nil {
		return e, err
	}

	updated, err := fn(*entry)
	if err != nil {
		return e, err
	}
	if err := l.persist(ctx, &updated); err != nil {
		return e, err
	}
	return updated, nil
}

func (l *Ledger) activeDealer(ctx context.Context, dealerID string) (*domain.Dealer, error) {
	if dealerID == "" {
		return nil, domain.NewValidationError(domain.CodeMissingField, "dealer_id", "dealer id is required")
	}
	dealer, err := l.repo.FindDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if !dealer.Active {
		return nil, domain.NewValidationError(domain.CodeDealerInactive, "dealer_id", "dealer is deactivated")
	}
	return dealer, nil
}

func (l *Ledger) checkRetailerOf(ctx context.Context, distributorID, retailerID string) error {
	retailer, err := l.repo.FindDealer(ctx, retailerID)
	if err != nil {
		return err
	}
	if retailer.Type != domain.DealerRetailer || retailer.DistributorID != distributorID {
		return domain.NewValidationError(domain.CodeForeignRetailer, "retailer_id", retailerID)
	}
	if !retailer.Active {
		return domain.NewValidationError(domain.CodeDealerInactive, "retailer_id", retailerID)
	}
	return nil
}

// check recomputes the derived fields before anything is written.
func (l *Ledger) check(entry domain.StockEntry) error {
	if err := domain.ValidateMetrics(entry); err != nil {
		var iv *domain.InvariantViolation
		if errors.As(err, &iv) {
			l.metrics.invariantViolations.WithLabelValues(iv.Invariant).Inc()
		}
		return err
	}
	return nil
}

func (l *Ledger) persist(ctx context.Context, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	if err := l.check(*entry); err != nil {
		return err
	}
	if err := l.repo.SaveEntry(ctx, entry, assignments...); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	l.invalidate(ctx)
	return nil
}

func (l *Ledger) persistForEvent(ctx context.Context, event domain.ProcessedEvent, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	if err := l.check(*entry); err != nil {
		return err
	}
	if err := l.repo.SaveEntryForEvent(ctx, event, entry, assignments...); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	l.invalidate(ctx)
	return nil
}

func (l *Ledger) committed(ctx context.Context, entry domain.StockEntry, assignments []domain.RetailerAssignment) {
	l.metrics.reconciliationsCommitted.Inc()
	l.publish(ctx, domain.LedgerEvent{
		EventType:   domain.EventReconciliationCommitted,
		DealerID:    entry.DealerID,
		SKU:         entry.SKU,
		Quantity:    domain.Quantity{Volume: entry.Reconciliation.Difference},
		Entry:       &entry,
		Assignments: assignments,
	})
}

func (l *Ledger) invalidate(ctx context.Context) {
	if l.invalidator == nil {
		return
	}
	if err := l.invalidator.InvalidateAll(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate metrics cache")
	}
}

// publish never fails the ledger step; the event is best effort.
func (l *Ledger) publish(ctx context.Context, event domain.LedgerEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = l.now().UTC()
	if err := l.publisher.Publish(ctx, event); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("event_type", event.EventType).
			Str("dealer_id", event.DealerID).
			Str("sku", event.SKU).
			Msg("Failed to publish ledger event")
	}
}

// record logs the outcome of a mutation and counts it.
func (l *Ledger) record(ctx context.Context, op, dealerID, sku string, err error) {
	var (
		validation *domain.ValidationError
		violation  *domain.InvariantViolation
		notFound   *domain.NotFoundError
	)

	switch {
	case err == nil:
		l.metrics.mutations.WithLabelValues(op, "ok").Inc()
		logger.Info(ctx).
			Str("operation", op).
			Str("dealer_id", dealerID).
			Str("sku", sku).
			Msg("Ledger mutation applied")
	case errors.As(err, &validation):
		l.metrics.mutations.WithLabelValues(op, "rejected").Inc()
		l.metrics.rejections.WithLabelValues(string(validation.Code)).Inc()
		logger.Warn(ctx).
			Str("operation", op).
			Str("dealer_id", dealerID).
			Str("sku", sku).
			Str("code", string(validation.Code)).
			Str("field", validation.Field).
			Msg("Ledger mutation rejected")
	case errors.As(err, &violation):
		l.metrics.mutations.WithLabelValues(op, "invariant_violation").Inc()
		logger.Error(ctx).
			Str("operation", op).
			Str("dealer_id", dealerID).
			Str("sku", sku).
			Str("invariant", violation.Invariant).
			Str("expected", violation.Expected).
			Str("actual", violation.Actual).
			Msg("Ledger invariant violated")
	case errors.As(err, &notFound):
		l.metrics.mutations.WithLabelValues(op, "not_found").Inc()
		logger.Debug(ctx).
			Str("operation", op).
			Str("resource", notFound.Resource).
			Str("id", notFound.ID).
			Msg("Ledger reference not found")
	default:
		l.metrics.mutations.WithLabelValues(op, "error").Inc()
		logger.Error(ctx).
			Err(err).
			Str("operation", op).
			Str("dealer_id", dealerID).
			Str("sku", sku).
			Msg("Ledger mutation failed")
	}
}
