package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

func TestMemoryDealers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()

	for _, d := range []domain.Dealer{
		{ID: "R2", Type: domain.DealerRetailer, DistributorID: "D1", Active: true},
		{ID: "D1", Type: domain.DealerDistributor, Active: true},
		{ID: "R1", Type: domain.DealerRetailer, DistributorID: "D1"},
		{ID: "D2", Type: domain.DealerDistributor, Active: true},
	} {
		d := d
		require.NoError(t, repo.CreateDealer(ctx, &d))
	}

	_, err := repo.FindDealer(ctx, "NOPE")
	assert.True(t, domain.IsNotFound(err))

	all, err := repo.ListDealers(ctx, domain.DealerFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "D1", all[0].ID)

	retailers, err := repo.ListDealers(ctx, domain.DealerFilter{Type: domain.DealerRetailer, DistributorID: "D1", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, retailers, 1)
	assert.Equal(t, "R2", retailers[0].ID)

	missing := domain.Dealer{ID: "D9"}
	assert.True(t, domain.IsNotFound(repo.UpdateDealer(ctx, &missing)))
}

func TestMemoryEntries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()

	b := domain.StockEntry{DealerID: "D1", SKU: "B"}
	a := domain.StockEntry{DealerID: "D1", SKU: "A"}
	other := domain.StockEntry{DealerID: "D2", SKU: "A"}
	require.NoError(t, repo.CreateEntry(ctx, &b))
	require.NoError(t, repo.CreateEntry(ctx, &a))
	require.NoError(t, repo.CreateEntry(ctx, &other))
	assert.Equal(t, uint(1), b.ID)
	assert.Equal(t, uint(2), a.ID)

	entries, err := repo.ListEntries(ctx, "D1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].SKU)

	all, err := repo.ListAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// the stored row is a copy
	found, err := repo.FindEntry(ctx, "D1", "A")
	require.NoError(t, err)
	found.CurrentStock = domain.MustQuantity(5, "1")
	again, err := repo.FindEntry(ctx, "D1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.CurrentStock.Volume)

	unknown := domain.StockEntry{DealerID: "D1", SKU: "Z"}
	assert.True(t, domain.IsNotFound(repo.SaveEntry(ctx, &unknown)))
}

func TestMemorySaveEntryWithAssignments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	entry := domain.StockEntry{DealerID: "D1", SKU: "A"}
	require.NoError(t, repo.CreateEntry(ctx, &entry))

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	entry.CurrentStock = domain.MustQuantity(10, "5")
	require.NoError(t, repo.SaveEntry(ctx, &entry,
		domain.RetailerAssignment{ID: "b", DistributorID: "D1", RetailerID: "R1", SKU: "A", AllocatedVolume: 5, ReconciledAt: late},
		domain.RetailerAssignment{ID: "a", DistributorID: "D1", RetailerID: "R1", SKU: "A", AllocatedVolume: 5, ReconciledAt: late},
		domain.RetailerAssignment{ID: "z", DistributorID: "D1", RetailerID: "R1", SKU: "A", AllocatedVolume: 5, ReconciledAt: early},
		domain.RetailerAssignment{ID: "r2", DistributorID: "D1", RetailerID: "R2", SKU: "A", AllocatedVolume: 5, ReconciledAt: early},
	))
	assert.Equal(t, uint(1), entry.ID)

	found, err := repo.FindAssignments(ctx, "D1", "R1", "A")
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, []string{"z", "a", "b"}, []string{found[0].ID, found[1].ID, found[2].ID})

	all, err := repo.ListAssignments(ctx, "D1", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// updating keeps the original creation time
	clock = clock.Add(time.Minute)
	sold := found[0]
	sold.SoldVolume = 5
	require.NoError(t, repo.SaveEntry(ctx, &entry, sold))

	found, err = repo.FindAssignments(ctx, "D1", "R1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), found[0].SoldVolume)
	assert.Equal(t, early, found[0].CreatedAt)
	assert.Equal(t, clock, found[0].UpdatedAt)
}

func TestMemorySaveEntriesIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()

	a := domain.StockEntry{DealerID: "D1", SKU: "A"}
	require.NoError(t, repo.CreateEntry(ctx, &a))

	a.CurrentStock = domain.MustQuantity(7, "3.5")
	unknown := domain.StockEntry{DealerID: "D1", SKU: "Z"}
	err := repo.SaveEntries(ctx, []*domain.StockEntry{&a, &unknown})
	assert.True(t, domain.IsNotFound(err))

	stored, err := repo.FindEntry(ctx, "D1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.CurrentStock.Volume)

	require.NoError(t, repo.SaveEntries(ctx, []*domain.StockEntry{&a}))
	stored, err = repo.FindEntry(ctx, "D1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.CurrentStock.Volume)
}

func TestMemorySaveEntryForEventRejectsRedelivery(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLedgerRepository()

	entry := domain.StockEntry{DealerID: "D1", SKU: "A"}
	require.NoError(t, repo.CreateEntry(ctx, &entry))

	event := domain.ProcessedEvent{ID: "evt-1", DealerID: "D1", SKU: "A", AppliedAt: time.Now()}
	entry.CurrentStock = domain.MustQuantity(4, "2")
	require.NoError(t, repo.SaveEntryForEvent(ctx, event, &entry))

	found, err := repo.FindProcessedEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "D1", found.DealerID)

	entry.CurrentStock = domain.MustQuantity(1, "0.5")
	err = repo.SaveEntryForEvent(ctx, event, &entry)
	assert.ErrorIs(t, err, domain.ErrEventAlreadyApplied)

	stored, err := repo.FindEntry(ctx, "D1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.CurrentStock.Volume)

	_, err = repo.FindProcessedEvent(ctx, "evt-2")
	assert.True(t, domain.IsNotFound(err))
}
