package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// MemoryLedgerRepository keeps the ledger in process memory. It backs tests
// and the memory storage driver; data is lost on restart.
type MemoryLedgerRepository struct {
	mu          sync.RWMutex
	dealers     map[string]domain.Dealer
	entries     map[domain.EntryKey]domain.StockEntry
	assignments map[string]domain.RetailerAssignment
	events      map[string]domain.ProcessedEvent
	nextEntryID uint
	now         func() time.Time
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		dealers:     make(map[string]domain.Dealer),
		entries:     make(map[domain.EntryKey]domain.StockEntry),
		assignments: make(map[string]domain.RetailerAssignment),
		events:      make(map[string]domain.ProcessedEvent),
		now:         time.Now,
	}
}

func (r *MemoryLedgerRepository) CreateDealer(ctx context.Context, dealer *domain.Dealer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	dealer.CreatedAt = now
	dealer.UpdatedAt = now
	r.dealers[dealer.ID] = *dealer
	return nil
}

func (r *MemoryLedgerRepository) FindDealer(ctx context.Context, id string) (*domain.Dealer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dealer, ok := r.dealers[id]
	if !ok {
		return nil, domain.NewNotFound("dealer", id)
	}
	return &dealer, nil
}

func (r *MemoryLedgerRepository) UpdateDealer(ctx context.Context, dealer *domain.Dealer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dealers[dealer.ID]; !ok {
		return domain.NewNotFound("dealer", dealer.ID)
	}
	dealer.UpdatedAt = r.now()
	r.dealers[dealer.ID] = *dealer
	return nil
}

func (r *MemoryLedgerRepository) ListDealers(ctx context.Context, filter domain.DealerFilter) ([]domain.Dealer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dealers := make([]domain.Dealer, 0, len(r.dealers))
	for _, d := range r.dealers {
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.DistributorID != "" && d.DistributorID != filter.DistributorID {
			continue
		}
		if filter.ActiveOnly && !d.Active {
			continue
		}
		dealers = append(dealers, d)
	}
	sort.Slice(dealers, func(i, j int) bool { return dealers[i].ID < dealers[j].ID })
	return dealers, nil
}

func (r *MemoryLedgerRepository) CreateEntry(ctx context.Context, entry *domain.StockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEntryID++
	now := r.now()
	entry.ID = r.nextEntryID
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.entries[entry.Key()] = *entry
	return nil
}

func (r *MemoryLedgerRepository) FindEntry(ctx context.Context, dealerID, sku string) (*domain.StockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := domain.EntryKey{DealerID: dealerID, SKU: sku}
	entry, ok := r.entries[key]
	if !ok {
		return nil, domain.NewNotFound("stock_entry", key.String())
	}
	return &entry, nil
}

func (r *MemoryLedgerRepository) ListEntries(ctx context.Context, dealerID string) ([]domain.StockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []domain.StockEntry
	for key, e := range r.entries {
		if key.DealerID == dealerID {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (r *MemoryLedgerRepository) ListAllEntries(ctx context.Context) ([]domain.StockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]domain.StockEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (r *MemoryLedgerRepository) SaveEntry(ctx context.Context, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireEntries(entry); err != nil {
		return err
	}
	r.saveEntry(entry, assignments)
	return nil
}

// SaveEntries checks every key before writing so a missing entry leaves the
// others untouched.
func (r *MemoryLedgerRepository) SaveEntries(ctx context.Context, entries []*domain.StockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireEntries(entries...); err != nil {
		return err
	}
	for _, e := range entries {
		r.saveEntry(e, nil)
	}
	return nil
}

func (r *MemoryLedgerRepository) SaveEntryForEvent(ctx context.Context, event domain.ProcessedEvent, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; ok {
		return domain.ErrEventAlreadyApplied
	}
	if err := r.requireEntries(entry); err != nil {
		return err
	}
	r.events[event.ID] = event
	r.saveEntry(entry, assignments)
	return nil
}

func (r *MemoryLedgerRepository) FindProcessedEvent(ctx context.Context, id string) (*domain.ProcessedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, domain.NewNotFound("processed_event", id)
	}
	return &event, nil
}

func (r *MemoryLedgerRepository) requireEntries(entries ...*domain.StockEntry) error {
	for _, e := range entries {
		if _, ok := r.entries[e.Key()]; !ok {
			return domain.NewNotFound("stock_entry", e.Key().String())
		}
	}
	return nil
}

// saveEntry expects r.mu to be held for writing.
func (r *MemoryLedgerRepository) saveEntry(entry *domain.StockEntry, assignments []domain.RetailerAssignment) {
	key := entry.Key()
	stored := r.entries[key]

	now := r.now()
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	entry.UpdatedAt = now
	r.entries[key] = *entry

	for _, a := range assignments {
		if prev, ok := r.assignments[a.ID]; ok {
			a.CreatedAt = prev.CreatedAt
		} else {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		r.assignments[a.ID] = a
	}
}

func (r *MemoryLedgerRepository) ListAssignments(ctx context.Context, distributorID, sku string) ([]domain.RetailerAssignment, error) {
	return r.filterAssignments(func(a domain.RetailerAssignment) bool {
		return a.DistributorID == distributorID && (sku == "" || a.SKU == sku)
	}), nil
}

func (r *MemoryLedgerRepository) FindAssignments(ctx context.Context, distributorID, retailerID, sku string) ([]domain.RetailerAssignment, error) {
	return r.filterAssignments(func(a domain.RetailerAssignment) bool {
		return a.DistributorID == distributorID && a.RetailerID == retailerID && a.SKU == sku
	}), nil
}

func (r *MemoryLedgerRepository) filterAssignments(match func(domain.RetailerAssignment) bool) []domain.RetailerAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.RetailerAssignment
	for _, a := range r.assignments {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReconciledAt.Equal(out[j].ReconciledAt) {
			return out[i].ReconciledAt.Before(out[j].ReconciledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortEntries(entries []domain.StockEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DealerID != entries[j].DealerID {
			return entries[i].DealerID < entries[j].DealerID
		}
		return entries[i].SKU < entries[j].SKU
	})
}
