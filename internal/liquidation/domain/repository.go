package domain

import "context"

// LedgerRepository defines the contract for ledger persistence. Lookups of
// missing rows return *NotFoundError.
type LedgerRepository interface {
	CreateDealer(ctx context.Context, dealer *Dealer) error
	FindDealer(ctx context.Context, id string) (*Dealer, error)
	UpdateDealer(ctx context.Context, dealer *Dealer) error
	ListDealers(ctx context.Context, filter DealerFilter) ([]Dealer, error)

	CreateEntry(ctx context.Context, entry *StockEntry) error
	FindEntry(ctx context.Context, dealerID, sku string) (*StockEntry, error)
	ListEntries(ctx context.Context, dealerID string) ([]StockEntry, error)
	ListAllEntries(ctx context.Context) ([]StockEntry, error)

	// SaveEntry persists the entry together with new or updated assignments
	// in one transaction.
	SaveEntry(ctx context.Context, entry *StockEntry, assignments ...RetailerAssignment) error
	// SaveEntries persists several entries of one step in one transaction;
	// either all are written or none is.
	SaveEntries(ctx context.Context, entries []*StockEntry) error
	// SaveEntryForEvent behaves like SaveEntry and also records the event.
	// It returns ErrEventAlreadyApplied, writing nothing, when the event id
	// is already recorded.
	SaveEntryForEvent(ctx context.Context, event ProcessedEvent, entry *StockEntry, assignments ...RetailerAssignment) error
	FindProcessedEvent(ctx context.Context, id string) (*ProcessedEvent, error)

	ListAssignments(ctx context.Context, distributorID, sku string) ([]RetailerAssignment, error)
	FindAssignments(ctx context.Context, distributorID, retailerID, sku string) ([]RetailerAssignment, error)
}
