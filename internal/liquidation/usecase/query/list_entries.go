package query

import (
	"context"
	"fmt"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// ListEntriesQuery represents the query to list a dealer's ledger rows
type ListEntriesQuery struct {
	DealerID string
}

// ListEntriesHandler handles list entries query
type ListEntriesHandler struct {
	repo domain.LedgerRepository
}

// NewListEntriesHandler creates a new list entries handler
func NewListEntriesHandler(repo domain.LedgerRepository) *ListEntriesHandler {
	return &ListEntriesHandler{repo: repo}
}

// Handle executes the list entries query. An unknown dealer is NotFound
// rather than an empty list.
func (h *ListEntriesHandler) Handle(ctx context.Context, q ListEntriesQuery) ([]domain.StockEntry, error) {
	if _, err := h.repo.FindDealer(ctx, q.DealerID); err != nil {
		return nil, err
	}

	entries, err := h.repo.ListEntries(ctx, q.DealerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if entries == nil {
		entries = []domain.StockEntry{}
	}
	return entries, nil
}
