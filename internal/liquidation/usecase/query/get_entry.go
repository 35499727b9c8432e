package query

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// GetEntryQuery represents the query to get one ledger row
type GetEntryQuery struct {
	DealerID string
	SKU      string
}

// GetEntryHandler handles get entry query
type GetEntryHandler struct {
	repo domain.LedgerRepository
}

// NewGetEntryHandler creates a new get entry handler
func NewGetEntryHandler(repo domain.LedgerRepository) *GetEntryHandler {
	return &GetEntryHandler{repo: repo}
}

// Handle executes the get entry query
func (h *GetEntryHandler) Handle(ctx context.Context, q GetEntryQuery) (*domain.StockEntry, error) {
	return h.repo.FindEntry(ctx, q.DealerID, q.SKU)
}
