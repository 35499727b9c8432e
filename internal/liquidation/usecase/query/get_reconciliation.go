package query

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// GetReconciliationQuery represents the query to inspect an entry's stock-count cycle
type GetReconciliationQuery struct {
	DealerID string
	SKU      string
}

// ReconciliationView is the state a field user needs to finish a reconciliation.
type ReconciliationView struct {
	DealerID           string                `json:"dealer_id"`
	SKU                string                `json:"sku"`
	CurrentStock       domain.Quantity       `json:"current_stock"`
	Reconciliation     domain.Reconciliation `json:"reconciliation"`
	AwaitingAllocation bool                  `json:"awaiting_allocation"`
}

// GetReconciliationHandler handles get reconciliation query
type GetReconciliationHandler struct {
	repo domain.LedgerRepository
}

// NewGetReconciliationHandler creates a new get reconciliation handler
func NewGetReconciliationHandler(repo domain.LedgerRepository) *GetReconciliationHandler {
	return &GetReconciliationHandler{repo: repo}
}

// Handle executes the get reconciliation query
func (h *GetReconciliationHandler) Handle(ctx context.Context, q GetReconciliationQuery) (*ReconciliationView, error) {
	entry, err := h.repo.FindEntry(ctx, q.DealerID, q.SKU)
	if err != nil {
		return nil, err
	}

	return &ReconciliationView{
		DealerID:           entry.DealerID,
		SKU:                entry.SKU,
		CurrentStock:       entry.CurrentStock,
		Reconciliation:     entry.Reconciliation,
		AwaitingAllocation: entry.Reconciliation.AwaitingAllocation(),
	}, nil
}
