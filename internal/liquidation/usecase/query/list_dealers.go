package query

import (
	"context"
	"fmt"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// ListDealersQuery represents the query to list dealers
type ListDealersQuery struct {
	Type          domain.DealerType
	DistributorID string
	ActiveOnly    bool
}

// ListDealersHandler handles list dealers query
type ListDealersHandler struct {
	repo domain.LedgerRepository
}

// NewListDealersHandler creates a new list dealers handler
func NewListDealersHandler(repo domain.LedgerRepository) *ListDealersHandler {
	return &ListDealersHandler{repo: repo}
}

// Handle executes the list dealers query
func (h *ListDealersHandler) Handle(ctx context.Context, q ListDealersQuery) ([]domain.Dealer, error) {
	dealers, err := h.repo.ListDealers(ctx, domain.DealerFilter{
		Type:          q.Type,
		DistributorID: q.DistributorID,
		ActiveOnly:    q.ActiveOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dealers: %w", err)
	}
	if dealers == nil {
		dealers = []domain.Dealer{}
	}
	return dealers, nil
}
