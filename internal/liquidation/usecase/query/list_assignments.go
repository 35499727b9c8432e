package query

import (
	"context"
	"fmt"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// ListAssignmentsQuery represents the query to list a distributor's retailer assignments
type ListAssignmentsQuery struct {
	DistributorID string
	SKU           string
}

// ListAssignmentsHandler handles list assignments query
type ListAssignmentsHandler struct {
	repo domain.LedgerRepository
}

// NewListAssignmentsHandler creates a new list assignments handler
func NewListAssignmentsHandler(repo domain.LedgerRepository) *ListAssignmentsHandler {
	return &ListAssignmentsHandler{repo: repo}
}

// Handle executes the list assignments query
func (h *ListAssignmentsHandler) Handle(ctx context.Context, q ListAssignmentsQuery) ([]domain.RetailerAssignment, error) {
	if _, err := h.repo.FindDealer(ctx, q.DistributorID); err != nil {
		return nil, err
	}

	assignments, err := h.repo.ListAssignments(ctx, q.DistributorID, q.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	if assignments == nil {
		assignments = []domain.RetailerAssignment{}
	}
	return assignments, nil
}
