package query

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

// EstimateQuery asks how a new portfolio total would fall across distributors
type EstimateQuery struct {
	Field  domain.EstimateField
	Target domain.Quantity
}

// EstimateHandler handles proportional estimate query. It only reads.
type EstimateHandler struct {
	repo domain.LedgerRepository
}

// NewEstimateHandler creates a new estimate handler
func NewEstimateHandler(repo domain.LedgerRepository) *EstimateHandler {
	return &EstimateHandler{repo: repo}
}

// Handle executes the estimate query
func (h *EstimateHandler) Handle(ctx context.Context, q EstimateQuery) (*domain.ProportionalEstimate, error) {
	aggregates, err := loadAllAggregates(ctx, h.repo)
	if err != nil {
		return nil, err
	}

	est, err := domain.EstimateProportionalCascade(q.Field, aggregates, q.Target)
	if err != nil {
		return nil, err
	}
	return &est, nil
}
