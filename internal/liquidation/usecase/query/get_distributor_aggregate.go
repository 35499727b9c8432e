package query

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// GetDistributorAggregateQuery represents the query to get a distributor's totals
type GetDistributorAggregateQuery struct {
	DistributorID string
}

// GetDistributorAggregateHandler handles get distributor aggregate query
type GetDistributorAggregateHandler struct {
	repo  domain.LedgerRepository
	cache cache.MetricsCache
}

// NewGetDistributorAggregateHandler creates a new get distributor aggregate handler
func NewGetDistributorAggregateHandler(repo domain.LedgerRepository, c cache.MetricsCache) *GetDistributorAggregateHandler {
	return &GetDistributorAggregateHandler{repo: repo, cache: c}
}

// Handle executes the get distributor aggregate query
func (h *GetDistributorAggregateHandler) Handle(ctx context.Context, q GetDistributorAggregateQuery) (*domain.DistributorAggregate, error) {
	if cached, ok, err := h.cache.GetAggregate(ctx, q.DistributorID); err != nil {
		logger.Warn(ctx).Err(err).Msg("Distributor aggregate cache read failed")
	} else if ok {
		return cached, nil
	}

	gen, genErr := h.cache.Generation(ctx)
	if genErr != nil {
		logger.Warn(ctx).Err(genErr).Msg("Metrics cache generation read failed")
	}

	distributor, err := h.repo.FindDealer(ctx, q.DistributorID)
	if err != nil {
		return nil, err
	}
	if !distributor.IsDistributor() {
		return nil, domain.NewValidationError(domain.CodeInvalidDealer, "distributor_id", "dealer is not a distributor")
	}

	agg, err := loadDistributorAggregate(ctx, h.repo, *distributor)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := h.cache.SetAggregate(ctx, &agg, gen); err != nil {
			logger.Warn(ctx).Err(err).Msg("Distributor aggregate cache write failed")
		}
	}
	return &agg, nil
}
