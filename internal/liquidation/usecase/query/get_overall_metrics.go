package query

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// GetOverallMetricsQuery represents the query to get portfolio totals
type GetOverallMetricsQuery struct{}

// GetOverallMetricsHandler handles get overall metrics query
type GetOverallMetricsHandler struct {
	repo  domain.LedgerRepository
	cache cache.MetricsCache
}

// NewGetOverallMetricsHandler creates a new get overall metrics handler
func NewGetOverallMetricsHandler(repo domain.LedgerRepository, c cache.MetricsCache) *GetOverallMetricsHandler {
	return &GetOverallMetricsHandler{repo: repo, cache: c}
}

// Handle executes the get overall metrics query
func (h *GetOverallMetricsHandler) Handle(ctx context.Context, q GetOverallMetricsQuery) (*domain.OverallMetrics, error) {
	if cached, ok, err := h.cache.GetOverall(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Overall metrics cache read failed")
	} else if ok {
		return cached, nil
	}

	// taken before loading so a write landing mid-load voids the cache write
	gen, genErr := h.cache.Generation(ctx)
	if genErr != nil {
		logger.Warn(ctx).Err(genErr).Msg("Metrics cache generation read failed")
	}

	aggregates, err := loadAllAggregates(ctx, h.repo)
	if err != nil {
		return nil, err
	}
	metrics := domain.AggregateOverallMetrics(aggregates)

	if genErr == nil {
		if err := h.cache.SetOverall(ctx, &metrics, gen); err != nil {
			logger.Warn(ctx).Err(err).Msg("Overall metrics cache write failed")
		}
	}
	return &metrics, nil
}
