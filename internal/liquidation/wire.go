//go:build wireinject
// +build wireinject

package liquidation

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
	"github.com/tair/liquidation-ledger/pkg/auth"
)

// InitializeService initializes the liquidation module with all dependencies
func InitializeService(repo domain.LedgerRepository, publisher ledger.Publisher, metricsCache cache.MetricsCache, issuer *auth.Issuer, reg prometheus.Registerer) (*Service, error) {
	wire.Build(AllHandlersSet)
	return nil, nil
}
