package liquidation

import (
	"fmt"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/config"
	httpDelivery "github.com/tair/liquidation-ledger/internal/liquidation/delivery/http"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
	"github.com/tair/liquidation-ledger/internal/liquidation/repository"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/command"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/query"
	"github.com/tair/liquidation-ledger/pkg/database"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// Service is everything the binaries need from the liquidation module.
type Service struct {
	Ledger        *ledger.Ledger
	HTTP          *httpDelivery.LedgerHandler
	Commands      httpDelivery.CommandHandlers
	Queries       httpDelivery.QueryHandlers
	RetailerSales *command.RecordRetailerSaleHandler
	Sweep         *query.SweepHandler
}

// OpenRepository selects the ledger store from configuration and wraps it
// with tracing. The returned cleanup closes the database pool, if any.
func OpenRepository(cfg *config.Config) (domain.LedgerRepository, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Logger.Warn().Msg("Using in-memory ledger store, state is lost on restart")
		return repository.NewTracingLedgerRepository(repository.NewMemoryLedgerRepository()), func() {}, nil

	case "postgres", "":
		db, err := database.NewGormConnection(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		cleanup := func() {
			if err := sqlDB.Close(); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to close database")
			}
		}

		gormRepo := repository.NewGormLedgerRepository(db)
		if err := gormRepo.AutoMigrate(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Logger.Info().Msg("Database initialized successfully")

		return repository.NewTracingLedgerRepository(gormRepo), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideLedgerMetrics provides the ledger's Prometheus collectors
func ProvideLedgerMetrics(reg prometheus.Registerer) *ledger.Metrics {
	return ledger.NewMetrics(reg)
}

// ProvideLedger provides the ledger with its side effects attached
func ProvideLedger(repo domain.LedgerRepository, publisher ledger.Publisher, metrics *ledger.Metrics, metricsCache cache.MetricsCache) *ledger.Ledger {
	return ledger.New(repo,
		ledger.WithPublisher(publisher),
		ledger.WithMetrics(metrics),
		ledger.WithCacheInvalidator(metricsCache),
	)
}

// Wire sets
var LedgerSet = wire.NewSet(
	ProvideLedgerMetrics,
	ProvideLedger,
)

var CommandHandlerSet = wire.NewSet(
	command.NewOnboardDealerHandler,
	command.NewDeactivateDealerHandler,
	command.NewOpenEntryHandler,
	command.NewSubmitStockCountHandler,
	command.NewClassifyHandler,
	command.NewAllocateRetailersHandler,
	command.NewRecordRetailerSaleHandler,
	command.NewRecordNetSalesHandler,
	command.NewCorrectOpeningStockHandler,
	command.NewRecordFarmerSaleHandler,
	wire.Struct(new(httpDelivery.CommandHandlers), "*"),
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetEntryHandler,
	query.NewListEntriesHandler,
	query.NewListDealersHandler,
	query.NewGetReconciliationHandler,
	query.NewListAssignmentsHandler,
	query.NewGetDistributorAggregateHandler,
	query.NewGetOverallMetricsHandler,
	query.NewValidateEntryHandler,
	query.NewEstimateHandler,
	query.NewSweepHandler,
	wire.Struct(new(httpDelivery.QueryHandlers), "*"),
)

var AllHandlersSet = wire.NewSet(
	LedgerSet,
	CommandHandlerSet,
	QueryHandlerSet,
	httpDelivery.NewLedgerHandler,
	wire.Struct(new(Service), "*"),
)
