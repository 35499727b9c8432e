package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/config"
	"github.com/tair/liquidation-ledger/internal/liquidation"
	httpDelivery "github.com/tair/liquidation-ledger/internal/liquidation/delivery/http"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
	"github.com/tair/liquidation-ledger/kafka"
	"github.com/tair/liquidation-ledger/pkg/auth"
	"github.com/tair/liquidation-ledger/pkg/circuitbreaker"
	"github.com/tair/liquidation-ledger/pkg/health"
	"github.com/tair/liquidation-ledger/pkg/logger"
	"github.com/tair/liquidation-ledger/pkg/ratelimit"
	"github.com/tair/liquidation-ledger/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	logger.Init(cfg.Server.ServiceName, cfg.Server.IsDevelopment())
	logger.SetLevel(cfg.Server.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.Server.ServiceName).
		Str("environment", cfg.Server.Environment).
		Str("log_level", cfg.Server.LogLevel).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting liquidation service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := initTracing(cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	repo, closeRepo, err := liquidation.OpenRepository(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer closeRepo()

	var redisClient *redis.Client
	metricsCache := cache.NewNoopMetricsCache()
	if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = cache.NewRedisClient(pingCtx, cfg.Cache)
		cancel()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		if cfg.Cache.Enabled {
			metricsCache = cache.NewRedisMetricsCache(redisClient, cfg.Cache.TTL)
		}
	}

	readiness := health.NewChecker(cfg.Server.ServiceName, 3*time.Second)
	readiness.Register("ledger_store", true, func(ctx context.Context) error {
		_, err := repo.FindDealer(ctx, "__readiness__")
		if err == nil || domain.IsNotFound(err) {
			return nil
		}
		return err
	})
	if redisClient != nil {
		readiness.Register("redis", false, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var publisher ledger.Publisher = ledger.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer kafkaPublisher.Close()

		breaker := circuitbreaker.New("kafka-publisher", cfg.Kafka.BreakerMaxFailures, cfg.Kafka.BreakerCooldown)
		publisher = kafka.NewGuardedPublisher(kafkaPublisher, breaker)
		readiness.Register("kafka_publisher", false, func(context.Context) error {
			if breaker.State() == circuitbreaker.StateOpen {
				return circuitbreaker.ErrOpen
			}
			return nil
		})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize the module with Wire DI
	svc, err := liquidation.InitializeService(repo, publisher, metricsCache, issuer, registry)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize liquidation service")
	}

	if cfg.RateLimit.Enabled {
		svc.HTTP.UseRateLimiter(ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
		logger.Logger.Info().
			Int("max_requests", cfg.RateLimit.MaxRequests).
			Dur("window", cfg.RateLimit.Window).
			Msg("Rate limiting enabled for field routes")
	}

	g, gctx := errgroup.WithContext(ctx)

	server := newHTTPServer(cfg, svc.HTTP, readiness, registry)
	g.Go(func() error {
		logger.Logger.Info().
			Str("port", cfg.Server.Port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.SalesTopic})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		consumer.RegisterHandler(kafka.EventTypeRetailerFarmerSale, kafka.RetailerSaleHandler(svc.RetailerSales))

		g.Go(func() error {
			return consumer.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			return consumer.Close()
		})
	}

	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("Service stopped with error")
		return
	}

	logger.Logger.Info().Msg("Server exited")
}

func initTracing(cfg *config.Config) trace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return tracing.InitNoop()
	}

	tp, err := tracing.InitTracer(cfg.Server.ServiceName, version, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		return tracing.InitNoop()
	}
	logger.Logger.Info().Msg("Tracer initialized successfully")
	return tp
}

func newHTTPServer(cfg *config.Config, handler *httpDelivery.LedgerHandler, readiness *health.Checker, registry *prometheus.Registry) *http.Server {
	router := mux.NewRouter()

	middlewareConfig := httpDelivery.DefaultMiddlewareConfig(cfg.Server.AllowedOrigins, cfg.Server.RequestTimeout)
	middlewareConfig.OperationName = cfg.Server.ServiceName + "-http-request"
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	handler.RegisterRoutes(router)
	httpDelivery.RegisterReadiness(router, readiness)
	httpDelivery.RegisterSwaggerDocs(router, nil)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpDelivery.SetupCORS(middlewareConfig)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
