package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tair/liquidation-ledger/internal/cache"
	"github.com/tair/liquidation-ledger/internal/config"
	"github.com/tair/liquidation-ledger/internal/liquidation"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/query"
	"github.com/tair/liquidation-ledger/pkg/auth"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

type ctxKey string

const (
	serviceKey ctxKey = "service"
	cleanupKey ctxKey = "cleanup"
)

func storageFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "storage",
		Usage:   "Ledger store: postgres or memory",
		EnvVars: []string{"STORAGE_DRIVER"},
	}
}

func main() {
	cfg := config.Load()
	logger.Init("liquidationctl", true)
	logger.SetLevel(cfg.Server.LogLevel)

	app := &cli.App{
		Name:  "liquidationctl",
		Usage: "Operate the liquidation ledger",
		Flags: []cli.Flag{
			storageFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Onboard dealers and open entries from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Seed file with dealers and entries",
						Required: true,
						EnvVars:  []string{"SEED_FILE"},
					},
				},
				Before: initService(cfg),
				After:  closeService,
				Action: runSeed,
			},
			{
				Name:  "sweep",
				Usage: "Recompute every entry and report invariant violations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Entries checked in parallel",
						Value: 8,
					},
				},
				Before: initService(cfg),
				After:  closeService,
				Action: runSweep,
			},
			{
				Name:   "overall",
				Usage:  "Print portfolio metrics",
				Before: initService(cfg),
				After:  closeService,
				Action: runOverall,
			},
			{
				Name:  "token",
				Usage: "Issue an API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "User ID"},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "role", Value: string(auth.RoleViewer), Usage: "admin, field or viewer"},
				},
				Action: func(c *cli.Context) error {
					issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
					token, err := issuer.GenerateToken(c.String("user"), c.String("name"), auth.Role(c.String("role")))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func initService(cfg *config.Config) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if storage := c.String("storage"); storage != "" {
			cfg.Storage.Driver = storage
		}

		repo, cleanup, err := liquidation.OpenRepository(cfg)
		if err != nil {
			return err
		}

		metricsCache, err := cache.NewMetricsCache(cfg.Cache)
		if err != nil {
			cleanup()
			return err
		}

		issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		svc, err := liquidation.InitializeService(repo, ledger.NoopPublisher{}, metricsCache, issuer, nil)
		if err != nil {
			cleanup()
			return err
		}

		c.Context = context.WithValue(c.Context, serviceKey, svc)
		c.Context = context.WithValue(c.Context, cleanupKey, cleanup)
		return nil
	}
}

func closeService(c *cli.Context) error {
	if cleanup, ok := c.Context.Value(cleanupKey).(func()); ok && cleanup != nil {
		cleanup()
	}
	return nil
}

func service(c *cli.Context) *liquidation.Service {
	svc, _ := c.Context.Value(serviceKey).(*liquidation.Service)
	return svc
}

func runSeed(c *cli.Context) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	summary, err := seed(c.Context, service(c), f)
	if err != nil {
		return err
	}

	logger.Logger.Info().
		Int("dealers_created", summary.DealersCreated).
		Int("dealers_skipped", summary.DealersSkipped).
		Int("entries_created", summary.EntriesCreated).
		Int("entries_skipped", summary.EntriesSkipped).
		Dur("duration", time.Since(start)).
		Msg("Seed completed")
	return nil
}

func runSweep(c *cli.Context) error {
	report, err := service(c).Sweep.Handle(c.Context, query.SweepQuery{Concurrency: c.Int("concurrency")})
	if err != nil {
		return err
	}

	if err := printJSON(c, report); err != nil {
		return err
	}
	if len(report.Violations) > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d entries violate invariants", len(report.Violations), report.Checked), 2)
	}
	return nil
}

func runOverall(c *cli.Context) error {
	metrics, err := service(c).Queries.GetOverallMetrics.Handle(c.Context, query.GetOverallMetricsQuery{})
	if err != nil {
		return err
	}
	return printJSON(c, metrics)
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
