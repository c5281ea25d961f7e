// backend-go/cmd/fit/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/glowmart/storesight/backend-go/internal/config"
	"github.com/glowmart/storesight/backend-go/internal/drive"
	"github.com/glowmart/storesight/backend-go/internal/ingest"
	"github.com/glowmart/storesight/backend-go/internal/pipeline"
	"github.com/glowmart/storesight/backend-go/internal/pipeline/modelfit"
	"github.com/glowmart/storesight/backend-go/internal/repository"
	"github.com/glowmart/storesight/backend-go/internal/repository/postgres"
	"github.com/glowmart/storesight/backend-go/internal/service"
	"github.com/glowmart/storesight/backend-go/internal/storage"
	_ "github.com/glowmart/storesight/backend-go/pkg/logger"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Postgres connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// initDB opens the pool and makes sure the schema exists, so every command
// can assume its tables.
func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sql.DB {
	db, _ := c.Context.Value(dbKey).(*sql.DB)
	return db
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "fit",
		Usage: "Batch-fit store growth models and export snapshots",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fit every active store and persist the models",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "fit worker count (0 = one per CPU)",
						EnvVars: []string{"FIT_WORKERS"},
					},
					&cli.IntFlag{
						Name:    "min-months",
						Usage:   "shortest history a store needs to be fitted",
						Value:   12,
						EnvVars: []string{"FIT_MIN_HISTORY_MONTHS"},
					},
					&cli.Float64Flag{
						Name:    "nudge-decay",
						Usage:   "per-month decay of the last-residual correction",
						Value:   0.7,
						EnvVars: []string{"FIT_NUDGE_DECAY"},
					},
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "download the Drive export folders before fitting",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runFit,
			},
			{
				Name:  "export",
				Usage: "Upload the fitted-model snapshot and landing summary to object storage",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "year",
						Usage: "fiscal year to summarize (0 = current)",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runExport,
			},
			{
				Name:  "seed",
				Usage: "Generate demo stores, sales history and budgets",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "stores",
						Usage: "number of demo stores",
						Value: 12,
					},
					&cli.IntFlag{
						Name:  "months",
						Usage: "months of history per store",
						Value: 36,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "random seed for reproducible demo data",
						Value: 42,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSeed,
			},
			{
				Name:   "migrate",
				Usage:  "Create any missing tables and indexes",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					log.Info().Msg("schema is up to date")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("fit command failed")
	}
}

func runFit(c *cli.Context) error {
	db := dbFrom(c)

	if c.Bool("sync") {
		cfg := config.Load()
		driveService, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
		if err != nil {
			return fmt.Errorf("failed to initialize drive service: %w", err)
		}
		syncService := drive.NewSyncService(driveService, ingest.NewProcessor(db),
			repository.NewIngestRepository(db), cfg.Drive)
		if _, err := syncService.SyncAll(c.Context); err != nil {
			return fmt.Errorf("drive sync failed: %w", err)
		}
	}

	fitCfg := pipeline.DefaultConfig()
	if c.Int("workers") > 0 {
		fitCfg.WorkerCount = c.Int("workers")
	}
	if c.Int("min-months") > 0 {
		fitCfg.MinHistoryMonths = c.Int("min-months")
	}

	fitter := modelfit.New(modelfit.Options{
		MinMonths:  fitCfg.MinHistoryMonths,
		NudgeDecay: c.Float64("nudge-decay"),
	})

	run, err := pipeline.NewOrchestrator(db, fitCfg).Run(c.Context, fitter, pipeline.TriggerManual)
	if err != nil {
		return fmt.Errorf("fit run failed: %w", err)
	}

	log.Info().Int64("run_id", run.ID).Int("fitted", run.FittedStores).
		Int("skipped", run.SkippedStores).Int("failed", run.FailedStores).
		Msg("fit run completed")
	if run.FailedStores > 0 {
		log.Warn().Int("failed", run.FailedStores).Msg("some stores did not fit, see fit_jobs")
	}
	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()

	objects, err := storage.NewClient(c.Context, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to object storage: %w", err)
	}

	pdb := postgres.Wrap(dbFrom(c), "pgx")
	storeRepo := postgres.NewStoreRepository(pdb)
	modelRepo := postgres.NewModelRepository(pdb)
	analyticsRepo := postgres.NewAnalyticsRepository(pdb)

	analyticsService := service.NewAnalyticsService(storeRepo, modelRepo, analyticsRepo, nil, cfg.App.FiscalStart)
	exporter := service.NewExportService(modelRepo, analyticsService, objects)

	result, err := exporter.ExportSnapshot(c.Context, c.Int("year"))
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	log.Info().Str("prefix", result.Prefix).Strs("keys", result.Keys).Msg("snapshot exported")
	return nil
}
