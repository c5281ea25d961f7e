// backend-go/cmd/ingest/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/ingest"
	"github.com/glowmart/storesight/backend-go/internal/repository"
	"github.com/glowmart/storesight/backend-go/internal/repository/postgres"
	_ "github.com/glowmart/storesight/backend-go/pkg/logger"
)

// The ingest binary loads local CSV exports into Postgres: a directory with
// stores/, sales/ and budgets/ subfolders, or a single file.
func main() {
	dbURL := flag.String("db-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	dataDir := flag.String("data-dir", "./data/seeds", "directory containing stores/, sales/ and budgets/ CSV files")
	filePath := flag.String("file", "", "load a single CSV instead of walking the directory")
	sweepMonths := flag.Int("sweep-months", 3, "flag stores with no sales in this many trailing months inactive (0 disables)")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal().Msg("database URL is required (-db-url flag or DATABASE_URL)")
	}

	db, err := sql.Open("pgx", *dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	processor := ingest.NewProcessor(db)
	start := time.Now()

	if *filePath != "" {
		if err := processor.ProcessFile(ctx, *filePath); err != nil {
			log.Fatal().Err(err).Str("file", *filePath).Msg("load failed")
		}
		log.Info().Str("file", *filePath).Dur("took", time.Since(start)).Msg("file loaded")
	} else {
		loaded, err := processor.ProcessDir(ctx, *dataDir)
		if err != nil {
			log.Fatal().Err(err).Int("loaded", loaded).Msg("load failed")
		}
		log.Info().Int("files", loaded).Dur("took", time.Since(start)).Msg("directory loaded")
	}

	if *sweepMonths > 0 {
		cutoff := time.Now().UTC().AddDate(0, -*sweepMonths, 0)
		n, err := repository.NewIngestRepository(db).MarkInactiveSince(ctx, cutoff)
		if err != nil {
			log.Warn().Err(err).Msg("failed to sweep inactive stores")
		} else if n > 0 {
			log.Info().Int64("stores", n).Msg("flagged inactive stores")
		}
	}
}
