// backend-go/cmd/sync/main.go
package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/config"
	"github.com/glowmart/storesight/backend-go/internal/drive"
	"github.com/glowmart/storesight/backend-go/internal/ingest"
	"github.com/glowmart/storesight/backend-go/internal/repository"
	"github.com/glowmart/storesight/backend-go/internal/repository/postgres"
	"github.com/glowmart/storesight/backend-go/pkg/logger"
)

// The sync binary serves the data-ops surface: browse the Drive export
// folders, pull single files, or run a full sales and budget sync.
func main() {
	cfg := config.Load()
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
	}

	driveService, err := drive.NewService(context.Background(), cfg.Drive.CredentialsJSON)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	processor := ingest.NewProcessor(db.DB.DB)
	ingestRepo := repository.NewIngestRepository(db.DB.DB)
	syncService := drive.NewSyncService(driveService, processor, ingestRepo, cfg.Drive)

	r := mux.NewRouter()
	drive.NewHandler(driveService, syncService).RegisterRoutes(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := ":" + cfg.Server.SyncPort
	log.Info().Str("addr", addr).Msg("starting sync server")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("sync server stopped")
	}
}
