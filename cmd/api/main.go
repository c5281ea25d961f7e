// backend-go/cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/api"
	"github.com/glowmart/storesight/backend-go/internal/cache"
	"github.com/glowmart/storesight/backend-go/internal/config"
	"github.com/glowmart/storesight/backend-go/internal/pipeline"
	"github.com/glowmart/storesight/backend-go/internal/pipeline/modelfit"
	"github.com/glowmart/storesight/backend-go/internal/repository/postgres"
	"github.com/glowmart/storesight/backend-go/internal/scheduler"
	"github.com/glowmart/storesight/backend-go/internal/service"
	"github.com/glowmart/storesight/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, running without")
		forecastCache = cache.NewNoopForecastCache()
	}
	analyticsCache, err := cache.NewAnalyticsCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("analytics cache unavailable, running without")
		analyticsCache = cache.NewNoopAnalyticsCache()
	}

	storeRepo := postgres.NewStoreRepository(db)
	modelRepo := postgres.NewModelRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	storeService := service.NewStoreService(storeRepo)
	forecastService := service.NewForecastService(storeRepo, modelRepo, analyticsRepo, forecastCache, service.ForecastOptions{
		FiscalStart: cfg.App.FiscalStart,
		Trials:      cfg.Fit.SimTrials,
	})
	analyticsService := service.NewAnalyticsService(storeRepo, modelRepo, analyticsRepo, analyticsCache, cfg.App.FiscalStart)

	router := api.NewRouter(&api.Services{
		StoreService:     storeService,
		ForecastService:  forecastService,
		AnalyticsService: analyticsService,
	}, cfg.Server.AllowedOrigins)

	sched := scheduler.New(cfg.Scheduler, refitFunc(cfg, db, forecastService, analyticsService))
	if err := sched.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// refitFunc builds the scheduled re-fit: run the batch fitter, then drop the
// caches so the next dashboard request sees the new models.
func refitFunc(cfg *config.Config, db *postgres.DB, forecasts *service.ForecastService, analytics *service.AnalyticsService) scheduler.RefitFunc {
	fitCfg := pipeline.DefaultConfig()
	if cfg.Fit.Workers > 0 {
		fitCfg.WorkerCount = cfg.Fit.Workers
	}
	if cfg.Fit.MinHistoryMonths > 0 {
		fitCfg.MinHistoryMonths = cfg.Fit.MinHistoryMonths
	}

	fitter := modelfit.New(modelfit.Options{
		MinMonths:  fitCfg.MinHistoryMonths,
		NudgeDecay: cfg.Fit.NudgeDecay,
	})

	return func(ctx context.Context) error {
		orch := pipeline.NewOrchestrator(db.DB.DB, fitCfg)
		orch.OnComplete(func(ctx context.Context) {
			if err := forecasts.InvalidateCache(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to invalidate forecast cache")
			}
			if err := analytics.InvalidateCache(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to invalidate analytics cache")
			}
		})

		_, err := orch.Run(ctx, fitter, pipeline.TriggerScheduled)
		return err
	}
}
