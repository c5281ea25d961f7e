// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/glowmart/storesight/backend-go/internal/api/handlers"
	"github.com/glowmart/storesight/backend-go/internal/api/middleware"
	"github.com/glowmart/storesight/backend-go/internal/service"
)

type Services struct {
	StoreService     *service.StoreService
	ForecastService  *service.ForecastService
	AnalyticsService *service.AnalyticsService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.StoreService != nil {
			storeHandler := handlers.NewStoreHandler(services.StoreService)
			storeGroup := apiGroup.Group("/stores")
			{
				storeGroup.GET("", storeHandler.GetStores)
				storeGroup.GET("/areas", storeHandler.GetAreas)
				storeGroup.GET("/:id", storeHandler.GetStore)
				storeGroup.GET("/:id/series", storeHandler.GetStoreSeries)
			}
		}

		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			forecastGroup := apiGroup.Group("/forecast")
			{
				forecastGroup.GET("/scenarios", forecastHandler.GetScenarios)
				forecastGroup.GET("/stores/:id", forecastHandler.GetForecast)
				forecastGroup.GET("/stores/:id/landing", forecastHandler.GetLanding)
				forecastGroup.GET("/stores/:id/simulation", forecastHandler.GetSimulation)
				forecastGroup.POST("/stores/:id/scenario", forecastHandler.RunScenario)
			}
		}

		if services.AnalyticsService != nil {
			analyticsHandler := handlers.NewAnalyticsHandler(services.AnalyticsService)
			analyticsGroup := apiGroup.Group("/analytics")
			{
				analyticsGroup.GET("/overview", analyticsHandler.GetOverview)
				analyticsGroup.GET("/concentration", analyticsHandler.GetConcentration)
				analyticsGroup.GET("/similarity", analyticsHandler.GetSimilarity)
				analyticsGroup.GET("/bridge", analyticsHandler.GetBridge)
				analyticsGroup.GET("/decomposition/stores/:id", analyticsHandler.GetDecomposition)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
