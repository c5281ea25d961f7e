package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/service"
)

type ForecastHandler struct {
	forecastService *service.ForecastService
}

func NewForecastHandler(forecastService *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService}
}

// GetForecast returns the projected months for a store
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	horizon := parsePositiveIntWithDefault(c.Query("horizon"), 12)

	resp, err := h.forecastService.GetForecast(c.Request.Context(), id, horizon)
	if err != nil {
		writeForecastError(c, err, "failed to build forecast")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLanding returns the projected fiscal year-end outcome for a store
func (h *ForecastHandler) GetLanding(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	resp, err := h.forecastService.GetLanding(c.Request.Context(), id, parseFiscalYear(c))
	if err != nil {
		writeForecastError(c, err, "failed to build landing")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSimulation returns Monte-Carlo bands for a store's open months
func (h *ForecastHandler) GetSimulation(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	params := service.SimulationParams{
		FiscalYear: parseFiscalYear(c),
		Trials:     parseNonNegativeInt(c.Query("trials")),
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(c.Query("volatility_mult")), 64); err == nil && v > 0 {
		params.VolatilityMult = v
	}
	if seed, err := strconv.ParseInt(strings.TrimSpace(c.Query("seed")), 10, 64); err == nil {
		params.Seed = seed
	}

	resp, err := h.forecastService.GetSimulation(c.Request.Context(), id, params)
	if err != nil {
		writeForecastError(c, err, "failed to run simulation")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RunScenario applies what-if dials to a store's fitted model
func (h *ForecastHandler) RunScenario(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	var req domain.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scenario request", "details": err.Error()})
		return
	}

	resp, err := h.forecastService.RunScenario(c.Request.Context(), id, parseFiscalYear(c), req)
	if err != nil {
		writeForecastError(c, err, "failed to run scenario")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetScenarios returns the built-in scenario presets
func (h *ForecastHandler) GetScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": forecast.DefaultScenarios()})
}

func parseFiscalYear(c *gin.Context) int {
	if year, err := strconv.Atoi(strings.TrimSpace(c.Query("year"))); err == nil && year > 0 {
		return year
	}
	return 0
}

func writeForecastError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "store has no fitted model"})
	case errors.Is(err, sql.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
