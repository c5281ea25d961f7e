// backend-go/internal/api/handlers/analytics_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glowmart/storesight/backend-go/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetOverview returns the chain header with per-area breakdown
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	overview, err := h.analyticsService.GetOverview(c.Request.Context(), parseFiscalYear(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch overview", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetConcentration returns the ABC classification and concentration scores
func (h *AnalyticsHandler) GetConcentration(c *gin.Context) {
	topN := parseNonNegativeInt(c.Query("top_n"))

	summary, err := h.analyticsService.GetConcentration(c.Request.Context(), parseFiscalYear(c), topN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch concentration", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetSimilarity returns pattern similarity, optionally anchored on one store
func (h *AnalyticsHandler) GetSimilarity(c *gin.Context) {
	var anchorID int64
	if raw := strings.TrimSpace(c.Query("store_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store_id"})
			return
		}
		anchorID = id
	}
	limit := parseNonNegativeInt(c.Query("limit"))

	resp, err := h.analyticsService.GetSimilarity(c.Request.Context(), parseFiscalYear(c), anchorID, limit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch similarity", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBridge returns the year-over-year waterfall
func (h *AnalyticsHandler) GetBridge(c *gin.Context) {
	bridge, err := h.analyticsService.GetBridge(c.Request.Context(), parseFiscalYear(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch bridge", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bridge)
}

// GetDecomposition returns the trend/seasonal/residual split for a store
func (h *AnalyticsHandler) GetDecomposition(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	resp, err := h.analyticsService.GetDecomposition(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch decomposition", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
