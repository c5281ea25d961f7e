// backend-go/internal/api/handlers/store_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/service"
)

type StoreHandler struct {
	storeService *service.StoreService
}

func NewStoreHandler(storeService *service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

func (h *StoreHandler) parseFilter(c *gin.Context) *domain.StoreFilter {
	filter := &domain.StoreFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = search
	}
	filter.ActiveOnly = c.Query("active_only") == "true"

	// areas arrive as repeated params or one comma-separated string
	rawAreas := c.QueryArray("area")
	if len(rawAreas) == 0 {
		if single := strings.TrimSpace(c.Query("areas")); single != "" {
			rawAreas = strings.Split(single, ",")
		}
	}
	for _, area := range rawAreas {
		if area = strings.TrimSpace(area); area != "" {
			filter.Areas = append(filter.Areas, area)
		}
	}

	if ids := strings.TrimSpace(c.Query("store_ids")); ids != "" {
		for _, part := range strings.Split(ids, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				filter.StoreIDs = append(filter.StoreIDs, id)
			}
		}
	}

	if sortBy := strings.TrimSpace(c.Query("sort_by")); sortBy != "" {
		filter.SortBy = strings.ToLower(sortBy)
	}
	sortDir := strings.ToLower(strings.TrimSpace(c.Query("sort_dir")))
	if sortDir != "desc" {
		sortDir = "asc"
	}
	filter.SortDir = sortDir

	return filter
}

// GetStores returns the paginated store directory
func (h *StoreHandler) GetStores(c *gin.Context) {
	filter := h.parseFilter(c)
	stores, err := h.storeService.GetStores(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stores", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stores)
}

// GetStore returns a single store by id
func (h *StoreHandler) GetStore(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	store, err := h.storeService.GetStore(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch store", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, store)
}

// GetAreas returns the distinct area names
func (h *StoreHandler) GetAreas(c *gin.Context) {
	areas, err := h.storeService.GetAreas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch areas", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

// GetStoreSeries returns a store's monthly actuals, budget and moving annual total
func (h *StoreHandler) GetStoreSeries(c *gin.Context) {
	id, ok := parseStoreID(c)
	if !ok {
		return
	}

	series, err := h.storeService.GetStoreSeries(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch store series", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, series)
}

// parseStoreID reads the :id path param and writes the 400 itself when the
// value is not a positive integer.
func parseStoreID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store id"})
		return 0, false
	}
	return id, true
}
