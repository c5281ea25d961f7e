// backend-go/internal/service/export_service.go
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/repository"
	"github.com/glowmart/storesight/backend-go/internal/storage"
)

// ExportService publishes fit snapshots to object storage so downstream
// consumers can pull them without a database connection.
type ExportService struct {
	models    repository.ModelRepository
	analytics *AnalyticsService
	objects   storage.ObjectStorage
}

func NewExportService(models repository.ModelRepository, analytics *AnalyticsService, objects storage.ObjectStorage) *ExportService {
	return &ExportService{
		models:    models,
		analytics: analytics,
		objects:   objects,
	}
}

// ExportResult lists what one snapshot run uploaded.
type ExportResult struct {
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
	Models int      `json:"models"`
	Stores int      `json:"stores"`
}

// ExportSnapshot uploads the fitted models as JSON and every store's
// fiscal-year landing as CSV under one timestamped prefix. Year zero means
// the running fiscal year.
func (s *ExportService) ExportSnapshot(ctx context.Context, year int) (*ExportResult, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.analytics.fiscalStart)
	}

	models, err := s.models.GetModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}

	landings, err := s.analytics.storeLandings(ctx, year)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("snapshots/%s", time.Now().UTC().Format("20060102T150405Z"))

	modelsJSON, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal models: %w", err)
	}
	modelsKey := prefix + "/models.json"
	if err := s.objects.UploadObject(ctx, modelsKey, modelsJSON, "application/json"); err != nil {
		return nil, err
	}

	landingsCSV, err := landingsToCSV(year, landings)
	if err != nil {
		return nil, err
	}
	landingsKey := prefix + "/landings.csv"
	if err := s.objects.UploadObject(ctx, landingsKey, landingsCSV, "text/csv"); err != nil {
		return nil, err
	}

	log.Info().Str("prefix", prefix).Int("models", len(models)).Int("stores", len(landings)).
		Msg("export service: snapshot uploaded")
	return &ExportResult{
		Prefix: prefix,
		Keys:   []string{modelsKey, landingsKey},
		Models: len(models),
		Stores: len(landings),
	}, nil
}

func landingsToCSV(year int, landings []storeLanding) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"store_id", "store", "area", "active", "fiscal_year",
		"cumulative_actual", "cumulative_budget", "total_budget",
		"landing", "landing_diff", "landing_achievement",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, sl := range landings {
		row := []string{
			strconv.FormatInt(sl.meta.StoreID, 10),
			sl.meta.Name,
			sl.meta.Area,
			strconv.FormatBool(sl.meta.Active),
			strconv.Itoa(year),
			formatAmount(sl.summary.CumulativeActual),
			formatAmount(sl.summary.CumulativeBudget),
			formatAmount(sl.summary.TotalBudget),
			formatAmount(sl.summary.Landing),
			formatAmount(sl.summary.LandingDiff),
			strconv.FormatFloat(sl.summary.LandingAchievement, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
