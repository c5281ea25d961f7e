// backend-go/internal/service/forecast_service.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/cache"
	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

// ErrModelNotFound reports a store that has no fitted model yet.
var ErrModelNotFound = errors.New("store has no fitted model")

const (
	defaultHorizon = 12
	maxHorizon     = 36
)

// ForecastOptions carries the deployment knobs for the forecast endpoints.
type ForecastOptions struct {
	FiscalStart int
	Trials      int
}

// ForecastService answers per-store projection, landing, simulation and
// scenario requests.
type ForecastService struct {
	stores    repository.StoreRepository
	models    repository.ModelRepository
	analytics repository.AnalyticsRepository
	cache     cache.ForecastCache
	opts      ForecastOptions
}

func NewForecastService(
	stores repository.StoreRepository,
	models repository.ModelRepository,
	analytics repository.AnalyticsRepository,
	forecastCache cache.ForecastCache,
	opts ForecastOptions,
) *ForecastService {
	if forecastCache == nil {
		forecastCache = cache.NewNoopForecastCache()
	}
	if opts.FiscalStart < 1 || opts.FiscalStart > 12 {
		opts.FiscalStart = 1
	}
	if opts.Trials <= 0 {
		opts.Trials = forecast.DefaultTrials
	}

	return &ForecastService{
		stores:    stores,
		models:    models,
		analytics: analytics,
		cache:     forecastCache,
		opts:      opts,
	}
}

// GetForecast projects a store's fitted curve horizon months past the end of
// its sample.
func (s *ForecastService) GetForecast(ctx context.Context, storeID int64, horizon int) (*domain.ForecastResponse, error) {
	if horizon <= 0 {
		horizon = defaultHorizon
	}
	if horizon > maxHorizon {
		horizon = maxHorizon
	}

	if resp, ok, err := s.cache.GetForecast(ctx, storeID, horizon); err == nil && ok {
		return resp, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast service: cache get forecast failed")
	}

	store, model, err := s.loadFitted(ctx, storeID)
	if err != nil {
		return nil, err
	}

	fm := model.ForecastModel()
	origin := model.SeriesStart.AddDate(0, model.SampleMonths, 0)
	points := forecast.Project(fm, model.NextIndex(), int(origin.Month())-1, horizon)

	resp := &domain.ForecastResponse{
		StoreID:     store.ID,
		StoreName:   store.Name,
		Mode:        fm.Mode.String(),
		Horizon:     horizon,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Points:      make([]domain.ForecastPoint, 0, len(points)),
	}
	for i, p := range points {
		resp.Points = append(resp.Points, domain.ForecastPoint{
			Date:           origin.AddDate(0, i, 0).Format(monthKeyLayout),
			BaseValue:      p.Base,
			SeasonalFactor: p.SeasonalFactor,
			Nudge:          p.Nudge,
			Total:          p.Total,
		})
	}

	if err := s.cache.SetForecast(ctx, storeID, horizon, resp); err != nil {
		log.Warn().Err(err).Msg("forecast service: cache set forecast failed")
	}

	return resp, nil
}

// GetLanding projects where a store lands at fiscal year end. Stores without
// a fitted model fall back to budget for the open months instead of failing.
func (s *ForecastService) GetLanding(ctx context.Context, storeID int64, year int) (*domain.LandingResponse, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.opts.FiscalStart)
	}

	if resp, ok, err := s.cache.GetLanding(ctx, storeID, year); err == nil && ok {
		return resp, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast service: cache get landing failed")
	}

	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	model, err := s.models.GetModel(ctx, storeID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := s.fiscalRows(ctx, storeID, year)
	if err != nil {
		return nil, err
	}

	summary, closed, remaining := assembleLanding(storeYear{rows: rows, model: model, active: store.Active})

	resp := &domain.LandingResponse{
		StoreID:         store.ID,
		StoreName:       store.Name,
		FiscalYear:      year,
		ClosedMonths:    closed,
		RemainingMonths: remaining,
		LandingSummary:  summary,
	}

	if err := s.cache.SetLanding(ctx, storeID, year, resp); err != nil {
		log.Warn().Err(err).Msg("forecast service: cache set landing failed")
	}

	return resp, nil
}

// SimulationParams tunes one Monte-Carlo request.
type SimulationParams struct {
	FiscalYear     int
	VolatilityMult float64
	Trials         int
	Seed           int64
}

// GetSimulation runs Monte-Carlo trials over the store's open months and
// reports the landing distribution on the full-year scale. Responses are not
// cached: an unseeded run is supposed to differ between calls.
func (s *ForecastService) GetSimulation(ctx context.Context, storeID int64, params SimulationParams) (*domain.SimulationResponse, error) {
	year := params.FiscalYear
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.opts.FiscalStart)
	}

	store, model, err := s.loadFitted(ctx, storeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.fiscalRows(ctx, storeID, year)
	if err != nil {
		return nil, err
	}
	closedActual, closedBudget, remaining := splitYear(rows)

	months := make([]time.Time, 0, len(remaining))
	totalBudget := sumFloats(closedBudget)
	for _, row := range remaining {
		months = append(months, row.Month)
		totalBudget += row.Budget
	}

	cumActual := sumFloats(closedActual)
	pace := forecast.PaceFactor(cumActual, sumFloats(closedBudget))
	means := forecast.PaceRemaining(remainingForecast(model, months), pace)

	mult := params.VolatilityMult
	if mult <= 0 {
		mult = 1
	}
	trials := params.Trials
	if trials <= 0 {
		trials = s.opts.Trials
	}

	// trials race against the budget still open, then the whole distribution
	// is moved back onto the full-year scale
	target := totalBudget - cumActual
	sim := forecast.Simulate(means, forecast.SimOptions{
		Trials:     trials,
		Volatility: model.StdDev * mult,
		Target:     target,
		Seed:       params.Seed,
	})
	sim = sim.ShiftLanding(cumActual)
	if target <= 0 && totalBudget > 0 {
		sim.WinProbability = 1
	}

	resp := &domain.SimulationResponse{
		StoreID:          store.ID,
		StoreName:        store.Name,
		FiscalYear:       year,
		Months:           make([]string, 0, len(months)),
		Volatility:       model.StdDev * mult,
		Target:           totalBudget,
		SimulationResult: sim,
	}
	for _, m := range months {
		resp.Months = append(resp.Months, m.Format(monthKeyLayout))
	}

	return resp, nil
}

// RunScenario bends the store's fitted model by the requested dials and
// replays the open months under it.
func (s *ForecastService) RunScenario(ctx context.Context, storeID int64, year int, req domain.ScenarioRequest) (*domain.ScenarioResponse, error) {
	if year <= 0 {
		year = currentFiscalYear(time.Now().UTC(), s.opts.FiscalStart)
	}

	store, model, err := s.loadFitted(ctx, storeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.fiscalRows(ctx, storeID, year)
	if err != nil {
		return nil, err
	}
	closedActual, closedBudget, remaining := splitYear(rows)

	scen := resolveScenario(req)
	fm := scen.Apply(model.ForecastModel())

	months := make([]time.Time, 0, len(remaining))
	remainingBudget := make([]float64, 0, len(remaining))
	for _, row := range remaining {
		months = append(months, row.Month)
		remainingBudget = append(remainingBudget, row.Budget)
	}

	curve := curvePoints(fm, model.SeriesStart, model.SampleMonths, months)
	naive := make([]float64, len(curve))
	points := make([]domain.ForecastPoint, 0, len(curve))
	for i, p := range curve {
		naive[i] = p.Total
		points = append(points, domain.ForecastPoint{
			Date:           months[i].Format(monthKeyLayout),
			BaseValue:      p.Base,
			SeasonalFactor: p.SeasonalFactor,
			Nudge:          p.Nudge,
			Total:          p.Total,
		})
	}

	cumActual := sumFloats(closedActual)
	cumBudget := sumFloats(closedBudget)
	paced := forecast.PaceRemaining(naive, forecast.PaceFactor(cumActual, cumBudget))

	landing := forecast.Land(forecast.LandingInput{
		ClosedActual:      closedActual,
		ClosedBudget:      closedBudget,
		RemainingForecast: paced,
		RemainingBudget:   remainingBudget,
	})

	trials := req.Trials
	if trials <= 0 {
		trials = s.opts.Trials
	}
	target := landing.TotalBudget - cumActual
	sim := forecast.Simulate(paced, forecast.SimOptions{
		Trials:     trials,
		Volatility: scen.ScaledVolatility(model.StdDev),
		Target:     target,
		Seed:       req.Seed,
	})
	sim = sim.ShiftLanding(cumActual)
	if target <= 0 && landing.TotalBudget > 0 {
		sim.WinProbability = 1
	}

	return &domain.ScenarioResponse{
		StoreID:    store.ID,
		StoreName:  store.Name,
		Scenario:   scen.Name,
		FiscalYear: year,
		Points:     points,
		Landing:    landing,
		Simulation: sim,
	}, nil
}

// InvalidateCache drops the cached projections, called after an ingest or a
// refit lands new data.
func (s *ForecastService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// loadFitted resolves a store together with its fitted model, translating a
// missing model row into ErrModelNotFound.
func (s *ForecastService) loadFitted(ctx context.Context, storeID int64) (*domain.Store, *domain.StoreModel, error) {
	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}

	model, err := s.models.GetModel(ctx, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: store %d", ErrModelNotFound, storeID)
	}
	if err != nil {
		return nil, nil, err
	}

	return store, model, nil
}

func (s *ForecastService) fiscalRows(ctx context.Context, storeID int64, year int) ([]repository.MonthlyRow, error) {
	from, to := fiscalWindow(year, s.opts.FiscalStart)

	rows, err := s.analytics.GetStoreMonthlyRows(ctx, storeID, from, to)
	if err != nil {
		log.Error().Err(err).Int64("store_id", storeID).Int("fiscal_year", year).Msg("forecast service: load fiscal rows failed")
		return nil, fmt.Errorf("failed to load fiscal year rows: %w", err)
	}
	return rows, nil
}

// resolveScenario maps a request onto a scenario: a named preset when no
// dials are set, otherwise the dials as sent.
func resolveScenario(req domain.ScenarioRequest) forecast.Scenario {
	custom := req.GrowthMult > 0 || req.PotentialMult > 0 || req.SeasonalAmplitude > 0 || req.VolatilityMult > 0
	if !custom {
		for _, preset := range forecast.DefaultScenarios() {
			if preset.Name == req.Name {
				return preset
			}
		}
		return forecast.Scenario{Name: "base"}
	}

	name := req.Name
	if name == "" {
		name = "custom"
	}
	return forecast.Scenario{
		Name:              name,
		GrowthMult:        req.GrowthMult,
		PotentialMult:     req.PotentialMult,
		SeasonalAmplitude: req.SeasonalAmplitude,
		VolatilityMult:    req.VolatilityMult,
	}
}
