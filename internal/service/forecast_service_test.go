// backend-go/internal/service/forecast_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

// flatModel fits a curve that evaluates to a constant: L is zero so only the
// base survives, which keeps the arithmetic in assertions exact.
func flatModel(storeID int64, base float64) *domain.StoreModel {
	return &domain.StoreModel{
		StoreID:      storeID,
		Mode:         "standard",
		K:            1,
		L:            0,
		Base:         base,
		T0Strategy:   "fixed",
		T0:           12,
		NudgeDecay:   0.7,
		StdDev:       25,
		SeriesStart:  month(2023, time.January),
		SampleMonths: 24,
	}
}

// fiscalYearRows books Jan..Mar 2025 (110, 95, 105 against 100 budget each)
// and leaves Apr..Dec open with 100 budget per month.
func fiscalYearRows(storeID int64) []repository.MonthlyRow {
	actuals := []float64{110, 95, 105}
	rows := make([]repository.MonthlyRow, 0, 12)
	for i := 0; i < 12; i++ {
		row := repository.MonthlyRow{
			StoreID: storeID,
			Month:   month(2025, time.Month(i+1)),
			Budget:  100,
		}
		if i < len(actuals) {
			row.Actual = actuals[i]
			row.HasActual = true
		}
		rows = append(rows, row)
	}
	return rows
}

func newForecastFixture() (*ForecastService, *fakeAnalyticsRepo) {
	stores := &fakeStoreRepo{stores: map[int64]*domain.Store{
		7: {ID: 7, Name: "Glowmart Surabaya", Area: "Jawa Timur", Active: true},
		8: {ID: 8, Name: "Glowmart Medan", Area: "Sumatera", Active: true},
		9: {ID: 9, Name: "Glowmart Kupang", Area: "Nusa Tenggara", Active: false},
	}}
	models := &fakeModelRepo{models: map[int64]*domain.StoreModel{
		7: flatModel(7, 200),
		9: flatModel(9, 200),
	}}
	analytics := &fakeAnalyticsRepo{}
	for _, id := range []int64{7, 8, 9} {
		analytics.rows = append(analytics.rows, fiscalYearRows(id)...)
	}

	svc := NewForecastService(stores, models, analytics, nil, ForecastOptions{FiscalStart: 1})
	return svc, analytics
}

func TestGetForecast_ProjectsPastSampleEnd(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.GetForecast(context.Background(), 7, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.StoreID)
	assert.Equal(t, "Glowmart Surabaya", resp.StoreName)
	assert.Equal(t, "standard", resp.Mode)
	assert.Equal(t, 12, resp.Horizon, "horizon defaults to a year")
	require.Len(t, resp.Points, 12)

	assert.Equal(t, "2025-01", resp.Points[0].Date, "first point follows the fitted sample")
	assert.Equal(t, "2025-12", resp.Points[11].Date)
	for _, p := range resp.Points {
		assert.InDelta(t, 200, p.Total, 1e-9, "flat curve projects its base")
		assert.InDelta(t, 1.0, p.SeasonalFactor, 1e-9)
	}
}

func TestGetForecast_ClampsHorizon(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.GetForecast(context.Background(), 7, 500)
	require.NoError(t, err)
	assert.Equal(t, maxHorizon, resp.Horizon)
	assert.Len(t, resp.Points, maxHorizon)
}

func TestGetForecast_NoModel(t *testing.T) {
	svc, _ := newForecastFixture()

	_, err := svc.GetForecast(context.Background(), 8, 12)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestGetForecast_UnknownStore(t *testing.T) {
	svc, _ := newForecastFixture()

	_, err := svc.GetForecast(context.Background(), 99, 12)
	assert.Error(t, err)
}

func TestGetLanding_PacedCurveForFittedStore(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.GetLanding(context.Background(), 7, 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, resp.FiscalYear)
	assert.Equal(t, 3, resp.ClosedMonths)
	assert.Equal(t, 9, resp.RemainingMonths)
	assert.InDelta(t, 310, resp.CumulativeActual, 1e-9)
	assert.InDelta(t, 310.0/300.0, resp.Pace, 1e-9)
	// 9 open months at 200 each, scaled by the 310/300 pace, on top of 310 booked
	assert.InDelta(t, 2170, resp.Landing, 1e-9)
	assert.InDelta(t, 970, resp.LandingDiff, 1e-9)
}

func TestGetLanding_BudgetFallbackWithoutModel(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.GetLanding(context.Background(), 8, 2025)
	require.NoError(t, err)

	assert.InDelta(t, 1210, resp.Landing, 1e-9, "open months fall back to budget")
	assert.InDelta(t, 1200, resp.TotalBudget, 1e-9)
}

func TestGetLanding_InactiveStoreIgnoresItsModel(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.GetLanding(context.Background(), 9, 2025)
	require.NoError(t, err)

	assert.InDelta(t, 1210, resp.Landing, 1e-9)
}

func TestGetSimulation_SeededRunsAgree(t *testing.T) {
	svc, _ := newForecastFixture()
	params := SimulationParams{FiscalYear: 2025, Trials: 300, Seed: 7}

	first, err := svc.GetSimulation(context.Background(), 7, params)
	require.NoError(t, err)
	second, err := svc.GetSimulation(context.Background(), 7, params)
	require.NoError(t, err)

	assert.Equal(t, first.SimulationResult, second.SimulationResult)

	require.Len(t, first.Months, 9)
	assert.Equal(t, "2025-04", first.Months[0])
	assert.InDelta(t, 1200, first.Target, 1e-9, "target is the full-year budget")
	assert.InDelta(t, 25, first.Volatility, 1e-9)
	assert.GreaterOrEqual(t, first.LandingMin, 310.0, "landing includes the booked actuals")
	assert.Equal(t, 1.0, first.WinProbability, "paced means sit far above the open budget")
}

func TestGetSimulation_TargetAlreadyReached(t *testing.T) {
	stores := &fakeStoreRepo{stores: map[int64]*domain.Store{
		10: {ID: 10, Name: "Glowmart Bandung", Area: "Jawa Barat", Active: true},
	}}
	models := &fakeModelRepo{models: map[int64]*domain.StoreModel{10: flatModel(10, 200)}}
	analytics := &fakeAnalyticsRepo{}
	for i := 0; i < 12; i++ {
		analytics.rows = append(analytics.rows, repository.MonthlyRow{
			StoreID:   10,
			Month:     month(2025, time.Month(i+1)),
			Actual:    125,
			Budget:    100,
			HasActual: true,
		})
	}
	svc := NewForecastService(stores, models, analytics, nil, ForecastOptions{FiscalStart: 1})

	resp, err := svc.GetSimulation(context.Background(), 10, SimulationParams{FiscalYear: 2025, Seed: 1})
	require.NoError(t, err)

	assert.Empty(t, resp.Months, "no open months left")
	assert.InDelta(t, 1500, resp.LandingMean, 1e-9)
	assert.Equal(t, 1.0, resp.WinProbability, "budget already beaten")
}

func TestRunScenario_PresetByName(t *testing.T) {
	svc, _ := newForecastFixture()

	resp, err := svc.RunScenario(context.Background(), 7, 2025, domain.ScenarioRequest{Name: "aggressive", Trials: 200, Seed: 5})
	require.NoError(t, err)

	assert.Equal(t, "aggressive", resp.Scenario)
	require.Len(t, resp.Points, 9)
	// aggressive lifts potential by 1.08: flat 200 becomes 216 on the curve
	assert.InDelta(t, 216, resp.Points[0].Total, 1e-9)
	// landing paces those 216s by 310/300 and adds the 310 booked
	assert.InDelta(t, 310+9*216*310.0/300.0, resp.Landing.Landing, 1e-9)
	assert.Equal(t, 200, resp.Simulation.Trials)
}

func TestRunScenario_CustomDials(t *testing.T) {
	svc, _ := newForecastFixture()

	base, err := svc.RunScenario(context.Background(), 7, 2025, domain.ScenarioRequest{Name: "base", Trials: 100, Seed: 2})
	require.NoError(t, err)
	boosted, err := svc.RunScenario(context.Background(), 7, 2025, domain.ScenarioRequest{PotentialMult: 1.5, Trials: 100, Seed: 2})
	require.NoError(t, err)

	assert.Equal(t, "base", base.Scenario)
	assert.Equal(t, "custom", boosted.Scenario)
	assert.Greater(t, boosted.Landing.Landing, base.Landing.Landing)
}

func TestResolveScenario(t *testing.T) {
	preset := resolveScenario(domain.ScenarioRequest{Name: "conservative"})
	assert.Equal(t, "conservative", preset.Name)
	assert.InDelta(t, 0.85, preset.GrowthMult, 1e-9)

	fallback := resolveScenario(domain.ScenarioRequest{Name: "no-such-preset"})
	assert.Equal(t, "base", fallback.Name)

	custom := resolveScenario(domain.ScenarioRequest{GrowthMult: 1.3})
	assert.Equal(t, "custom", custom.Name)
	assert.InDelta(t, 1.3, custom.GrowthMult, 1e-9)
}
