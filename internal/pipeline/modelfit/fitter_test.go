// backend-go/internal/pipeline/modelfit/fitter_test.go
package modelfit

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/pipeline"
)

func testSeries(values []float64) pipeline.Series {
	return pipeline.Series{
		StoreID:   7,
		StoreName: "Glowmart Surabaya",
		Start:     time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		Values:    values,
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sigmoidAt(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func TestFit_RejectsShortHistory(t *testing.T) {
	f := New(DefaultOptions())

	_, err := f.Fit(testSeries(repeat(100, 6)))

	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestFit_RejectsSeriesWithoutSales(t *testing.T) {
	f := New(DefaultOptions())

	_, err := f.Fit(testSeries(repeat(0, 24)))

	assert.ErrorIs(t, err, ErrNoSales)
}

func TestFit_FlatSeriesYieldsSaturatedCurve(t *testing.T) {
	f := New(DefaultOptions())

	m, err := f.Fit(testSeries(repeat(100, 36)))
	require.NoError(t, err)

	assert.Equal(t, "standard", m.Mode)
	assert.InDelta(t, 100, m.L, 1e-6)
	assert.InDelta(t, 0, m.RMSE, 1e-6)
	assert.InDelta(t, 0, m.Nudge, 1e-6)
	assert.InDelta(t, 0, m.StdDev, 1e-6)
	assert.Equal(t, 36, m.SampleMonths)

	require.Len(t, m.Seasonal, forecast.SeasonalSlots)
	for slot, factor := range m.Seasonal {
		assert.InDelta(t, 1.0, factor, 1e-6, "slot %d", slot)
	}

	// the curve stays on the level well past the sample
	assert.InDelta(t, 100, forecast.Evaluate(m.ForecastModel(), 48), 1e-6)
}

func TestFit_RecoversSeasonalProfile(t *testing.T) {
	// flat level of 100 with a strong November and a weak June; profile
	// averages to exactly 1.0 so the level is unchanged
	profile := []float64{1, 1, 1, 1, 1, 0.7, 1, 1, 1, 1, 1.3, 1}

	s := pipeline.Series{
		StoreID:   8,
		StoreName: "Glowmart Medan",
		Start:     time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
		Values:    make([]float64, 48),
	}
	for i := range s.Values {
		slot := (2 + i) % 12
		s.Values[i] = 100 * profile[slot]
	}

	f := New(DefaultOptions())
	m, err := f.Fit(s)
	require.NoError(t, err)

	require.Len(t, m.Seasonal, forecast.SeasonalSlots)
	for slot, want := range profile {
		assert.InDelta(t, want, m.Seasonal[slot], 1e-6, "slot %d", slot)
	}

	// with seasonality explained the trend is flat and the fit exact
	assert.Equal(t, "standard", m.Mode)
	assert.InDelta(t, 0, m.RMSE, 1e-6)
	assert.InDelta(t, 0, m.MAPE, 1e-6)
	assert.InDelta(t, 0, m.StdDev, 1e-6)
}

func TestFit_TracksLogisticGrowth(t *testing.T) {
	values := make([]float64, 36)
	for i := range values {
		values[i] = 200 * sigmoidAt(0.25*(float64(i)-12))
	}

	f := New(DefaultOptions())
	m, err := f.Fit(testSeries(values))
	require.NoError(t, err)

	assert.Greater(t, m.K, 0.0)
	assert.Less(t, m.RMSE, 12.0)
	assert.Less(t, m.MAPE, 15.0)

	// extrapolation heads to the true ceiling
	assert.InDelta(t, 200, forecast.Evaluate(m.ForecastModel(), 40), 25)
}

func TestFit_ShortHistoryUsesStartupMode(t *testing.T) {
	values := []float64{20, 30, 42, 55, 70, 85, 100, 115, 128, 140, 150, 158, 165, 170}

	f := New(DefaultOptions())
	m, err := f.Fit(testSeries(values))
	require.NoError(t, err)

	assert.Equal(t, "startup", m.Mode)
	assert.Equal(t, "ratio", m.T0Strategy)
	assert.Greater(t, m.InitialRatio, 0.0)
	assert.Less(t, m.InitialRatio, 1.0)
}

func TestFit_DetectsUpwardRegimeChange(t *testing.T) {
	// eighteen flat months, a six month ramp, then a new plateau
	values := make([]float64, 0, 48)
	values = append(values, repeat(100, 18)...)
	for i := 1; i <= 6; i++ {
		values = append(values, 100+float64(i)*100/6)
	}
	values = append(values, repeat(200, 24)...)

	f := New(DefaultOptions())
	m, err := f.Fit(testSeries(values))
	require.NoError(t, err)

	assert.Contains(t, []string{"shift", "recovery", "dual_shift"}, m.Mode)
	assert.GreaterOrEqual(t, m.ShockIdx, minPreMonths)
	assert.Less(t, m.RMSE, 15.0)

	// the projection settles on the new plateau, not the old one
	assert.InDelta(t, 205, forecast.Evaluate(m.ForecastModel(), 60), 40)
}

func TestFit_DetectsDownwardShift(t *testing.T) {
	values := append(repeat(200, 24), repeat(140, 24)...)

	f := New(DefaultOptions())
	m, err := f.Fit(testSeries(values))
	require.NoError(t, err)

	assert.Contains(t, []string{"shift", "dual_shift"}, m.Mode)
	assert.GreaterOrEqual(t, m.ShockIdx, minPreMonths)

	// the tail follows the lower level
	assert.InDelta(t, 145, forecast.Evaluate(m.ForecastModel(), 55), 25)
}

func TestFit_IsDeterministic(t *testing.T) {
	values := make([]float64, 0, 48)
	values = append(values, repeat(100, 18)...)
	for i := 1; i <= 6; i++ {
		values = append(values, 100+float64(i)*100/6)
	}
	values = append(values, repeat(200, 24)...)

	f := New(DefaultOptions())

	first, err := f.Fit(testSeries(values))
	require.NoError(t, err)
	second, err := f.Fit(testSeries(values))
	require.NoError(t, err)

	assert.Equal(t, first.Mode, second.Mode)
	assert.Equal(t, first.K, second.K)
	assert.Equal(t, first.L, second.L)
	assert.Equal(t, first.LPost, second.LPost)
	assert.Equal(t, first.Base, second.Base)
	assert.Equal(t, first.T0, second.T0)
	assert.Equal(t, first.ShockIdx, second.ShockIdx)
	assert.Equal(t, first.RMSE, second.RMSE)
	assert.Equal(t, first.Nudge, second.Nudge)
}

func TestFit_StampsSeriesMetadata(t *testing.T) {
	s := testSeries(repeat(100, 24))

	f := New(DefaultOptions())
	m, err := f.Fit(s)
	require.NoError(t, err)

	assert.Equal(t, int64(7), m.StoreID)
	assert.True(t, m.SeriesStart.Equal(s.Start))
	assert.Equal(t, 24, m.SampleMonths)
	assert.Equal(t, forecast.DefaultNudgeDecay, m.NudgeDecay)
	assert.False(t, m.FittedAt.IsZero())
}
