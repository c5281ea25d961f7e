// backend-go/internal/pipeline/modelfit/grid_test.go
package modelfit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glowmart/storesight/backend-go/internal/forecast"
)

func TestBestTrendFit_FlatSegmentIsExact(t *testing.T) {
	g := newGridSearcher(DefaultOptions())

	p := g.bestTrendFit(repeat(150, 12), 0.5)

	assert.InDelta(t, 150, p.L, 1e-9)
	assert.InDelta(t, 0, scoreTrend(repeat(150, 12), p), 1e-9)
}

func TestFlatParams_HoldsTheMeanFromTheOrigin(t *testing.T) {
	p := flatParams([]float64{80, 120, 100}, 0.35)
	m := forecast.Model{Mode: forecast.ModeStandard, Params: p}

	assert.InDelta(t, 100, forecast.Evaluate(m, 0), 1e-9)
	assert.InDelta(t, 100, forecast.Evaluate(m, 36), 1e-9)
}

func TestClampRatio_KeepsRatioInsideOpenUnitInterval(t *testing.T) {
	assert.Equal(t, 0.02, clampRatio(-0.5))
	assert.Equal(t, 0.02, clampRatio(0.001))
	assert.Equal(t, 0.5, clampRatio(0.5))
	assert.Equal(t, 0.9, clampRatio(1.7))
}

func TestScoreModel_PerfectFitScoresZero(t *testing.T) {
	values := repeat(100, 12)
	profile := repeat(1, forecast.SeasonalSlots)
	m := forecast.Model{Mode: forecast.ModeStandard, Params: flatParams(values, 0.05)}

	assert.InDelta(t, 0, scoreModel(values, profile, 0, m), 1e-9)
}

func TestRootMeanSquare(t *testing.T) {
	assert.InDelta(t, math.Sqrt(12.5), rootMeanSquare([]float64{3, 4}), 1e-9)
	assert.Equal(t, 0.0, rootMeanSquare(nil))
}

func TestMeanAbsPctError_SkipsMonthsWithoutSales(t *testing.T) {
	values := []float64{100, 0, 50}
	resid := []float64{10, 5, 5}

	// the zero month contributes nothing: (10% + 10%) / 2
	assert.InDelta(t, 10, meanAbsPctError(values, resid), 1e-9)
}

func TestTailMean_UsesWholeSliceWhenShort(t *testing.T) {
	assert.InDelta(t, 2, tailMean([]float64{1, 2, 3}, 6), 1e-9)
	assert.InDelta(t, 5, tailMean([]float64{1, 1, 4, 5, 6, 4, 5, 6}, 6), 1e-9)
}

func TestHeadMean_UsesLeadingWindow(t *testing.T) {
	assert.InDelta(t, 2, headMean([]float64{1, 2, 3, 9, 9, 9, 9, 9}, 3), 1e-9)
}

func TestSlotAt_WrapsCalendarMonths(t *testing.T) {
	assert.Equal(t, 0, slotAt(0, 0))
	assert.Equal(t, 3, slotAt(10, 5))
	assert.Equal(t, 11, slotAt(11, 12))
}

func TestDeseasonalize_DividesOutTheProfile(t *testing.T) {
	profile := []float64{2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0.5}

	out := deseasonalize([]float64{200, 100, 50}, profile, 11)

	// starts in December (slot 11), wraps to January
	assert.InDelta(t, 400, out[0], 1e-9)
	assert.InDelta(t, 50, out[1], 1e-9)
	assert.InDelta(t, 50, out[2], 1e-9)
}
