// backend-go/internal/forecast/stats_test.go
package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson_SelfCorrelation(t *testing.T) {
	series := []float64{120, 340, 260, 410, 380, 290}
	assert.InDelta(t, 1.0, Pearson(series, series), 1e-9, "a series correlates perfectly with itself")
}

func TestPearson_Symmetric(t *testing.T) {
	a := []float64{10, 14, 9, 22, 30, 25}
	b := []float64{200, 260, 210, 390, 520, 430}

	assert.InDelta(t, Pearson(a, b), Pearson(b, a), 1e-12)
	assert.Greater(t, Pearson(a, b), 0.9, "co-moving series should correlate strongly")
}

func TestPearson_AntiCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, Pearson(a, b), 1e-9)
}

func TestPearson_Guards(t *testing.T) {
	assert.Equal(t, 0.0, Pearson([]float64{1, 2, 3}, []float64{1, 2}), "mismatched lengths")
	assert.Equal(t, 0.0, Pearson([]float64{5}, []float64{5}), "too short")
	assert.Equal(t, 0.0, Pearson(nil, nil))
	assert.Equal(t, 0.0, Pearson([]float64{7, 7, 7}, []float64{1, 2, 3}), "zero variance")
}

func TestGini_Uniform(t *testing.T) {
	assert.InDelta(t, 0.0, Gini([]float64{250, 250, 250, 250}), 1e-12, "equal values carry no inequality")
}

func TestGini_MaximallyUnequal(t *testing.T) {
	// all mass in one store approaches (n-1)/n
	values := []float64{0, 0, 0, 0, 1000}
	assert.InDelta(t, 0.8, Gini(values), 1e-12)
}

func TestGini_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, Gini(nil))
	assert.Equal(t, 0.0, Gini([]float64{0, 0, 0}))
	assert.Equal(t, 0.0, Gini([]float64{42}))
}

func TestGini_OrderIndependent(t *testing.T) {
	a := Gini([]float64{10, 40, 80, 200})
	b := Gini([]float64{200, 10, 80, 40})
	assert.InDelta(t, a, b, 1e-12, "input order must not matter")
	assert.Greater(t, a, 0.0)
	assert.Less(t, a, 1.0)
}

func TestCoefficientOfVariation(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, math.Sqrt(32.0/7.0)/5.0, CoefficientOfVariation(values), 1e-9)

	assert.Equal(t, 0.0, CoefficientOfVariation(nil))
	assert.Equal(t, 0.0, CoefficientOfVariation([]float64{-5, 5}), "zero mean has no defined CV")
}

func TestMovingAnnualTotal(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 1
	}

	mat := MovingAnnualTotal(values)
	require.Len(t, mat, 24)

	for i := 0; i < SeasonalSlots-1; i++ {
		assert.True(t, math.IsNaN(mat[i]), "window undefined before a full year at index %d", i)
	}
	for i := SeasonalSlots - 1; i < len(mat); i++ {
		assert.InDelta(t, 12.0, mat[i], 1e-12)
	}
}

func TestMovingAnnualTotal_SlidesTheWindow(t *testing.T) {
	values := make([]float64, 14)
	for i := range values {
		values[i] = float64(i + 1)
	}

	mat := MovingAnnualTotal(values)
	assert.InDelta(t, 78.0, mat[11], 1e-12, "1..12 sum")
	assert.InDelta(t, 90.0, mat[12], 1e-12, "2..13 sum")
	assert.InDelta(t, 102.0, mat[13], 1e-12, "3..14 sum")
}

func TestMeanAndStdDevGuards(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{3}))
	assert.InDelta(t, 5.0, Mean([]float64{4, 5, 6}), 1e-12)
	assert.InDelta(t, 1.0, StdDev([]float64{4, 5, 6}), 1e-12)
}
