// backend-go/internal/forecast/seasonal_test.go
package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalFactor_Guards(t *testing.T) {
	profile := []float64{1.3, 0.7, 0, -0.5}

	assert.Equal(t, 1.3, SeasonalFactor(profile, 0))
	assert.Equal(t, 0.7, SeasonalFactor(profile, 1))
	assert.Equal(t, 1.0, SeasonalFactor(profile, 2), "zero factor resolves neutral")
	assert.Equal(t, 1.0, SeasonalFactor(profile, 3), "negative factor resolves neutral")
	assert.Equal(t, 1.0, SeasonalFactor(profile, 9), "missing slot resolves neutral")
	assert.Equal(t, 1.0, SeasonalFactor(profile, -1))
	assert.Equal(t, 1.0, SeasonalFactor(nil, 0))
}

func TestBlendSeasonal_AveragesPerSlot(t *testing.T) {
	blend := BlendSeasonal([][]float64{
		{1.2, 0.8},
		{1.4, 1.0},
	})

	require.Len(t, blend.Factors, SeasonalSlots)
	assert.Equal(t, 2, blend.Sources)

	assert.InDelta(t, 1.3, blend.Factors[0], 1e-9)
	assert.InDelta(t, 0.9, blend.Factors[1], 1e-9)
	assert.InDelta(t, math.Sqrt(0.02), blend.StdDev[0], 1e-9)

	for slot := 2; slot < SeasonalSlots; slot++ {
		assert.Equal(t, 1.0, blend.Factors[slot], "uncovered slots stay neutral")
		assert.Equal(t, 0.0, blend.StdDev[slot])
	}
}

func TestBlendSeasonal_SkipsNonPositiveFactors(t *testing.T) {
	blend := BlendSeasonal([][]float64{
		{0, 1.1},
		{1.5, -2},
	})

	assert.Equal(t, 1.5, blend.Factors[0], "a single valid source carries the slot")
	assert.Equal(t, 1.1, blend.Factors[1])
	assert.Equal(t, 0.0, blend.StdDev[0], "one source has no spread")
}

func TestBlendSeasonal_Empty(t *testing.T) {
	blend := BlendSeasonal(nil)
	for slot := 0; slot < SeasonalSlots; slot++ {
		assert.Equal(t, 1.0, blend.Factors[slot])
	}
	assert.Equal(t, 0, blend.Sources)
}

func TestSeasonalBlend_Band(t *testing.T) {
	blend := BlendSeasonal([][]float64{
		{1.2},
		{1.4},
	})

	lower, upper := blend.Band(0, 0.95)
	assert.Less(t, lower, blend.Factors[0])
	assert.Greater(t, upper, blend.Factors[0])
	assert.InDelta(t, blend.Factors[0]-lower, upper-blend.Factors[0], 1e-9, "band is symmetric around the factor")

	lower, upper = blend.Band(5, 0.95)
	assert.Equal(t, lower, upper, "no spread collapses the band")
}
