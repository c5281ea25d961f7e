// backend-go/internal/forecast/landing_test.go
package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLand_YearEndScenario(t *testing.T) {
	// one closed month over budget, one remaining month forecast at budget
	s := Land(LandingInput{
		ClosedActual:      []float64{110},
		ClosedBudget:      []float64{100},
		RemainingForecast: []float64{100},
		RemainingBudget:   []float64{100},
	})

	assert.InDelta(t, 110.0, s.CumulativeActual, 1e-9)
	assert.InDelta(t, 100.0, s.CumulativeBudget, 1e-9)
	assert.InDelta(t, 200.0, s.TotalBudget, 1e-9)
	assert.InDelta(t, 210.0, s.Landing, 1e-9)
	assert.InDelta(t, 10.0, s.LandingDiff, 1e-9)
	assert.InDelta(t, 105.0, s.LandingAchievement, 1e-9)
	assert.InDelta(t, 1.1, s.Pace, 1e-9)
}

func TestLand_NoRemainingMonths(t *testing.T) {
	s := Land(LandingInput{
		ClosedActual: []float64{120, 95, 130},
		ClosedBudget: []float64{100, 100, 100},
	})

	assert.Equal(t, s.CumulativeActual, s.Landing, "with nothing left to forecast the landing is the booked total")
	assert.InDelta(t, 345.0, s.Landing, 1e-9)
	assert.InDelta(t, 45.0, s.LandingDiff, 1e-9)
}

func TestLand_ZeroBudgetGuards(t *testing.T) {
	s := Land(LandingInput{
		ClosedActual:      []float64{50},
		RemainingForecast: []float64{60},
	})

	assert.Equal(t, 0.0, s.LandingAchievement, "achievement is 0 when there is no budget")
	assert.Equal(t, 1.0, s.Pace)
	assert.InDelta(t, 110.0, s.Landing, 1e-9)
}

func TestPaceFactor_Clamped(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		budget   float64
		wantPace float64
	}{
		{"far behind", 40, 100, 0.8},
		{"slightly behind", 90, 100, 0.9},
		{"on budget", 100, 100, 1.0},
		{"at ceiling", 120, 100, 1.2},
		{"far ahead", 500, 100, 1.2},
		{"no budget basis", 75, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantPace, PaceFactor(tt.actual, tt.budget), 1e-9)
		})
	}
}

func TestPaceFactor_AlwaysWithinBounds(t *testing.T) {
	for actual := 0.0; actual <= 400; actual += 7 {
		pace := PaceFactor(actual, 100)
		assert.GreaterOrEqual(t, pace, 0.8)
		assert.LessOrEqual(t, pace, 1.2)
	}
}

func TestPaceRemaining(t *testing.T) {
	paced := PaceRemaining([]float64{100, 200, 0}, 1.1)
	assert.InDelta(t, 110.0, paced[0], 1e-9)
	assert.InDelta(t, 220.0, paced[1], 1e-9)
	assert.Equal(t, 0.0, paced[2])

	assert.Empty(t, PaceRemaining(nil, 0.9))
}
