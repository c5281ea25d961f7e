// backend-go/internal/forecast/forecaster_test.go
package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt_ComposesTrendSeasonalAndNudge(t *testing.T) {
	seasonal := make([]float64, SeasonalSlots)
	for i := range seasonal {
		seasonal[i] = 1.0
	}
	seasonal[0] = 1.2

	m := Model{
		Mode:       ModeStandard,
		Params:     Params{K: 0.1, L: 3000, Base: 0},
		Seasonal:   seasonal,
		Nudge:      50,
		NudgeDecay: 0.5,
	}

	p := At(m, 12, 0, 1)
	assert.InDelta(t, 1500.0, p.Base, 1e-9)
	assert.InDelta(t, 1.2, p.SeasonalFactor, 1e-9)
	assert.InDelta(t, 25.0, p.Nudge, 1e-9, "first step carries nudge*decay")
	assert.InDelta(t, 1500*1.2+25, p.Total, 1e-9)
}

func TestAt_ClampsNegativeTotal(t *testing.T) {
	m := Model{
		Mode:       ModeStandard,
		Params:     Params{K: 0.1, L: 100, Base: 0},
		Nudge:      -5000,
		NudgeDecay: 0.9,
	}

	p := At(m, 5, 3, 1)
	assert.Equal(t, 0.0, p.Total, "negative projections clamp to zero")
	assert.Less(t, p.Nudge, 0.0, "the raw nudge contribution is still reported")
}

func TestProject_WalksCalendarAndDecaysNudge(t *testing.T) {
	m := Model{
		Mode:       ModeStandard,
		Params:     Params{K: 0.1, L: 2000, Base: 100},
		Nudge:      80,
		NudgeDecay: 0.7,
	}

	points := Project(m, 30, 11, 3)
	require.Len(t, points, 3)

	assert.Equal(t, []int{11, 0, 1}, []int{points[0].MonthIdx, points[1].MonthIdx, points[2].MonthIdx},
		"calendar months wrap across the year boundary")
	assert.Equal(t, 30, points[0].Index)
	assert.Equal(t, 32, points[2].Index)

	assert.InDelta(t, 80*0.7, points[0].Nudge, 1e-9)
	assert.InDelta(t, 80*0.7*0.7, points[1].Nudge, 1e-9)
	assert.Greater(t, points[0].Nudge, points[1].Nudge, "nudge decays with the horizon")

	for _, p := range points {
		assert.InDelta(t, 1.0, p.SeasonalFactor, 1e-9, "missing seasonal profile defaults to neutral")
	}
}

func TestProject_EmptyHorizon(t *testing.T) {
	assert.Nil(t, Project(Model{}, 0, 0, 0))
	assert.Nil(t, Project(Model{}, 0, 0, -4))
}

func TestNudgeAt_Defaults(t *testing.T) {
	assert.InDelta(t, 10*0.7, NudgeAt(10, 0, 1), 1e-9, "unset decay falls back to 0.7")
	assert.InDelta(t, 10*0.7*0.7, NudgeAt(10, 1.3, 2), 1e-9, "out-of-range decay falls back to 0.7")
	assert.Equal(t, 0.0, NudgeAt(0, 0.5, 3))
	assert.Equal(t, 0.0, NudgeAt(25, 0.5, -1))
}
