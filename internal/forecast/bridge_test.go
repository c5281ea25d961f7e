// backend-go/internal/forecast/bridge_test.go
package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBridge_ClosesExactly(t *testing.T) {
	steps := BuildBridge(12000, 13450, []BridgeDelta{
		{Label: "volume", Value: 900},
		{Label: "seasonality", Value: 150},
		{Label: "new_stores", Value: 600},
	})
	require.Len(t, steps, 6)

	assert.Equal(t, "prior_year", steps[0].Label)
	assert.InDelta(t, 12000.0, steps[0].RunningTotal, 1e-9)

	assert.Equal(t, "volume", steps[1].Label)
	assert.InDelta(t, 12900.0, steps[1].RunningTotal, 1e-9)

	assert.Equal(t, "other", steps[4].Label, "the unexplained remainder gets its own step")
	assert.InDelta(t, -200.0, steps[4].Delta, 1e-9)

	last := steps[len(steps)-1]
	assert.Equal(t, "current_year", last.Label)
	assert.InDelta(t, 13450.0, last.RunningTotal, 1e-9, "the walk must land on the current total")
	assert.InDelta(t, steps[len(steps)-2].RunningTotal, last.RunningTotal, 1e-9)
}

func TestBuildBridge_FullyExplained(t *testing.T) {
	steps := BuildBridge(1000, 1300, []BridgeDelta{
		{Label: "volume", Value: 300},
	})
	require.Len(t, steps, 3, "no other step when the deltas explain the change")

	assert.Equal(t, []string{"prior_year", "volume", "current_year"},
		[]string{steps[0].Label, steps[1].Label, steps[2].Label})
	assert.InDelta(t, 1300.0, steps[1].RunningTotal, 1e-9)
}

func TestBuildBridge_NoDeltas(t *testing.T) {
	steps := BuildBridge(500, 470, nil)
	require.Len(t, steps, 3)

	assert.Equal(t, "other", steps[1].Label)
	assert.InDelta(t, -30.0, steps[1].Delta, 1e-9)
	assert.InDelta(t, 470.0, steps[2].RunningTotal, 1e-9)
}
