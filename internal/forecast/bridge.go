// backend-go/internal/forecast/bridge.go
package forecast

import "math"

// BridgeStep is one bar of a year-over-year waterfall.
type BridgeStep struct {
	Label        string  `json:"label"`
	Delta        float64 `json:"delta"`
	RunningTotal float64 `json:"running_total"`
}

// BridgeDelta is a named contribution to the year-over-year change.
type BridgeDelta struct {
	Label string
	Value float64
}

// BuildBridge walks from a prior-year total to the current total through the
// given deltas, in order. Whatever the named deltas fail to explain lands in
// a final "other" step, so the walk always closes exactly on the current
// total.
func BuildBridge(priorTotal, currentTotal float64, deltas []BridgeDelta) []BridgeStep {
	steps := make([]BridgeStep, 0, len(deltas)+3)

	running := priorTotal
	steps = append(steps, BridgeStep{Label: "prior_year", Delta: priorTotal, RunningTotal: running})

	explained := 0.0
	for _, d := range deltas {
		running += d.Value
		explained += d.Value
		steps = append(steps, BridgeStep{Label: d.Label, Delta: d.Value, RunningTotal: running})
	}

	// summation dust from fully explained walks should not surface as a bar
	other := currentTotal - priorTotal - explained
	if math.Abs(other) > 1e-9 {
		running += other
		steps = append(steps, BridgeStep{Label: "other", Delta: other, RunningTotal: running})
	}

	steps = append(steps, BridgeStep{Label: "current_year", Delta: currentTotal, RunningTotal: currentTotal})

	return steps
}
