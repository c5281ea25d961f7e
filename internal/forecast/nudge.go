// backend-go/internal/forecast/nudge.go
package forecast

import "math"

// DefaultNudgeDecay is applied when a fitted model carries no decay of its
// own.
const DefaultNudgeDecay = 0.7

// NudgeAt returns the short-horizon correction for a month stepsAhead of the
// forecast origin. The last observed residual bleeds out geometrically so the
// first projected months stay continuous with recent actuals instead of
// snapping straight back onto the fitted curve.
func NudgeAt(nudge, decay float64, stepsAhead int) float64 {
	if nudge == 0 || stepsAhead < 0 {
		return 0
	}
	if decay <= 0 || decay >= 1 {
		decay = DefaultNudgeDecay
	}

	return nudge * math.Pow(decay, float64(stepsAhead))
}
