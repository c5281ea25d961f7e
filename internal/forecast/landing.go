// backend-go/internal/forecast/landing.go
package forecast

// LandingInput partitions a fiscal year into closed months (actuals booked)
// and remaining months (forecast only). Slices are aligned per partition:
// ClosedActual with ClosedBudget, RemainingForecast with RemainingBudget.
// RemainingForecast carries the final per-month projections; callers that
// want pacing apply PaceRemaining before aggregating.
type LandingInput struct {
	ClosedActual      []float64
	ClosedBudget      []float64
	RemainingForecast []float64
	RemainingBudget   []float64
}

// LandingSummary is the projected full-year outcome.
type LandingSummary struct {
	CumulativeActual   float64 `json:"cumulative_actual"`
	CumulativeBudget   float64 `json:"cumulative_budget"`
	TotalBudget        float64 `json:"total_budget"`
	Pace               float64 `json:"pace"`
	ForecastRemaining  float64 `json:"forecast_remaining"`
	Landing            float64 `json:"landing"`
	LandingDiff        float64 `json:"landing_diff"`
	LandingAchievement float64 `json:"landing_achievement"`
}

const (
	paceFloor   = 0.8
	paceCeiling = 1.2
)

// PaceFactor is the cumulative actual-vs-budget ratio over closed months,
// clamped to ±20% so one strong or weak quarter cannot compound into a
// runaway projection. A zero budget basis yields the neutral 1.0.
func PaceFactor(cumActual, cumBudget float64) float64 {
	if cumBudget <= 0 {
		return 1.0
	}
	return clamp(cumActual/cumBudget, paceFloor, paceCeiling)
}

// PaceRemaining scales every remaining naive forecast by the pace factor.
// Inactive stores skip this step and take their remaining budget instead of
// an extrapolated forecast.
func PaceRemaining(naive []float64, pace float64) []float64 {
	out := make([]float64, len(naive))
	for i, v := range naive {
		out[i] = v * pace
	}
	return out
}

// Land computes the year-end landing: booked actuals plus the remaining
// per-month projections. With no remaining months the landing equals the
// cumulative actual exactly.
func Land(in LandingInput) LandingSummary {
	s := LandingSummary{
		CumulativeActual:  sum(in.ClosedActual),
		CumulativeBudget:  sum(in.ClosedBudget),
		ForecastRemaining: sum(in.RemainingForecast),
	}
	s.TotalBudget = s.CumulativeBudget + sum(in.RemainingBudget)
	s.Pace = PaceFactor(s.CumulativeActual, s.CumulativeBudget)

	s.Landing = s.CumulativeActual + s.ForecastRemaining
	s.LandingDiff = s.Landing - s.TotalBudget
	if s.TotalBudget > 0 {
		s.LandingAchievement = s.Landing / s.TotalBudget * 100
	}

	return s
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
