// backend-go/internal/forecast/forecaster.go
package forecast

import "math"

// Point is one projected month: the trend value, the seasonal factor applied
// to it and the decaying nudge added on top.
type Point struct {
	Index          int     `json:"index"`
	MonthIdx       int     `json:"month_idx"`
	Base           float64 `json:"base_value"`
	SeasonalFactor float64 `json:"seasonal_factor"`
	Nudge          float64 `json:"nudge_contribution"`
	Total          float64 `json:"total"`
}

// At evaluates a single month: trend at time index t, scaled by the seasonal
// factor for monthIdx, plus the nudge for stepsAhead months past the forecast
// origin. The total never goes negative.
func At(m Model, t float64, monthIdx, stepsAhead int) Point {
	base := Evaluate(m, t)
	factor := SeasonalFactor(m.Seasonal, monthIdx)
	nudge := NudgeAt(m.Nudge, m.NudgeDecay, stepsAhead)

	return Point{
		Index:          int(t),
		MonthIdx:       monthIdx,
		Base:           base,
		SeasonalFactor: factor,
		Nudge:          nudge,
		Total:          math.Max(0, base*factor+nudge),
	}
}

// Project rolls the model forward horizon months. startT is the time index of
// the first projected month on the fitted curve and startMonthIdx its
// calendar month (0 = January); the first projected month counts as one step
// ahead of the forecast origin.
func Project(m Model, startT, startMonthIdx, horizon int) []Point {
	if horizon <= 0 {
		return nil
	}

	points := make([]Point, 0, horizon)
	for i := 0; i < horizon; i++ {
		monthIdx := ((startMonthIdx+i)%SeasonalSlots + SeasonalSlots) % SeasonalSlots
		points = append(points, At(m, float64(startT+i), monthIdx, i+1))
	}

	return points
}
