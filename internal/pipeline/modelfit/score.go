// backend-go/internal/pipeline/modelfit/score.go
package modelfit

import (
	"math"

	"github.com/glowmart/storesight/backend-go/internal/forecast"
)

// scoreModel is the candidate objective: RMSE of the reseasonalized curve
// against the raw series.
func scoreModel(raw, profile []float64, startSlot int, m forecast.Model) float64 {
	var sse float64
	for t, actual := range raw {
		pred := forecast.Evaluate(m, float64(t)) * forecast.SeasonalFactor(profile, slotAt(startSlot, t))
		diff := actual - pred
		sse += diff * diff
	}
	return math.Sqrt(sse / float64(len(raw)))
}

// scoreTrend scores a single-phase curve against a deseasonalized segment.
func scoreTrend(segment []float64, p forecast.Params) float64 {
	m := forecast.Model{Mode: forecast.ModeStandard, Params: p}
	var sse float64
	for t, actual := range segment {
		diff := actual - forecast.Evaluate(m, float64(t))
		sse += diff * diff
	}
	return math.Sqrt(sse / float64(len(segment)))
}

// deseasonalize divides each month by its seasonal factor so the trend can
// be fitted on a season-free series.
func deseasonalize(values, profile []float64, startSlot int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / forecast.SeasonalFactor(profile, slotAt(startSlot, i))
	}
	return out
}

// residuals returns actual minus reseasonalized prediction per month.
func residuals(values, profile []float64, startSlot int, m forecast.Model) []float64 {
	out := make([]float64, len(values))
	for t, actual := range values {
		pred := forecast.Evaluate(m, float64(t)) * forecast.SeasonalFactor(profile, slotAt(startSlot, t))
		out[t] = actual - pred
	}
	return out
}

func rootMeanSquare(resid []float64) float64 {
	if len(resid) == 0 {
		return 0
	}
	var sse float64
	for _, r := range resid {
		sse += r * r
	}
	return math.Sqrt(sse / float64(len(resid)))
}

// meanAbsPctError averages |residual|/actual over the months with sales,
// expressed as a percentage.
func meanAbsPctError(values, resid []float64) float64 {
	var total float64
	var count int
	for i, v := range values {
		if v <= 0 {
			continue
		}
		total += math.Abs(resid[i]) / v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count) * 100
}

// tailMean averages the last window values, or the whole slice when shorter.
func tailMean(values []float64, window int) float64 {
	if len(values) > window {
		values = values[len(values)-window:]
	}
	return forecast.Mean(values)
}

// headMean averages the first window values.
func headMean(values []float64, window int) float64 {
	if len(values) > window {
		values = values[:window]
	}
	return forecast.Mean(values)
}

func slotAt(startSlot, offset int) int {
	return ((startSlot+offset)%forecast.SeasonalSlots + forecast.SeasonalSlots) % forecast.SeasonalSlots
}
