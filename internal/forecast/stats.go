// backend-go/internal/forecast/stats.go
package forecast

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean is a guarded wrapper around gonum's mean for possibly-empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev is the sample standard deviation, 0 for fewer than two points.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// CoefficientOfVariation is stddev/mean, 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	m := Mean(values)
	if m == 0 {
		return 0
	}
	return StdDev(values) / m
}

// Pearson returns the correlation of two equally-long series in [-1, 1].
// Mismatched lengths, short series and zero-variance series all return 0.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	if StdDev(a) == 0 || StdDev(b) == 0 {
		return 0
	}

	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0
	}

	return clamp(r, -1, 1)
}

// Gini measures inequality across a distribution of non-negative values:
// 0 for perfect equality, approaching 1 as a single entry takes everything.
// Empty or all-zero input returns 0.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var total, weighted float64
	for i, v := range sorted {
		total += v
		weighted += float64(i+1) * v
	}
	if total == 0 {
		return 0
	}

	return (2*weighted)/(float64(n)*total) - float64(n+1)/float64(n)
}

// MovingAnnualTotal returns the trailing 12-month sum per index. Indexes
// with fewer than 12 months of history carry NaN so charts can skip them.
func MovingAnnualTotal(values []float64) []float64 {
	out := make([]float64, len(values))
	var window float64
	for i, v := range values {
		window += v
		if i >= SeasonalSlots {
			window -= values[i-SeasonalSlots]
		}
		if i >= SeasonalSlots-1 {
			out[i] = window
		} else {
			out[i] = math.NaN()
		}
	}

	return out
}
