// backend-go/internal/service/fiscal.go
package service

import (
	"math"
	"time"
)

const monthKeyLayout = "2006-01"

// fiscalWindow returns the [from, to) month range of a fiscal year that
// begins in startMonth.
func fiscalWindow(year, startMonth int) (time.Time, time.Time) {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}

	from := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// currentFiscalYear maps a wall-clock instant onto the fiscal year it
// belongs to.
func currentFiscalYear(now time.Time, startMonth int) int {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}

	year := now.Year()
	if int(now.Month()) < startMonth {
		year--
	}
	return year
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// nullableSeries converts NaN slots to nil so JSON carries null instead of
// an unencodable NaN.
func nullableSeries(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}
