// backend-go/internal/service/landing.go
package service

import (
	"time"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/repository"
)

// storeYear bundles everything landing assembly needs for one store and one
// fiscal year. Model is nil when the store was never fitted.
type storeYear struct {
	rows   []repository.MonthlyRow
	model  *domain.StoreModel
	active bool
}

// splitYear partitions a fiscal year into closed months (a sales row exists)
// and remaining months. Gap months inside the year count as remaining.
func splitYear(rows []repository.MonthlyRow) (closedActual, closedBudget []float64, remaining []repository.MonthlyRow) {
	for _, row := range rows {
		if row.HasActual {
			closedActual = append(closedActual, row.Actual)
			closedBudget = append(closedBudget, row.Budget)
		} else {
			remaining = append(remaining, row)
		}
	}
	return closedActual, closedBudget, remaining
}

// curvePoints evaluates a model at each given calendar month. The time axis
// is months since the fitted series start, so the nudge fades with distance
// from the last observed month.
func curvePoints(fm forecast.Model, seriesStart time.Time, sampleMonths int, months []time.Time) []forecast.Point {
	out := make([]forecast.Point, 0, len(months))
	for _, m := range months {
		t := monthsBetween(seriesStart, m)
		steps := t - sampleMonths + 1
		if steps < 1 {
			steps = 1
		}
		out = append(out, forecast.At(fm, float64(t), int(m.Month())-1, steps))
	}
	return out
}

func remainingForecast(model *domain.StoreModel, months []time.Time) []float64 {
	points := curvePoints(model.ForecastModel(), model.SeriesStart, model.SampleMonths, months)
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Total
	}
	return out
}

// assembleLanding builds the full-year landing for one store. Active stores
// with a fitted model get the pace-adjusted curve for open months; stores
// without a model, and inactive stores, fall back to budget for the rest of
// the year.
func assembleLanding(sy storeYear) (forecast.LandingSummary, int, int) {
	closedActual, closedBudget, remaining := splitYear(sy.rows)

	in := forecast.LandingInput{
		ClosedActual:    closedActual,
		ClosedBudget:    closedBudget,
		RemainingBudget: make([]float64, 0, len(remaining)),
	}
	months := make([]time.Time, 0, len(remaining))
	for _, row := range remaining {
		in.RemainingBudget = append(in.RemainingBudget, row.Budget)
		months = append(months, row.Month)
	}

	if sy.model != nil && sy.active {
		naive := remainingForecast(sy.model, months)
		pace := forecast.PaceFactor(sumFloats(closedActual), sumFloats(closedBudget))
		in.RemainingForecast = forecast.PaceRemaining(naive, pace)
	} else {
		in.RemainingForecast = append([]float64(nil), in.RemainingBudget...)
	}

	return forecast.Land(in), len(closedActual), len(remaining)
}

func sumFloats(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
