// backend-go/internal/pipeline/modelfit/fitter.go
package modelfit

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/glowmart/storesight/backend-go/internal/domain"
	"github.com/glowmart/storesight/backend-go/internal/forecast"
	"github.com/glowmart/storesight/backend-go/internal/pipeline"
)

var (
	// ErrInsufficientHistory means the series is too short to fit
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrNoSales means the series carries no positive month at all
	ErrNoSales = errors.New("series has no sales")
)

// Options configures the logistic fitter
type Options struct {
	// MinMonths is the shortest series the fitter accepts
	MinMonths int

	// StartupMonths is the threshold under which a store is fitted as a
	// startup: a fresh logistic with the inflection derived from the
	// saturation ratio at the series origin instead of a fixed t0
	StartupMonths int

	// NudgeDecay is stamped on every fitted model
	NudgeDecay float64
}

// DefaultOptions returns the fitter defaults
func DefaultOptions() Options {
	return Options{
		MinMonths:     12,
		StartupMonths: 18,
		NudgeDecay:    forecast.DefaultNudgeDecay,
	}
}

// LogisticFitter estimates logistic growth parameters for a store by
// exhaustive search over fixed parameter grids. The same series always
// produces the same model.
type LogisticFitter struct {
	opts Options
}

// New creates a logistic fitter
func New(opts Options) *LogisticFitter {
	if opts.MinMonths <= 0 {
		opts.MinMonths = DefaultOptions().MinMonths
	}
	if opts.StartupMonths <= 0 {
		opts.StartupMonths = DefaultOptions().StartupMonths
	}
	if opts.NudgeDecay <= 0 || opts.NudgeDecay >= 1 {
		opts.NudgeDecay = forecast.DefaultNudgeDecay
	}
	return &LogisticFitter{opts: opts}
}

// Name identifies the fitting method on run records
func (f *LogisticFitter) Name() string {
	return "logistic_grid"
}

// Fit estimates a growth model from a store's monthly sales history.
//
// The fit runs in four steps:
//  1. Derive the seasonal profile from detrended ratios (neutral under two
//     full years of history).
//  2. Deseasonalize the series and grid-search the trend: single-phase
//     first, then two- and three-phase regimes when the history is long
//     enough to support shock candidates.
//  3. Keep a regime switch only when it beats the simpler curve's RMSE by a
//     clear margin.
//  4. Read the nudge off the last residual and the volatility off the
//     residual dispersion.
func (f *LogisticFitter) Fit(series pipeline.Series) (*domain.StoreModel, error) {
	values := series.Values
	n := len(values)

	if n < f.opts.MinMonths {
		return nil, fmt.Errorf("%w: %d months, need %d", ErrInsufficientHistory, n, f.opts.MinMonths)
	}
	if !hasSales(values) {
		return nil, fmt.Errorf("%w: store %d", ErrNoSales, series.StoreID)
	}

	startSlot := int(series.Start.Month()) - 1
	profile := forecast.Decompose(values, startSlot).SeasonalIndex
	deseason := deseasonalize(values, profile, startSlot)

	searcher := newGridSearcher(f.opts)
	model := searcher.search(values, deseason, profile, startSlot)
	model.Seasonal = append([]float64(nil), profile...)

	resid := residuals(values, profile, startSlot, model)
	model.Nudge = resid[n-1]
	model.NudgeDecay = f.opts.NudgeDecay
	model.StdDev = forecast.StdDev(resid)

	return &domain.StoreModel{
		StoreID:      series.StoreID,
		Mode:         model.Mode.String(),
		K:            model.Params.K,
		L:            model.Params.L,
		LPost:        model.Params.LPost,
		LPost2:       model.Params.LPost2,
		Base:         model.Params.Base,
		T0Strategy:   model.Params.TZero.String(),
		T0:           model.Params.T0,
		InitialRatio: model.Params.InitialRatio,
		ShockIdx:     model.ShockIdx,
		ShockIdx2:    model.ShockIdx2,
		Nudge:        model.Nudge,
		NudgeDecay:   model.NudgeDecay,
		StdDev:       model.StdDev,
		Seasonal:     pq.Float64Array(model.Seasonal),
		SeriesStart:  series.Start,
		SampleMonths: n,
		RMSE:         rootMeanSquare(resid),
		MAPE:         meanAbsPctError(values, resid),
		FittedAt:     time.Now().UTC(),
	}, nil
}

func hasSales(values []float64) bool {
	for _, v := range values {
		if v > 0 {
			return true
		}
	}
	return false
}
