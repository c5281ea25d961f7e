// backend-go/internal/pipeline/modelfit/grid.go
package modelfit

import (
	"math"

	"github.com/glowmart/storesight/backend-go/internal/forecast"
)

// Fixed search grids. Growth rates cover slow maturation up to aggressive
// ramps; potential multipliers sit above the recent level because a logistic
// approaches its asymptote from below; post-shock multipliers also reach
// below it so a downward regime shift stays expressible.
var (
	kGrid    = []float64{0.05, 0.08, 0.12, 0.18, 0.25, 0.35, 0.5}
	t0Grid   = []float64{3, 6, 9, 12, 18, 24}
	lGrid    = []float64{1.05, 1.2, 1.4, 1.7, 2.0}
	postGrid = []float64{0.7, 0.85, 1.05, 1.3, 1.6}
	dualGrid = []float64{0.8, 1.1, 1.4}
)

const (
	// a regime switch must cut RMSE by at least this factor to replace the
	// simpler curve
	regimeMargin = 0.97

	twoPhaseMinMonths   = 24
	threePhaseMinMonths = 36

	minPreMonths  = 9
	minPostMonths = 6

	shockStep     = 3
	dualShockStep = 6

	levelWindow = 6

	// t0 far enough in the past that any growth rate in the grid is fully
	// saturated at the series origin
	flatT0 = -1000
)

// gridSearcher picks the best-scoring regime and parameters for one series
type gridSearcher struct {
	opts Options
}

func newGridSearcher(opts Options) *gridSearcher {
	return &gridSearcher{opts: opts}
}

// search returns the best model over all candidate regimes. Scoring is RMSE
// of the reseasonalized curve against the raw series, so the trend and the
// seasonal profile are judged together.
func (g *gridSearcher) search(raw, deseason, profile []float64, startSlot int) forecast.Model {
	// 1. Single-phase curve: standard, or startup for short histories
	best, bestScore := g.bestSinglePhase(raw, deseason, profile, startSlot)

	// 2. Two-phase regimes need enough months on both sides of a shock
	if len(raw) >= twoPhaseMinMonths {
		if m, score, ok := g.bestTwoPhase(raw, deseason, profile, startSlot); ok && score < bestScore*regimeMargin {
			best, bestScore = m, score
		}
	}

	// 3. Dual shifts only against three years or more
	if len(raw) >= threePhaseMinMonths {
		if m, score, ok := g.bestThreePhase(raw, deseason, profile, startSlot); ok && score < bestScore*regimeMargin {
			best = m
		}
	}

	return best
}

// bestSinglePhase fits one logistic to the whole series. Startup stores
// derive t0 from the saturation ratio at the origin; mature stores search a
// fixed t0 grid.
func (g *gridSearcher) bestSinglePhase(raw, deseason, profile []float64, startSlot int) (forecast.Model, float64) {
	recent := tailMean(deseason, levelWindow)
	early := headMean(deseason, levelWindow)
	baseGrid := []float64{0, 0.5 * early}
	startup := len(deseason) < g.opts.StartupMonths

	// a flat curve at the series mean is always expressible, so the search
	// never comes back empty
	best := forecast.Model{Mode: forecast.ModeStandard, Params: flatParams(deseason, kGrid[0])}
	bestScore := scoreModel(raw, profile, startSlot, best)

	for _, base := range baseGrid {
		level := recent - base
		if level <= 0 {
			continue
		}
		for _, lm := range lGrid {
			l := level * lm
			for _, k := range kGrid {
				for _, m := range g.singleCandidates(deseason[0], base, k, l, startup) {
					if score := scoreModel(raw, profile, startSlot, m); score < bestScore {
						best, bestScore = m, score
					}
				}
			}
		}
	}

	return best, bestScore
}

// singleCandidates expands one (base, k, L) cell into concrete models: one
// ratio-anchored startup curve, or one per fixed t0.
func (g *gridSearcher) singleCandidates(origin, base, k, l float64, startup bool) []forecast.Model {
	if startup {
		ratio := clampRatio((origin - base) / l)
		return []forecast.Model{{
			Mode: forecast.ModeStartup,
			Params: forecast.Params{
				K:            k,
				L:            l,
				Base:         base,
				InitialRatio: ratio,
				TZero:        forecast.TZeroRatio,
			},
		}}
	}

	models := make([]forecast.Model, 0, len(t0Grid))
	for _, t0 := range t0Grid {
		models = append(models, forecast.Model{
			Mode: forecast.ModeStandard,
			Params: forecast.Params{
				K:     k,
				L:     l,
				Base:  base,
				T0:    t0,
				TZero: forecast.TZeroFixed,
			},
		})
	}
	return models
}

// bestTwoPhase scans shock candidates and, for every growth rate, fits the
// pre-phase on the months before the shock and searches the post-shock
// potential. The growth rate is shared across phases, so it is searched out
// here rather than taken from the pre-fit: a store that was flat before a
// shock can still move quickly after it. The winner is labeled recovery when
// the new potential sits at or above the old one, shift otherwise.
func (g *gridSearcher) bestTwoPhase(raw, deseason, profile []float64, startSlot int) (forecast.Model, float64, bool) {
	n := len(deseason)
	postRecent := tailMean(deseason, levelWindow)

	var best forecast.Model
	bestScore := math.Inf(1)
	found := false

	for shock := minPreMonths; shock <= n-minPostMonths; shock += shockStep {
		for _, k := range kGrid {
			pre := g.bestTrendFit(deseason[:shock], k)
			level := postRecent - pre.Base
			if level <= 0 {
				continue
			}

			for _, pm := range postGrid {
				m := forecast.Model{
					Mode: forecast.ModeShift,
					Params: forecast.Params{
						K:     k,
						L:     pre.L,
						LPost: level * pm,
						Base:  pre.Base,
						T0:    pre.T0,
						TZero: forecast.TZeroFixed,
					},
					ShockIdx: shock,
				}
				if score := scoreModel(raw, profile, startSlot, m); score < bestScore {
					best, bestScore = m, score
					found = true
				}
			}
		}
	}

	if found && best.Params.LPost >= best.Params.L {
		best.Mode = forecast.ModeRecovery
	}

	return best, bestScore, found
}

// bestThreePhase searches two shock indexes with the middle and final
// potentials anchored on their own segment levels.
func (g *gridSearcher) bestThreePhase(raw, deseason, profile []float64, startSlot int) (forecast.Model, float64, bool) {
	n := len(deseason)
	finalRecent := tailMean(deseason, levelWindow)

	var best forecast.Model
	bestScore := math.Inf(1)
	found := false

	for s1 := minPreMonths; s1 <= n-minPreMonths-minPostMonths; s1 += dualShockStep {
		for _, k := range kGrid {
			pre := g.bestTrendFit(deseason[:s1], k)
			finalLevel := finalRecent - pre.Base
			if finalLevel <= 0 {
				continue
			}

			for s2 := s1 + minPreMonths; s2 <= n-minPostMonths; s2 += dualShockStep {
				midLevel := tailMean(deseason[s1:s2], levelWindow) - pre.Base
				if midLevel <= 0 {
					continue
				}

				for _, pm1 := range dualGrid {
					for _, pm2 := range dualGrid {
						m := forecast.Model{
							Mode: forecast.ModeDualShift,
							Params: forecast.Params{
								K:      k,
								L:      pre.L,
								LPost:  midLevel * pm1,
								LPost2: finalLevel * pm2,
								Base:   pre.Base,
								T0:     pre.T0,
								TZero:  forecast.TZeroFixed,
							},
							ShockIdx:  s1,
							ShockIdx2: s2,
						}
						if score := scoreModel(raw, profile, startSlot, m); score < bestScore {
							best, bestScore = m, score
							found = true
						}
					}
				}
			}
		}
	}

	return best, bestScore, found
}

// bestTrendFit fits a single logistic with the given growth rate to a
// deseasonalized segment starting at the series origin, scored on the trend
// alone.
func (g *gridSearcher) bestTrendFit(segment []float64, k float64) forecast.Params {
	recent := tailMean(segment, levelWindow)
	early := headMean(segment, levelWindow)
	baseGrid := []float64{0, 0.5 * early}

	best := flatParams(segment, k)
	bestScore := scoreTrend(segment, best)

	for _, base := range baseGrid {
		level := recent - base
		if level <= 0 {
			continue
		}
		for _, lm := range lGrid {
			l := level * lm
			for _, t0 := range t0Grid {
				p := forecast.Params{
					K:     k,
					L:     l,
					Base:  base,
					T0:    t0,
					TZero: forecast.TZeroFixed,
				}
				if score := scoreTrend(segment, p); score < bestScore {
					best, bestScore = p, score
				}
			}
		}
	}

	return best
}

// flatParams is the guaranteed fallback candidate: a curve saturated at the
// segment mean since long before the series started.
func flatParams(segment []float64, k float64) forecast.Params {
	return forecast.Params{
		K:     k,
		L:     forecast.Mean(segment),
		Base:  0,
		T0:    flatT0,
		TZero: forecast.TZeroFixed,
	}
}

func clampRatio(r float64) float64 {
	if r < 0.02 {
		return 0.02
	}
	if r > 0.9 {
		return 0.9
	}
	return r
}
