// backend-go/internal/forecast/simulation.go
package forecast

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// SimOptions tunes a Monte-Carlo run. Volatility is the absolute per-month
// standard deviation applied to every sampled value; Target is the budget a
// trial must reach for a "win". Seed 0 seeds from the clock, so repeated runs
// differ on purpose; pass an explicit seed to replay a run.
type SimOptions struct {
	Trials     int
	Volatility float64
	Target     float64
	Seed       int64
	Workers    int
}

// DefaultTrials is used when the caller does not size the run.
const DefaultTrials = 2000

// Band holds the fixed percentile cut points read from one sorted
// distribution.
type Band struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// Shift translates every cut point by a fixed offset.
func (b Band) Shift(offset float64) Band {
	return Band{
		P5:  b.P5 + offset,
		P25: b.P25 + offset,
		P50: b.P50 + offset,
		P75: b.P75 + offset,
		P95: b.P95 + offset,
	}
}

// SimulationResult is the aggregate of all trials: per-month bands, the
// cumulative landing distribution and the odds of reaching the target.
type SimulationResult struct {
	Monthly        []Band  `json:"monthly"`
	Landing        Band    `json:"landing"`
	LandingMean    float64 `json:"landing_mean"`
	LandingMin     float64 `json:"landing_min"`
	LandingMax     float64 `json:"landing_max"`
	DownsideMean   float64 `json:"downside_mean"`
	WinProbability float64 `json:"win_probability"`
	Trials         int     `json:"trials"`
}

// ShiftLanding moves the landing distribution by offset, leaving per-month
// bands untouched. A simulation runs over the open months only; adding the
// booked actuals puts the landing back on the full-year scale.
func (r SimulationResult) ShiftLanding(offset float64) SimulationResult {
	r.Landing = r.Landing.Shift(offset)
	r.LandingMean += offset
	r.LandingMin += offset
	r.LandingMax += offset
	r.DownsideMean += offset
	return r
}

// Simulate draws trials paths over the monthly means, each month sampled as
// max(0, mean + z*volatility) with z standard normal. Trials are split
// across workers, each with its own RNG stream derived from the base seed.
func Simulate(means []float64, opts SimOptions) SimulationResult {
	trials := opts.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}

	months := len(means)
	res := SimulationResult{Trials: trials}
	if months == 0 {
		return res
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > trials {
		workers = trials
	}

	// column-major draw matrix: one slice per month plus the landing column,
	// each worker writing only its own trial range
	draws := make([][]float64, months)
	for m := range draws {
		draws[m] = make([]float64, trials)
	}
	landings := make([]float64, trials)

	var wg sync.WaitGroup
	chunk := (trials + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > trials {
			end = trials
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(w))) //nolint:gosec // simulation, not crypto
			for trial := start; trial < end; trial++ {
				var cum float64
				for m := 0; m < months; m++ {
					v := math.Max(0, means[m]+rng.NormFloat64()*opts.Volatility)
					draws[m][trial] = v
					cum += v
				}
				landings[trial] = cum
			}
		}(w, start, end)
	}
	wg.Wait()

	res.Monthly = make([]Band, months)
	for m := 0; m < months; m++ {
		sort.Float64s(draws[m])
		res.Monthly[m] = readBand(draws[m])
	}

	sort.Float64s(landings)
	res.Landing = readBand(landings)
	res.LandingMean = floats.Sum(landings) / float64(trials)
	res.LandingMin = floats.Min(landings)
	res.LandingMax = floats.Max(landings)
	res.DownsideMean = tailMean(landings, 0.05)

	if opts.Target > 0 {
		wins := sort.SearchFloat64s(landings, opts.Target)
		res.WinProbability = float64(trials-wins) / float64(trials)
	}

	return res
}

// readBand indexes a sorted distribution at the fixed cut points using
// floor(n*p).
func readBand(sorted []float64) Band {
	return Band{
		P5:  percentileAt(sorted, 0.05),
		P25: percentileAt(sorted, 0.25),
		P50: percentileAt(sorted, 0.50),
		P75: percentileAt(sorted, 0.75),
		P95: percentileAt(sorted, 0.95),
	}
}

func percentileAt(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}

	return sorted[idx]
}

// tailMean averages the worst alpha share of a sorted distribution.
func tailMean(sorted []float64, alpha float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	n := int(math.Ceil(float64(len(sorted)) * alpha))
	if n < 1 {
		n = 1
	}
	if n > len(sorted) {
		n = len(sorted)
	}

	return floats.Sum(sorted[:n]) / float64(n)
}
