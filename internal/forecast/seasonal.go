// backend-go/internal/forecast/seasonal.go
package forecast

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SeasonalSlots is the length of a seasonal profile: one multiplicative
// factor per calendar month.
const SeasonalSlots = 12

// SeasonalFactor returns the multiplicative factor for a calendar month
// index (0 = January). Missing profiles, out-of-range slots and
// non-positive factors all resolve to the neutral 1.0.
func SeasonalFactor(profile []float64, monthIdx int) float64 {
	if monthIdx < 0 || monthIdx >= len(profile) {
		return 1.0
	}
	if profile[monthIdx] <= 0 {
		return 1.0
	}

	return profile[monthIdx]
}

// SeasonalBlend is an averaged seasonal profile built from several reference
// stores, with the per-slot spread retained so callers can judge how much the
// references agree.
type SeasonalBlend struct {
	Factors []float64 `json:"factors"`
	StdDev  []float64 `json:"std_dev"`
	Sources int       `json:"sources"`
}

// BlendSeasonal averages seasonal profiles slot by slot across reference
// stores. Profiles shorter than twelve slots contribute only to the slots
// they cover; a slot no profile covers stays at the neutral factor with zero
// spread.
func BlendSeasonal(profiles [][]float64) SeasonalBlend {
	blend := SeasonalBlend{
		Factors: make([]float64, SeasonalSlots),
		StdDev:  make([]float64, SeasonalSlots),
	}

	for slot := 0; slot < SeasonalSlots; slot++ {
		var values []float64
		for _, p := range profiles {
			if slot < len(p) && p[slot] > 0 {
				values = append(values, p[slot])
			}
		}

		switch len(values) {
		case 0:
			blend.Factors[slot] = 1.0
		case 1:
			blend.Factors[slot] = values[0]
		default:
			blend.Factors[slot] = stat.Mean(values, nil)
			blend.StdDev[slot] = stat.StdDev(values, nil)
		}
	}

	blend.Sources = len(profiles)

	return blend
}

// Band returns the lower and upper seasonal factor for a slot at the given
// confidence level, derived from the cross-store spread.
func (b SeasonalBlend) Band(monthIdx int, confidence float64) (float64, float64) {
	factor := SeasonalFactor(b.Factors, monthIdx)
	if monthIdx < 0 || monthIdx >= len(b.StdDev) || b.StdDev[monthIdx] == 0 {
		return factor, factor
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	spread := z * b.StdDev[monthIdx]

	lower := factor - spread
	if lower < 0 {
		lower = 0
	}

	return lower, factor + spread
}
