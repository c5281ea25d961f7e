// backend-go/internal/forecast/decompose.go
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Decomposition splits a monthly series into multiplicative components:
// raw[i] = Trend[i] * Seasonal[i] * Residual[i]. Edges the centered moving
// average cannot cover carry NaN in Trend and Residual.
type Decomposition struct {
	Trend         []float64 `json:"trend"`
	Seasonal      []float64 `json:"seasonal"`
	Residual      []float64 `json:"residual"`
	SeasonalIndex []float64 `json:"seasonal_index"`

	TrendShare    float64 `json:"trend_share"`
	SeasonalShare float64 `json:"seasonal_share"`
	ResidualShare float64 `json:"residual_share"`
}

// Decompose runs a classical multiplicative decomposition over a monthly
// series. startMonthIdx is the calendar month of raw[0] (0 = January). The
// trend is a centered 12-month moving average (split-endpoint, so the window
// stays symmetric), the seasonal index is the per-calendar-month mean of
// raw/trend normalized to average 1.0, and the residual is what remains.
// Fewer than two full years of data yields a flat seasonal index.
func Decompose(raw []float64, startMonthIdx int) Decomposition {
	n := len(raw)
	d := Decomposition{
		Trend:         make([]float64, n),
		Seasonal:      make([]float64, n),
		Residual:      make([]float64, n),
		SeasonalIndex: make([]float64, SeasonalSlots),
	}
	for i := range d.SeasonalIndex {
		d.SeasonalIndex[i] = 1.0
	}

	d.computeTrend(raw)
	d.computeSeasonal(raw, startMonthIdx)
	d.computeResidual(raw, startMonthIdx)
	d.computeShares(raw)

	return d
}

// computeTrend fills the centered MA-12: the mean of the surrounding twelve
// months with the two boundary months half-weighted.
func (d *Decomposition) computeTrend(raw []float64) {
	n := len(raw)
	half := SeasonalSlots / 2

	for i := range d.Trend {
		if i < half || i+half >= n {
			d.Trend[i] = math.NaN()
			continue
		}

		var sum float64
		sum += raw[i-half] / 2
		sum += raw[i+half] / 2
		for j := i - half + 1; j < i+half; j++ {
			sum += raw[j]
		}
		d.Trend[i] = sum / float64(SeasonalSlots)
	}
}

func (d *Decomposition) computeSeasonal(raw []float64, startMonthIdx int) {
	// under two full years a slot would get at most one ratio; keep the
	// neutral index instead of echoing noise
	if len(raw) < 2*SeasonalSlots {
		for i := range raw {
			d.Seasonal[i] = 1.0
		}
		return
	}

	ratios := make([][]float64, SeasonalSlots)
	for i, v := range raw {
		t := d.Trend[i]
		if math.IsNaN(t) || t == 0 {
			continue
		}
		slot := monthSlot(startMonthIdx, i)
		ratios[slot] = append(ratios[slot], v/t)
	}

	index := make([]float64, SeasonalSlots)
	var covered int
	var total float64
	for slot, r := range ratios {
		if len(r) == 0 {
			index[slot] = 1.0
			continue
		}
		index[slot] = stat.Mean(r, nil)
		total += index[slot]
		covered++
	}

	// normalize covered slots so the index averages to 1.0 and seasonality
	// redistributes within a year instead of shifting its level
	if covered > 0 && total > 0 {
		scale := float64(covered) / total
		for slot, r := range ratios {
			if len(r) > 0 {
				index[slot] *= scale
			}
		}
	}

	d.SeasonalIndex = index
	for i := range raw {
		d.Seasonal[i] = index[monthSlot(startMonthIdx, i)]
	}
}

func (d *Decomposition) computeResidual(raw []float64, startMonthIdx int) {
	for i, v := range raw {
		t := d.Trend[i]
		s := d.Seasonal[i]
		if math.IsNaN(t) || t == 0 || s == 0 {
			d.Residual[i] = math.NaN()
			continue
		}
		d.Residual[i] = v / (t * s)
	}
}

// computeShares attributes the series variance to its components over the
// indexes where all three are defined. Shares are normalized to sum to 1.
func (d *Decomposition) computeShares(raw []float64) {
	var trendPart, seasonalPart, residualPart []float64
	for i := range raw {
		if math.IsNaN(d.Trend[i]) || math.IsNaN(d.Residual[i]) {
			continue
		}
		trendPart = append(trendPart, d.Trend[i])
		seasonalPart = append(seasonalPart, d.Trend[i]*d.Seasonal[i])
		residualPart = append(residualPart, raw[i])
	}

	if len(trendPart) < 2 {
		return
	}

	vTrend := stat.Variance(trendPart, nil)
	vSeasonal := math.Max(0, stat.Variance(seasonalPart, nil)-vTrend)
	vResidual := math.Max(0, stat.Variance(residualPart, nil)-vTrend-vSeasonal)

	total := vTrend + vSeasonal + vResidual
	if total == 0 {
		return
	}

	d.TrendShare = vTrend / total
	d.SeasonalShare = vSeasonal / total
	d.ResidualShare = vResidual / total
}

func monthSlot(startMonthIdx, offset int) int {
	return ((startMonthIdx+offset)%SeasonalSlots + SeasonalSlots) % SeasonalSlots
}
