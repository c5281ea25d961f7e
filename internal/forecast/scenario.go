// backend-go/internal/forecast/scenario.go
package forecast

// Scenario bends a fitted model for what-if planning: growth rate, sales
// potential, seasonal swing and volatility each get their own multiplier.
// A multiplier of 1.0 (or 0, treated as unset) leaves that dimension alone.
type Scenario struct {
	Name              string  `json:"name"`
	GrowthMult        float64 `json:"growth_mult"`
	PotentialMult     float64 `json:"potential_mult"`
	SeasonalAmplitude float64 `json:"seasonal_amplitude"`
	VolatilityMult    float64 `json:"volatility_mult"`
}

// DefaultScenarios are the three standard planning cases.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "conservative", GrowthMult: 0.85, PotentialMult: 0.92, SeasonalAmplitude: 1.0, VolatilityMult: 1.25},
		{Name: "base", GrowthMult: 1.0, PotentialMult: 1.0, SeasonalAmplitude: 1.0, VolatilityMult: 1.0},
		{Name: "aggressive", GrowthMult: 1.15, PotentialMult: 1.08, SeasonalAmplitude: 1.0, VolatilityMult: 0.9},
	}
}

// Apply returns a copy of the model bent by the scenario. Seasonal factors
// scale around the neutral 1.0 so amplifying seasonality widens peaks and
// troughs without shifting the annual level.
func (s Scenario) Apply(m Model) Model {
	out := m
	out.Seasonal = append([]float64(nil), m.Seasonal...)

	if mult := orOne(s.GrowthMult); mult != 1 {
		out.Params.K *= mult
	}
	if mult := orOne(s.PotentialMult); mult != 1 {
		out.Params.L *= mult
		out.Params.LPost *= mult
		out.Params.LPost2 *= mult
		out.Params.Base *= mult
	}
	if amp := orOne(s.SeasonalAmplitude); amp != 1 {
		for i, f := range out.Seasonal {
			if f > 0 {
				scaled := 1 + (f-1)*amp
				if scaled < 0 {
					scaled = 0
				}
				out.Seasonal[i] = scaled
			}
		}
	}

	return out
}

// ScaledVolatility applies the scenario's volatility dial to a base standard
// deviation.
func (s Scenario) ScaledVolatility(stdDev float64) float64 {
	return stdDev * orOne(s.VolatilityMult)
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
