// backend-go/internal/forecast/curve.go
package forecast

import (
	"math"
	"strings"
)

// Mode identifies which growth regime a fitted model follows.
type Mode int

const (
	ModeStandard Mode = iota
	ModeShift
	ModeDualShift
	ModeRecovery
	ModeStartup
)

var modeLabels = map[Mode]string{
	ModeStandard:  "standard",
	ModeShift:     "shift",
	ModeDualShift: "dual_shift",
	ModeRecovery:  "recovery",
	ModeStartup:   "startup",
}

var modeCodes = map[string]Mode{
	"standard":   ModeStandard,
	"shift":      ModeShift,
	"dual_shift": ModeDualShift,
	"recovery":   ModeRecovery,
	"startup":    ModeStartup,
}

func (m Mode) String() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}

	return "standard"
}

// ParseMode returns the mode for a given label (case-insensitive).
func ParseMode(label string) (Mode, bool) {
	mode, ok := modeCodes[strings.ToLower(strings.TrimSpace(label))]

	return mode, ok
}

// TZeroStrategy names how the inflection point t0 is derived.
// Fitted models either carry an explicit t0 (fixed) or derive it from the
// saturation ratio observed at the series origin (ratio).
type TZeroStrategy int

const (
	TZeroFixed TZeroStrategy = iota
	TZeroRatio
)

const defaultT0 = 12.0

func (s TZeroStrategy) String() string {
	if s == TZeroRatio {
		return "ratio"
	}
	return "fixed"
}

// ParseTZeroStrategy returns the strategy for a given label.
func ParseTZeroStrategy(label string) (TZeroStrategy, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "fixed":
		return TZeroFixed, true
	case "ratio":
		return TZeroRatio, true
	}
	return TZeroFixed, false
}

// Params holds the fitted curve parameters. Depending on the mode only a
// subset is read: standard/startup use K, L, Base and the t0 strategy;
// shift/recovery additionally use LPost; dual_shift uses LPost2 for the
// third phase.
type Params struct {
	K            float64 `json:"k"`
	L            float64 `json:"l"`
	LPost        float64 `json:"l_post,omitempty"`
	LPost2       float64 `json:"l_post2,omitempty"`
	Base         float64 `json:"base"`
	T0           float64 `json:"t0,omitempty"`
	InitialRatio float64 `json:"initial_ratio,omitempty"`
	TZero        TZeroStrategy
}

// Model is a fitted growth model for a single store.
type Model struct {
	Mode       Mode
	Params     Params
	ShockIdx   int
	ShockIdx2  int
	Seasonal   []float64
	Nudge      float64
	NudgeDecay float64
	StdDev     float64
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func logisticAt(t, k, l, t0 float64) float64 {
	return l * sigmoid(k*(t-t0))
}

// inflection resolves t0 for the first growth phase. The ratio strategy
// derives it from the saturation level at t=0 via the logit formula; a ratio
// outside (0,1) falls back to the fixed default.
func (p Params) inflection() float64 {
	switch p.TZero {
	case TZeroRatio:
		r := p.InitialRatio
		if r <= 0 || r >= 1 || p.K == 0 {
			return defaultT0
		}
		return math.Log((1-r)/r) / p.K
	default:
		if p.T0 != 0 {
			return p.T0
		}
		return defaultT0
	}
}

// Evaluate returns the trend value at time index t for the model's regime.
// Phase boundaries are value-continuous: each post-shock phase is re-anchored
// so its value at the shock index equals the previous phase's value there.
// t past the fitted range extrapolates the active phase; the result is never
// negative.
func Evaluate(m Model, t float64) float64 {
	var v float64

	switch m.Mode {
	case ModeShift, ModeRecovery:
		v = evalTwoPhase(m.Params, float64(m.ShockIdx), t)
	case ModeDualShift:
		v = evalThreePhase(m.Params, float64(m.ShockIdx), float64(m.ShockIdx2), t)
	default:
		// standard and startup share the single-phase curve; startup models
		// carry the ratio t0 strategy set by the fitter
		v = m.Params.Base + logisticAt(t, m.Params.K, m.Params.L, m.Params.inflection())
	}

	return math.Max(0, v)
}

func evalTwoPhase(p Params, shock, t float64) float64 {
	t0 := p.inflection()
	if t < shock || shock <= 0 {
		return p.Base + logisticAt(t, p.K, p.L, t0)
	}

	boundary := p.Base + logisticAt(shock, p.K, p.L, t0)
	return evalAnchored(p.Base, p.K, p.LPost, shock, boundary, t)
}

func evalThreePhase(p Params, shock1, shock2, t float64) float64 {
	if shock2 <= shock1 {
		return evalTwoPhase(p, shock1, t)
	}

	if t < shock2 {
		return evalTwoPhase(p, shock1, t)
	}

	boundary := evalTwoPhase(p, shock1, shock2)
	return evalAnchored(p.Base, p.K, p.LPost2, shock2, boundary, t)
}

// evalAnchored continues the curve past a shock toward the new potential
// lNew while matching boundary exactly at t=shock. When the boundary level
// still sits below the new ceiling, the logistic inflection is re-solved so
// the curve passes through the boundary; when the boundary already exceeds
// the ceiling the trend relaxes exponentially down toward it instead (an
// increasing logistic cannot cross its own asymptote).
func evalAnchored(base, k, lNew, shock, boundary, t float64) float64 {
	if lNew <= 0 || k <= 0 {
		return boundary
	}

	y := boundary - base
	if y <= 0 {
		// degenerate boundary; restart a fresh curve at the shock
		return base + logisticAt(t, k, lNew, shock+defaultT0)
	}

	if y < lNew {
		// solve k*(shock - t0') = logit(y/lNew)
		t0p := shock - math.Log(y/(lNew-y))/k
		return base + logisticAt(t, k, lNew, t0p)
	}

	// boundary at or above the new potential: decay toward it at rate k
	return base + lNew + (y-lNew)*math.Exp(-k*(t-shock))
}
