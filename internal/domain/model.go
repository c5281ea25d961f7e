// backend-go/internal/domain/model.go
package domain

import (
	"time"

	"github.com/lib/pq"

	"github.com/glowmart/storesight/backend-go/internal/forecast"
)

// StoreModel represents the fitted growth model persisted for a store
type StoreModel struct {
	ID           int64           `json:"id" db:"id"`
	StoreID      int64           `json:"store_id" db:"store_id"`
	Mode         string          `json:"mode" db:"mode"`
	K            float64         `json:"k" db:"k"`
	L            float64         `json:"l" db:"l"`
	LPost        float64         `json:"l_post" db:"l_post"`
	LPost2       float64         `json:"l_post2" db:"l_post2"`
	Base         float64         `json:"base" db:"base"`
	T0Strategy   string          `json:"t0_strategy" db:"t0_strategy"`
	T0           float64         `json:"t0" db:"t0"`
	InitialRatio float64         `json:"initial_ratio" db:"initial_ratio"`
	ShockIdx     int             `json:"shock_idx" db:"shock_idx"`
	ShockIdx2    int             `json:"shock_idx2" db:"shock_idx2"`
	Nudge        float64         `json:"nudge" db:"nudge"`
	NudgeDecay   float64         `json:"nudge_decay" db:"nudge_decay"`
	StdDev       float64         `json:"std_dev" db:"std_dev"`
	Seasonal     pq.Float64Array `json:"seasonal" db:"seasonal"`
	SeriesStart  time.Time       `json:"series_start" db:"series_start"`
	SampleMonths int             `json:"sample_months" db:"sample_months"`
	RMSE         float64         `json:"rmse" db:"rmse"`
	MAPE         float64         `json:"mape" db:"mape"`
	FittedAt     time.Time       `json:"fitted_at" db:"fitted_at"`
}

// ForecastModel converts the persisted row into the evaluator's form.
// Unknown mode or strategy labels degrade to the standard curve rather than
// failing the request.
func (m *StoreModel) ForecastModel() forecast.Model {
	mode, _ := forecast.ParseMode(m.Mode)
	strategy, _ := forecast.ParseTZeroStrategy(m.T0Strategy)

	return forecast.Model{
		Mode: mode,
		Params: forecast.Params{
			K:            m.K,
			L:            m.L,
			LPost:        m.LPost,
			LPost2:       m.LPost2,
			Base:         m.Base,
			T0:           m.T0,
			InitialRatio: m.InitialRatio,
			TZero:        strategy,
		},
		ShockIdx:   m.ShockIdx,
		ShockIdx2:  m.ShockIdx2,
		Seasonal:   append([]float64(nil), m.Seasonal...),
		Nudge:      m.Nudge,
		NudgeDecay: m.NudgeDecay,
		StdDev:     m.StdDev,
	}
}

// NextIndex returns the curve time index for the first month after the
// fitted sample.
func (m *StoreModel) NextIndex() int {
	return m.SampleMonths
}
