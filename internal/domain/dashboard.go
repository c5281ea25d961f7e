// backend-go/internal/domain/dashboard.go
package domain

import "github.com/glowmart/storesight/backend-go/internal/forecast"

// ForecastPoint represents one projected month with its composition
type ForecastPoint struct {
	Date           string  `json:"date"`
	BaseValue      float64 `json:"base_value"`
	SeasonalFactor float64 `json:"seasonal_factor"`
	Nudge          float64 `json:"nudge_contribution"`
	Total          float64 `json:"total"`
}

// ForecastResponse represents the projection for a single store
type ForecastResponse struct {
	StoreID     int64           `json:"store_id"`
	StoreName   string          `json:"store_name"`
	Mode        string          `json:"mode"`
	Horizon     int             `json:"horizon"`
	GeneratedAt string          `json:"generated_at"`
	Points      []ForecastPoint `json:"points"`
}

// LandingResponse represents the projected year-end outcome for a store
type LandingResponse struct {
	StoreID         int64  `json:"store_id"`
	StoreName       string `json:"store_name"`
	FiscalYear      int    `json:"fiscal_year"`
	ClosedMonths    int    `json:"closed_months"`
	RemainingMonths int    `json:"remaining_months"`

	forecast.LandingSummary
}

// SimulationResponse represents Monte-Carlo bands for a store's remaining year
type SimulationResponse struct {
	StoreID    int64    `json:"store_id"`
	StoreName  string   `json:"store_name"`
	FiscalYear int      `json:"fiscal_year"`
	Months     []string `json:"months"`
	Volatility float64  `json:"volatility"`
	Target     float64  `json:"target"`

	forecast.SimulationResult
}

// ScenarioRequest represents the what-if dials applied to a fitted model
type ScenarioRequest struct {
	Name              string  `json:"name"`
	GrowthMult        float64 `json:"growth_mult"`
	PotentialMult     float64 `json:"potential_mult"`
	SeasonalAmplitude float64 `json:"seasonal_amplitude"`
	VolatilityMult    float64 `json:"volatility_mult"`
	Trials            int     `json:"trials"`
	Seed              int64   `json:"seed"`
}

// ScenarioResponse represents a store's outlook under one scenario
type ScenarioResponse struct {
	StoreID    int64                     `json:"store_id"`
	StoreName  string                    `json:"store_name"`
	Scenario   string                    `json:"scenario"`
	FiscalYear int                       `json:"fiscal_year"`
	Points     []ForecastPoint           `json:"points"`
	Landing    forecast.LandingSummary   `json:"landing"`
	Simulation forecast.SimulationResult `json:"simulation"`
}

// AreaOverview represents one area's aggregate on the chain overview
type AreaOverview struct {
	Area        string  `json:"area"`
	Stores      int     `json:"stores"`
	Actual      float64 `json:"actual"`
	Budget      float64 `json:"budget"`
	Landing     float64 `json:"landing"`
	Achievement float64 `json:"achievement"`
}

// ChainOverview represents the chain-level dashboard header
type ChainOverview struct {
	FiscalYear         int            `json:"fiscal_year"`
	TotalStores        int            `json:"total_stores"`
	ActiveStores       int            `json:"active_stores"`
	CumulativeActual   float64        `json:"cumulative_actual"`
	CumulativeBudget   float64        `json:"cumulative_budget"`
	TotalBudget        float64        `json:"total_budget"`
	Landing            float64        `json:"landing"`
	LandingDiff        float64        `json:"landing_diff"`
	LandingAchievement float64        `json:"landing_achievement"`
	StoresOnTarget     int            `json:"stores_on_target"`
	Areas              []AreaOverview `json:"areas"`
}

// ConcentrationSummary represents how unevenly sales spread across the chain
type ConcentrationSummary struct {
	FiscalYear int                 `json:"fiscal_year"`
	Gini       float64             `json:"gini"`
	TopShare   float64             `json:"top_share"`
	TopN       int                 `json:"top_n"`
	Entries    []forecast.ABCEntry `json:"entries"`
}

// SimilarityPair represents how closely a peer store's pattern tracks the anchor
type SimilarityPair struct {
	StoreID     int64   `json:"store_id"`
	StoreName   string  `json:"store_name"`
	Correlation float64 `json:"correlation"`
}

// AreaCohesion represents how uniformly an area's top stores move together
type AreaCohesion struct {
	Area     string  `json:"area"`
	Stores   int     `json:"stores"`
	Cohesion float64 `json:"cohesion"`
}

// SimilarityResponse represents pattern similarity across the chain
type SimilarityResponse struct {
	StoreID   int64            `json:"store_id,omitempty"`
	StoreName string           `json:"store_name,omitempty"`
	Peers     []SimilarityPair `json:"peers,omitempty"`
	Areas     []AreaCohesion   `json:"areas"`
}

// BridgeResponse represents the year-over-year waterfall
type BridgeResponse struct {
	FiscalYear   int                   `json:"fiscal_year"`
	PriorYear    int                   `json:"prior_year"`
	PriorTotal   float64               `json:"prior_total"`
	CurrentTotal float64               `json:"current_total"`
	Steps        []forecast.BridgeStep `json:"steps"`
}

// DecompositionResponse represents the trend/seasonal/residual split for a store
type DecompositionResponse struct {
	StoreID       int64      `json:"store_id"`
	StoreName     string     `json:"store_name"`
	Months        []string   `json:"months"`
	Trend         []*float64 `json:"trend"`
	Seasonal      []float64  `json:"seasonal"`
	Residual      []*float64 `json:"residual"`
	SeasonalIndex []float64  `json:"seasonal_index"`
	TrendShare    float64    `json:"trend_share"`
	SeasonalShare float64    `json:"seasonal_share"`
	ResidualShare float64    `json:"residual_share"`
}
