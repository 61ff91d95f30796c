package agent

import (
	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
)

// Drivers breaks a portfolio's return into its sources.
type Drivers struct {
	Market   float64             `json:"market" msgpack:"market"`
	Currency estimators.Estimate `json:"currency" msgpack:"currency"`
	Income   float64             `json:"income" msgpack:"income"`
}

// PerformanceMetrics is one portfolio's performance row.
type PerformanceMetrics struct {
	AnnualReturn float64               `json:"annual_return" msgpack:"annual_return"`
	Volatility   float64               `json:"volatility" msgpack:"volatility"`
	Sharpe       float64               `json:"sharpe" msgpack:"sharpe"`
	Beta         float64               `json:"beta" msgpack:"beta"`
	Income       estimators.Estimate   `json:"income" msgpack:"income"`
	Drivers      Drivers               `json:"drivers" msgpack:"drivers"`
	Attribution  portfolio.Attribution `json:"attribution" msgpack:"attribution"`
	ESGScore     estimators.Estimate   `json:"esg_score" msgpack:"esg_score"`
}

// Performance is keyed by portfolio id.
type Performance map[string]PerformanceMetrics

// PerformanceReview is the performance route's result.
type PerformanceReview struct {
	Performance Performance `json:"performance" msgpack:"performance"`
	Critique    string      `json:"critique" msgpack:"critique"`
}

// RiskMetrics is one portfolio's concentration and volatility.
type RiskMetrics struct {
	HHI                  float64 `json:"hhi" msgpack:"hhi"`
	DiversificationScore float64 `json:"diversification_score" msgpack:"diversification_score"`
	AnnualVolatility     float64 `json:"annual_volatility" msgpack:"annual_volatility"`
}

// ConcentrationRisk is keyed by portfolio id.
type ConcentrationRisk map[string]RiskMetrics

// AssetAllocation maps portfolio id -> asset class -> weight.
type AssetAllocation map[string]map[string]float64

// ScenarioImpact is one portfolio's simulated scenario outcome.
type ScenarioImpact struct {
	MeanImpact      float64              `json:"mean_impact" msgpack:"mean_impact"`
	VaR95           float64              `json:"var_95" msgpack:"var_95"`
	HedgeSuggestion string               `json:"hedge_suggestion" msgpack:"hedge_suggestion"`
	TaxOptimization string               `json:"tax_optimization" msgpack:"tax_optimization"`
	ESGMultiplier   *estimators.Estimate `json:"esg_multiplier,omitempty" msgpack:"esg_multiplier,omitempty"`
}

// ScenarioAnalysis is keyed by portfolio id.
type ScenarioAnalysis map[string]ScenarioImpact

// PortfolioHoldings is a portfolio's positions and cash.
type PortfolioHoldings struct {
	Holdings map[string]portfolio.Holding `json:"holdings" msgpack:"holdings"`
	Cash     map[string]float64           `json:"cash" msgpack:"cash"`
}

// HoldingsCash is keyed by portfolio id.
type HoldingsCash map[string]PortfolioHoldings

// ComparisonRow is one line of the comparison table.
type ComparisonRow struct {
	Portfolio    string  `json:"portfolio" msgpack:"portfolio"`
	AnnualReturn float64 `json:"annual_return" msgpack:"annual_return"`
	Volatility   float64 `json:"volatility" msgpack:"volatility"`
	Sharpe       float64 `json:"sharpe" msgpack:"sharpe"`
	Beta         float64 `json:"beta" msgpack:"beta"`
	Income       float64 `json:"income" msgpack:"income"`
	ESGScore     float64 `json:"esg_score" msgpack:"esg_score"`
}

// Comparison is the compare route's result. Difference is the second row
// minus the first and is present only with two or more portfolios.
type Comparison struct {
	Table      string          `json:"table" msgpack:"table"`
	Rows       []ComparisonRow `json:"rows" msgpack:"rows"`
	Difference *ComparisonRow  `json:"difference,omitempty" msgpack:"difference,omitempty"`
}

// RebalanceIntent is a logged, unexecuted autopilot order.
type RebalanceIntent struct {
	Portfolio string  `json:"portfolio" msgpack:"portfolio"`
	Asset     string  `json:"asset" msgpack:"asset"`
	Side      string  `json:"side" msgpack:"side"`
	Quantity  float64 `json:"qty" msgpack:"qty"`
	Drift     float64 `json:"drift" msgpack:"drift"`
}

// AutopilotReport summarises an autopilot run.
type AutopilotReport struct {
	Message       string            `json:"message" msgpack:"message"`
	Intents       []RebalanceIntent `json:"intents" msgpack:"intents"`
	MemorySize    int               `json:"memory_size" msgpack:"memory_size"`
	PolicyUpdates int               `json:"policy_updates" msgpack:"policy_updates"`
}

// Forecasts maps asset -> predicted return score.
type Forecasts map[string]float64

// MarketSnapshot maps instrument -> date -> price.
type MarketSnapshot map[string]map[string]float64
