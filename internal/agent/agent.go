// Package agent defines the typed contract between the coordinator and the
// capability modules: the closed capability and operation sets, delegation
// parameters, and the result shapes passed between capabilities.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/alschell/wealthhorizonai/internal/state"
)

// Capability names a capability module.
type Capability string

const (
	Analysis    Capability = "analysis"
	Compliance  Capability = "compliance"
	Forecasting Capability = "forecasting"
	Research    Capability = "research"
	Risk        Capability = "risk_scenario"
	Trade       Capability = "trade"
)

// Operation names an operation on a capability.
type Operation string

const (
	GetPerformance       Operation = "get_performance"
	ComparePortfolios    Operation = "compare_portfolios"
	GenerateReport       Operation = "generate_report"
	GetHoldingsCash      Operation = "get_holdings_cash"
	GetAssetAllocation   Operation = "get_asset_allocation"
	OptimizePortfolios   Operation = "optimize_portfolios"
	CreateGraphic        Operation = "create_graphic"
	CheckCompliance      Operation = "check_compliance"
	ForecastReturns      Operation = "forecast_returns"
	GetMarketData        Operation = "get_market_data"
	AnalyzeScenario      Operation = "analyze_scenario"
	GetConcentrationRisk Operation = "get_concentration_risk"
	GetMacroScenarios    Operation = "get_macro_scenarios"
	GenerateIdeas        Operation = "generate_ideas"
	ExecuteTrade         Operation = "execute_trade"
	AutopilotRebalance   Operation = "autopilot_rebalance"
)

var (
	// ErrUnknownCapability is returned when delegating to a capability that
	// is not registered.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrUnknownOperation is returned when a capability does not implement
	// the requested operation.
	ErrUnknownOperation = errors.New("unknown operation")
)

// UnknownOperation wraps ErrUnknownOperation with the names involved.
func UnknownOperation(c Capability, op Operation) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownOperation, c, op)
}

// Graphic item kinds.
const (
	ItemPortfolio = "portfolio"
	ItemIndex     = "index"
	ItemStock     = "stock"
)

// GraphicItem is one series to overlay on a chart.
type GraphicItem struct {
	Kind string `json:"kind" msgpack:"kind"`
	Name string `json:"name" msgpack:"name"`
}

// Params carries the optional inputs of an operation. Operations read only
// the fields they need; the zero value is valid for every operation.
type Params struct {
	Drop         float64       // scenario shock, e.g. -0.05
	ScenarioName string        // scenario label; "climate" applies the ESG multiplier
	Action       string        // free-text trade instruction
	Items        []GraphicItem // chart series
}

// Agent is a capability bound to shared state for one delegation.
type Agent interface {
	Invoke(ctx context.Context, op Operation, p Params) (any, error)
}

// Delegator routes a call to another capability. Capabilities reach each
// other only through it.
type Delegator interface {
	Delegate(ctx context.Context, c Capability, op Operation, p Params) (any, error)
}

// Factory builds a capability bound to shared state.
type Factory func(s *state.State, d Delegator) Agent

// As delegates and asserts the result type.
func As[T any](ctx context.Context, d Delegator, c Capability, op Operation, p Params) (T, error) {
	var zero T
	res, err := d.Delegate(ctx, c, op, p)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%s.%s returned %T, want %T", c, op, res, zero)
	}
	return typed, nil
}
