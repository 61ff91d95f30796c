// Package coordinator routes free-text queries to capability operations and
// assembles their results.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/state"
	"github.com/alschell/wealthhorizonai/internal/utils"
)

// Registry maps each capability to its factory.
type Registry map[agent.Capability]agent.Factory

// Observer receives query and delegation outcomes.
type Observer interface {
	ObserveQuery(route string, d time.Duration, err error)
	ObserveDelegation(capability, operation string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, time.Duration, error)              {}
func (nopObserver) ObserveDelegation(string, string, time.Duration, error) {}

// Result is a query's outcome.
type Result struct {
	Route Route `json:"route" msgpack:"route"`
	Value any   `json:"result" msgpack:"result"`
}

// Coordinator classifies queries and delegates to capabilities. Delegation
// is sequential; each call builds a fresh agent bound to shared state.
type Coordinator struct {
	state    *state.State
	registry Registry
	observer Observer
	log      zerolog.Logger
}

// New creates a coordinator. observer may be nil.
func New(s *state.State, registry Registry, observer Observer, log zerolog.Logger) *Coordinator {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Coordinator{
		state:    s,
		registry: registry,
		observer: observer,
		log:      log.With().Str("component", "coordinator").Logger(),
	}
}

// State returns the shared state the coordinator operates on.
func (c *Coordinator) State() *state.State {
	return c.state
}

// Delegate implements agent.Delegator.
func (c *Coordinator) Delegate(ctx context.Context, capability agent.Capability, op agent.Operation, p agent.Params) (any, error) {
	factory, ok := c.registry[capability]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrUnknownCapability, capability)
	}

	timer := utils.NewTimer(string(capability)+"."+string(op), c.log)
	res, err := factory(c.state, c).Invoke(ctx, op, p)
	c.observer.ObserveDelegation(string(capability), string(op), timer.Stop(), err)
	return res, err
}

// ProcessQuery classifies text and runs the matching route.
func (c *Coordinator) ProcessQuery(ctx context.Context, text string) (Result, error) {
	route := Classify(text)
	c.log.Info().Str("query", text).Str("route", string(route)).Msg("Processing query")

	timer := utils.NewTimer("query:"+string(route), c.log)
	value, err := c.run(ctx, route, text)
	c.observer.ObserveQuery(string(route), timer.Stop(), err)
	if err != nil {
		return Result{Route: route}, fmt.Errorf("%s query: %w", route, err)
	}
	return Result{Route: route, Value: value}, nil
}

func (c *Coordinator) run(ctx context.Context, route Route, text string) (any, error) {
	switch route {
	case RoutePerformance:
		perf, err := agent.As[agent.Performance](ctx, c, agent.Analysis, agent.GetPerformance, agent.Params{})
		if err != nil {
			return nil, err
		}
		critique, err := agent.As[string](ctx, c, agent.Compliance, agent.CheckCompliance, agent.Params{})
		if err != nil {
			return nil, err
		}
		return agent.PerformanceReview{Performance: perf, Critique: critique}, nil
	case RouteScenario:
		return c.Delegate(ctx, agent.Risk, agent.AnalyzeScenario, agent.Params{Drop: ScenarioDrop(text), ScenarioName: text})
	case RouteTradeIdeas:
		return c.Delegate(ctx, agent.Trade, agent.GenerateIdeas, agent.Params{})
	case RouteTrade:
		return c.Delegate(ctx, agent.Trade, agent.ExecuteTrade, agent.Params{Action: text})
	case RouteReport:
		return c.Delegate(ctx, agent.Analysis, agent.GenerateReport, agent.Params{})
	case RouteCompare:
		return c.Delegate(ctx, agent.Analysis, agent.ComparePortfolios, agent.Params{})
	case RouteAutopilot:
		return c.Delegate(ctx, agent.Trade, agent.AutopilotRebalance, agent.Params{})
	case RouteForecast:
		return c.Delegate(ctx, agent.Forecasting, agent.ForecastReturns, agent.Params{})
	case RouteCompliance:
		return c.Delegate(ctx, agent.Compliance, agent.CheckCompliance, agent.Params{})
	case RouteOptimize:
		return c.Delegate(ctx, agent.Analysis, agent.OptimizePortfolios, agent.Params{})
	case RouteHoldings:
		return c.Delegate(ctx, agent.Analysis, agent.GetHoldingsCash, agent.Params{})
	case RouteAllocation:
		return c.Delegate(ctx, agent.Analysis, agent.GetAssetAllocation, agent.Params{})
	case RouteConcentration:
		return c.Delegate(ctx, agent.Risk, agent.GetConcentrationRisk, agent.Params{})
	case RouteMacroScenarios:
		return c.Delegate(ctx, agent.Risk, agent.GetMacroScenarios, agent.Params{})
	case RouteGraphic:
		return c.Delegate(ctx, agent.Analysis, agent.CreateGraphic, agent.Params{Items: GraphicItems(text)})
	default:
		return c.pipeline(ctx)
	}
}

// pipeline runs research, forecasting, performance, a 5% scenario and
// trade ideas in that order and summarises them in one line.
func (c *Coordinator) pipeline(ctx context.Context) (string, error) {
	market, err := agent.As[agent.MarketSnapshot](ctx, c, agent.Research, agent.GetMarketData, agent.Params{})
	if err != nil {
		return "", err
	}
	c.log.Debug().Int("instruments", len(market)).Msg("Pipeline market data loaded")

	forecasts, err := c.Delegate(ctx, agent.Forecasting, agent.ForecastReturns, agent.Params{})
	if err != nil {
		return "", err
	}
	perf, err := c.Delegate(ctx, agent.Analysis, agent.GetPerformance, agent.Params{})
	if err != nil {
		return "", err
	}
	risk, err := c.Delegate(ctx, agent.Risk, agent.AnalyzeScenario, agent.Params{Drop: -0.05})
	if err != nil {
		return "", err
	}
	ideas, err := c.Delegate(ctx, agent.Trade, agent.GenerateIdeas, agent.Params{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("End-to-end analysis: Performance %v, Forecasts %v, Risk %v, Ideas %v", perf, forecasts, risk, ideas), nil
}
