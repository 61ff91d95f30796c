package coordinator

import (
	"strings"

	"github.com/alschell/wealthhorizonai/internal/agent"
)

// Route names the branch a query was dispatched to.
type Route string

// Routes in match order.
const (
	RoutePerformance    Route = "performance"
	RouteScenario       Route = "scenario"
	RouteTradeIdeas     Route = "trade_ideas"
	RouteTrade          Route = "trade"
	RouteReport         Route = "report"
	RouteCompare        Route = "compare"
	RouteAutopilot      Route = "autopilot"
	RouteForecast       Route = "forecast"
	RouteCompliance     Route = "compliance"
	RouteOptimize       Route = "optimize"
	RouteHoldings       Route = "holdings"
	RouteAllocation     Route = "allocation"
	RouteConcentration  Route = "concentration"
	RouteMacroScenarios Route = "macro_scenarios"
	RouteGraphic        Route = "graphic"
	RoutePipeline       Route = "pipeline"
)

// Rule matches a lower-cased query.
type Rule struct {
	Route Route
	Match func(q string) bool
}

func has(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Rules is evaluated top to bottom and the first match wins. Some later
// rules are shadowed by earlier ones ("macro scenarios" always matches
// "scenario"; "compare" without "graphic" always matches the compare rule);
// the order is kept as is.
var Rules = []Rule{
	{RoutePerformance, func(q string) bool { return has(q, "performance") }},
	{RouteScenario, func(q string) bool { return has(q, "scenario") }},
	{RouteTradeIdeas, func(q string) bool { return has(q, "trade ideas") }},
	{RouteTrade, func(q string) bool { return has(q, "sell", "buy") }},
	{RouteReport, func(q string) bool { return has(q, "report") }},
	{RouteCompare, func(q string) bool { return has(q, "compare") && !has(q, "graphic") }},
	{RouteAutopilot, func(q string) bool { return has(q, "autopilot") }},
	{RouteForecast, func(q string) bool { return has(q, "forecast") }},
	{RouteCompliance, func(q string) bool { return has(q, "compliance") }},
	{RouteOptimize, func(q string) bool { return has(q, "optimize") }},
	{RouteHoldings, func(q string) bool { return has(q, "holdings", "cash") }},
	{RouteAllocation, func(q string) bool { return has(q, "asset allocation") }},
	{RouteConcentration, func(q string) bool { return has(q, "concentration", "volatility") }},
	{RouteMacroScenarios, func(q string) bool { return has(q, "macro scenarios") }},
	{RouteGraphic, func(q string) bool {
		return has(q, "graphic") || (has(q, "compare") && has(q, "portfolio", "stock", "index"))
	}},
}

// Classify returns the first matching route, or RoutePipeline.
func Classify(text string) Route {
	q := strings.ToLower(text)
	for _, r := range Rules {
		if r.Match(q) {
			return r.Route
		}
	}
	return RoutePipeline
}

// ScenarioDrop is the market shock for a scenario query.
func ScenarioDrop(text string) float64 {
	if strings.Contains(strings.ToLower(text), "5%") {
		return -0.05
	}
	return -0.10
}

var graphicAliases = []struct {
	item    agent.GraphicItem
	aliases []string
}{
	{agent.GraphicItem{Kind: agent.ItemPortfolio, Name: "P1"}, []string{"portfolio abc", "p1"}},
	{agent.GraphicItem{Kind: agent.ItemPortfolio, Name: "P2"}, []string{"portfolio xyz", "p2"}},
	{agent.GraphicItem{Kind: agent.ItemIndex, Name: "SP500"}, []string{"s&p 500", "sp500"}},
	{agent.GraphicItem{Kind: agent.ItemIndex, Name: "DJIA"}, []string{"dow", "djia"}},
	{agent.GraphicItem{Kind: agent.ItemStock, Name: "TSLA"}, []string{"tesla", "tsla"}},
	{agent.GraphicItem{Kind: agent.ItemStock, Name: "AAPL"}, []string{"apple", "aapl"}},
}

// DefaultGraphicItems are charted when the query names nothing.
var DefaultGraphicItems = []agent.GraphicItem{
	{Kind: agent.ItemPortfolio, Name: "P1"},
	{Kind: agent.ItemIndex, Name: "SP500"},
}

// GraphicItems picks chart series from the query by alias.
func GraphicItems(text string) []agent.GraphicItem {
	q := strings.ToLower(text)
	var items []agent.GraphicItem
	for _, g := range graphicAliases {
		if has(q, g.aliases...) {
			items = append(items, g.item)
		}
	}
	if len(items) == 0 {
		return append([]agent.GraphicItem(nil), DefaultGraphicItems...)
	}
	return items
}
