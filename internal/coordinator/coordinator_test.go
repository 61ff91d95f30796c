package coordinator_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/coordinator"
	"github.com/alschell/wealthhorizonai/internal/modules/analysis"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
	"github.com/alschell/wealthhorizonai/internal/modules/compliance"
	"github.com/alschell/wealthhorizonai/internal/modules/forecasting"
	"github.com/alschell/wealthhorizonai/internal/modules/research"
	"github.com/alschell/wealthhorizonai/internal/modules/risk"
	"github.com/alschell/wealthhorizonai/internal/modules/trade"
	"github.com/alschell/wealthhorizonai/internal/reports"
	"github.com/alschell/wealthhorizonai/internal/state"
	testutil "github.com/alschell/wealthhorizonai/internal/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRenderer struct{}

func (stubRenderer) RenderOverlay(string, []charts.Series) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type recordingObserver struct {
	mu          sync.Mutex
	queries     []string
	delegations []string
}

func (o *recordingObserver) ObserveQuery(route string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries = append(o.queries, route)
}

func (o *recordingObserver) ObserveDelegation(c, op string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delegations = append(o.delegations, c+"."+op)
}

func newCoordinator(t *testing.T) (*coordinator.Coordinator, *recordingObserver, string) {
	t.Helper()
	log := zerolog.Nop()
	dir := t.TempDir()

	s := state.NewWithMarket(testutil.NewMarketFixture(),
		state.Options{Seed: 21, MemoryCapacity: 100, MonteCarloSamples: 200},
		testutil.NewP1(), testutil.NewP2())
	s.Placeholders = testutil.NewFixedPlaceholders()
	s.Scenarios = []state.Scenario{
		{Name: "Recession", Probability: 0.25, Hedge: "Buy puts"},
		{Name: "Inflation", Probability: 0.30, Hedge: "Add TIPS"},
	}

	registry := coordinator.Registry{
		agent.Analysis:    analysis.Factory(stubRenderer{}, reports.NewExporter(dir, nil, log), log),
		agent.Compliance:  compliance.Factory(log),
		agent.Forecasting: forecasting.Factory(log),
		agent.Research:    research.Factory(log),
		agent.Risk:        risk.Factory(log),
		agent.Trade:       trade.Factory(log),
	}
	obs := &recordingObserver{}
	return coordinator.New(s, registry, obs, log), obs, dir
}

func TestClassify(t *testing.T) {
	queries := map[string]coordinator.Route{
		"Show me performance":                     coordinator.RoutePerformance,
		"performance report":                      coordinator.RoutePerformance,
		"Run a 5% drop scenario":                  coordinator.RouteScenario,
		"macro scenarios":                         coordinator.RouteScenario,
		"any trade ideas?":                        coordinator.RouteTradeIdeas,
		"buy trade ideas":                         coordinator.RouteTradeIdeas,
		"Sell half Apple and deposit":             coordinator.RouteTrade,
		"buy more":                                coordinator.RouteTrade,
		"generate report":                         coordinator.RouteReport,
		"forecast report":                         coordinator.RouteReport,
		"compare portfolios":                      coordinator.RouteCompare,
		"compare portfolio abc with s&p 500":      coordinator.RouteCompare,
		"run autopilot":                           coordinator.RouteAutopilot,
		"forecast returns":                        coordinator.RouteForecast,
		"compliance check":                        coordinator.RouteCompliance,
		"optimize":                                coordinator.RouteOptimize,
		"show holdings":                           coordinator.RouteHoldings,
		"how much cash":                           coordinator.RouteHoldings,
		"asset allocation":                        coordinator.RouteAllocation,
		"concentration":                           coordinator.RouteConcentration,
		"volatility":                              coordinator.RouteConcentration,
		"graphic compare portfolio p1 to sp500":   coordinator.RouteGraphic,
		"draw a graphic of tesla":                 coordinator.RouteGraphic,
		"hello":                                   coordinator.RoutePipeline,
		"":                                        coordinator.RoutePipeline,
	}

	got := make(map[string]coordinator.Route, len(queries))
	for q := range queries {
		got[q] = coordinator.Classify(q)
	}
	if diff := cmp.Diff(queries, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleOrder(t *testing.T) {
	want := []coordinator.Route{
		coordinator.RoutePerformance, coordinator.RouteScenario, coordinator.RouteTradeIdeas,
		coordinator.RouteTrade, coordinator.RouteReport, coordinator.RouteCompare,
		coordinator.RouteAutopilot, coordinator.RouteForecast, coordinator.RouteCompliance,
		coordinator.RouteOptimize, coordinator.RouteHoldings, coordinator.RouteAllocation,
		coordinator.RouteConcentration, coordinator.RouteMacroScenarios, coordinator.RouteGraphic,
	}
	got := make([]coordinator.Route, len(coordinator.Rules))
	for i, r := range coordinator.Rules {
		got[i] = r.Route
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphicItems(t *testing.T) {
	tests := []struct {
		query string
		want  []agent.GraphicItem
	}{
		{"graphic compare portfolio p1 to sp500", []agent.GraphicItem{
			{Kind: agent.ItemPortfolio, Name: "P1"},
			{Kind: agent.ItemIndex, Name: "SP500"},
		}},
		{"graphic of Portfolio XYZ, the Dow and Apple", []agent.GraphicItem{
			{Kind: agent.ItemPortfolio, Name: "P2"},
			{Kind: agent.ItemIndex, Name: "DJIA"},
			{Kind: agent.ItemStock, Name: "AAPL"},
		}},
		{"graphic tsla vs S&P 500", []agent.GraphicItem{
			{Kind: agent.ItemIndex, Name: "SP500"},
			{Kind: agent.ItemStock, Name: "TSLA"},
		}},
		{"graphic please", coordinator.DefaultGraphicItems},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, coordinator.GraphicItems(tt.query)); diff != "" {
			t.Errorf("GraphicItems(%q) mismatch (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestScenarioDrop(t *testing.T) {
	assert.Equal(t, -0.05, coordinator.ScenarioDrop("a 5% scenario"))
	assert.Equal(t, -0.10, coordinator.ScenarioDrop("a scenario"))
	// "15%" contains "5%".
	assert.Equal(t, -0.05, coordinator.ScenarioDrop("15% scenario"))
}

func TestProcessQuery_Graphic(t *testing.T) {
	c, obs, _ := newCoordinator(t)

	res, err := c.ProcessQuery(context.Background(), "graphic compare portfolio p1 to sp500")
	require.NoError(t, err)
	assert.Equal(t, coordinator.RouteGraphic, res.Route)
	uri, ok := res.Value.(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, []string{"analysis.create_graphic"}, obs.delegations)
	assert.Equal(t, []string{"graphic"}, obs.queries)
}

func TestProcessQuery_PerformanceRunsComplianceAfterRisk(t *testing.T) {
	c, obs, _ := newCoordinator(t)

	res, err := c.ProcessQuery(context.Background(), "How is performance?")
	require.NoError(t, err)
	review, ok := res.Value.(agent.PerformanceReview)
	require.True(t, ok)
	assert.Len(t, review.Performance, 2)
	// P1 holds BTC, so the AML note always fires.
	assert.Contains(t, review.Critique, "Note: P1 crypto holdings flagged for AML review")

	// Delegations are recorded on completion, so nested calls come first.
	want := []string{
		"analysis.get_performance",
		"risk_scenario.get_concentration_risk",
		"analysis.get_asset_allocation",
		"compliance.check_compliance",
	}
	if diff := cmp.Diff(want, obs.delegations); diff != "" {
		t.Errorf("delegation order mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessQuery_MacroScenariosHitsScenarioRoute(t *testing.T) {
	c, _, _ := newCoordinator(t)

	res, err := c.ProcessQuery(context.Background(), "macro scenarios")
	require.NoError(t, err)
	assert.Equal(t, coordinator.RouteScenario, res.Route)
	impacts, ok := res.Value.(agent.ScenarioAnalysis)
	require.True(t, ok)
	assert.Contains(t, impacts, "P1")
	assert.Contains(t, impacts, "P2")
}

func TestProcessQuery_TradeAndReport(t *testing.T) {
	c, _, dir := newCoordinator(t)
	ctx := context.Background()

	res, err := c.ProcessQuery(ctx, "Sell half Apple and deposit")
	require.NoError(t, err)
	assert.Equal(t, trade.ExecutedDeposited, res.Value)
	p1, _ := c.State().Portfolio("P1")
	assert.InDelta(t, 50.0, p1.Snapshot().Holdings["AAPL"].Quantity, 1e-12)

	res, err = c.ProcessQuery(ctx, "generate report")
	require.NoError(t, err)
	assert.Equal(t, analysis.ReportExportedMessage, res.Value)
	_, statErr := os.Stat(filepath.Join(dir, config.ReportFileName))
	assert.NoError(t, statErr)
}

func TestProcessQuery_Pipeline(t *testing.T) {
	c, obs, _ := newCoordinator(t)

	res, err := c.ProcessQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, coordinator.RoutePipeline, res.Route)
	summary, ok := res.Value.(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(summary, "End-to-end analysis: Performance map["))
	assert.Contains(t, summary, "Ideas [No strong trade signals.]")

	want := []string{
		"research.get_market_data",
		"forecasting.forecast_returns",
		"analysis.get_performance",
		"risk_scenario.analyze_scenario",
		"trade.generate_ideas",
	}
	if diff := cmp.Diff(want, obs.delegations); diff != "" {
		t.Errorf("pipeline order mismatch (-want +got):\n%s", diff)
	}
}

func TestDelegate_UnknownCapability(t *testing.T) {
	s := state.NewWithMarket(testutil.NewMarketFixture(), state.Options{Seed: 1})
	c := coordinator.New(s, coordinator.Registry{}, nil, zerolog.Nop())

	_, err := c.Delegate(context.Background(), agent.Risk, agent.GetMacroScenarios, agent.Params{})
	assert.ErrorIs(t, err, agent.ErrUnknownCapability)

	_, err = c.ProcessQuery(context.Background(), "concentration")
	assert.ErrorIs(t, err, agent.ErrUnknownCapability)
}

func TestDelegate_UnknownOperation(t *testing.T) {
	c, _, _ := newCoordinator(t)
	_, err := c.Delegate(context.Background(), agent.Research, agent.ExecuteTrade, agent.Params{})
	assert.ErrorIs(t, err, agent.ErrUnknownOperation)
}
