package analysis_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/internal/modules/analysis"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
	"github.com/alschell/wealthhorizonai/internal/reports"
	"github.com/alschell/wealthhorizonai/internal/state"
	testutil "github.com/alschell/wealthhorizonai/internal/testing"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

type recordingRenderer struct {
	title  string
	series []charts.Series
}

func (r *recordingRenderer) RenderOverlay(title string, series []charts.Series) ([]byte, error) {
	r.title = title
	r.series = series
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func newState(portfolios ...*portfolio.Portfolio) *state.State {
	if len(portfolios) == 0 {
		portfolios = []*portfolio.Portfolio{testutil.NewP1(), testutil.NewP2()}
	}
	s := state.NewWithMarket(testutil.NewMarketFixture(),
		state.Options{Seed: 11, MemoryCapacity: 100, MonteCarloSamples: 100},
		portfolios...)
	s.Placeholders = testutil.NewFixedPlaceholders()
	s.Scenarios = []state.Scenario{{Name: "Recession", Probability: 0.25, Hedge: "Buy puts"}}
	return s
}

func newService(s *state.State, d agent.Delegator, r charts.Renderer, dir string) *analysis.Service {
	return analysis.NewService(s, d, r, reports.NewExporter(dir, nil, zerolog.Nop()), zerolog.Nop())
}

func TestPerformance(t *testing.T) {
	s := newState()
	svc := newService(s, &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	perf, err := svc.Performance(context.Background())
	require.NoError(t, err)
	require.Len(t, perf, 2)

	for _, p := range s.Portfolios() {
		snap := p.Snapshot()
		m, ok := perf[snap.ID]
		require.True(t, ok, snap.ID)

		returns, err := s.Engine.Returns(snap)
		require.NoError(t, err)
		beta, err := s.Engine.Beta(snap)
		require.NoError(t, err)

		assert.InDelta(t, formulas.AnnualizedMean(returns), m.AnnualReturn, 1e-12)
		assert.InDelta(t, formulas.AnnualizedVolatility(returns), m.Volatility, 1e-12)
		assert.InDelta(t, m.AnnualReturn/m.Volatility, m.Sharpe, 1e-9)
		assert.InDelta(t, beta, m.Beta, 1e-12)
		assert.InDelta(t, formulas.Mean(returns)*0.7, m.Drivers.Market, 1e-12)
		assert.InDelta(t, 0.002, m.Drivers.Currency.Value, 1e-12)
		assert.True(t, m.Income.Placeholder)
		assert.GreaterOrEqual(t, m.Income.Value, 0.0)
		assert.InDelta(t, 0.8, m.ESGScore.Value, 1e-12)
		assert.InDelta(t, 0.01, m.Attribution.Allocation.Value, 1e-12)
	}
}

func TestPerformance_ZeroValuePortfolio(t *testing.T) {
	empty := portfolio.New("P0", "Empty", "None", nil, nil)
	svc := newService(newState(empty), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	perf, err := svc.Performance(context.Background())
	require.NoError(t, err)
	m := perf["P0"]
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.Drivers.Income)
}

func TestCompare(t *testing.T) {
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	cmp, err := svc.Compare(context.Background())
	require.NoError(t, err)
	require.Len(t, cmp.Rows, 2)
	assert.Equal(t, "P1", cmp.Rows[0].Portfolio)
	assert.Equal(t, "P2", cmp.Rows[1].Portfolio)

	require.NotNil(t, cmp.Difference)
	assert.InDelta(t, cmp.Rows[1].AnnualReturn-cmp.Rows[0].AnnualReturn, cmp.Difference.AnnualReturn, 1e-12)
	assert.InDelta(t, cmp.Rows[1].Volatility-cmp.Rows[0].Volatility, cmp.Difference.Volatility, 1e-12)
	assert.InDelta(t, cmp.Rows[1].Beta-cmp.Rows[0].Beta, cmp.Difference.Beta, 1e-12)

	assert.Contains(t, cmp.Table, "annual_return")
	assert.Contains(t, cmp.Table, "P1")
	assert.Contains(t, cmp.Table, "P2")
}

func TestCompare_SinglePortfolioHasNoDifference(t *testing.T) {
	svc := newService(newState(testutil.NewP1()), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	cmp, err := svc.Compare(context.Background())
	require.NoError(t, err)
	assert.Len(t, cmp.Rows, 1)
	assert.Nil(t, cmp.Difference)
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	d := &testutil.StubDelegator{Results: map[agent.Operation]any{
		agent.GetConcentrationRisk: agent.ConcentrationRisk{
			"P1": {HHI: 0.3, DiversificationScore: 0.7, AnnualVolatility: 0.12},
		},
	}}
	svc := newService(newState(), d, &recordingRenderer{}, dir)

	msg, err := svc.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Comprehensive report exported to comprehensive_report.txt", msg)
	assert.Equal(t, []agent.Operation{agent.GetConcentrationRisk}, d.Calls())

	data, err := os.ReadFile(dir + "/" + config.ReportFileName)
	require.NoError(t, err)
	report := string(data)
	for _, section := range []string{
		"Wealth Horizon Comprehensive Report",
		"Date: ",
		"Performance Metrics:",
		"Asset Allocation:",
		"Macro Scenarios:",
		"Recession (probability 0.25): Buy puts",
		"Concentration Risk:",
		"P1: hhi 0.3000",
	} {
		assert.Contains(t, report, section)
	}
}

func TestGenerateReport_DelegationFailureExportsNothing(t *testing.T) {
	dir := t.TempDir()
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, dir)

	_, err := svc.GenerateReport(context.Background())
	require.ErrorIs(t, err, agent.ErrUnknownOperation)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssetAllocation(t *testing.T) {
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	alloc, err := svc.AssetAllocation()
	require.NoError(t, err)

	p1 := alloc["P1"]
	assert.InDelta(t, 10800.0/testutil.P1LastValue, p1["Equity"], 1e-9)
	assert.InDelta(t, 4400.0/testutil.P1LastValue, p1["Cryptocurrency"], 1e-9)

	var total float64
	for _, w := range p1 {
		total += w
	}
	// Cash is part of the value but belongs to no class.
	assert.InDelta(t, (testutil.P1LastValue-15500.0)/testutil.P1LastValue, total, 1e-9)
}

func TestHoldingsCash(t *testing.T) {
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	hc := svc.HoldingsCash()
	assert.Equal(t, 100.0, hc["P1"].Holdings["AAPL"].Quantity)
	assert.Equal(t, 8000.0, hc["P2"].Cash["GBP"])
}

func TestOptimizePortfolios(t *testing.T) {
	cryptoOnly := portfolio.New("PC", "Crypto", "Speculative",
		map[string]portfolio.Holding{"BTC": {Quantity: 1, AssetClass: "Cryptocurrency", Currency: "USD"}}, nil)
	s := newState(testutil.NewP1(), testutil.NewP2(), cryptoOnly)
	before := cryptoOnly.Snapshot().TargetAllocation
	svc := newService(s, &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())

	msg, err := svc.OptimizePortfolios()
	require.NoError(t, err)
	assert.Equal(t, analysis.OptimizedMessage, msg)

	p1, _ := s.Portfolio("P1")
	target := p1.Snapshot().TargetAllocation
	var sum float64
	for _, w := range target {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.LessOrEqual(t, target["BTC"], portfolio.MaxCryptoWeight+1e-12)

	assert.Equal(t, before, cryptoOnly.Snapshot().TargetAllocation)
}

func TestCreateGraphic(t *testing.T) {
	r := &recordingRenderer{}
	svc := newService(newState(), &testutil.StubDelegator{}, r, t.TempDir())

	uri, err := svc.CreateGraphic([]agent.GraphicItem{
		{Kind: agent.ItemPortfolio, Name: "P1"},
		{Kind: agent.ItemIndex, Name: "SP500"},
		{Kind: agent.ItemStock, Name: "NVDA"},
		{Kind: agent.ItemPortfolio, Name: "P9"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	assert.Equal(t, charts.OverlayTitle, r.title)
	require.Len(t, r.series, 2)
	assert.Equal(t, "Portfolio P1", r.series[0].Label)
	assert.Equal(t, "Index SP500", r.series[1].Label)
	for _, ser := range r.series {
		assert.InDelta(t, 100.0, ser.Values[0], 1e-9)
		assert.Len(t, ser.Dates, len(testutil.FixtureDates))
	}
	assert.InDelta(t, 4120.0/4000*100, r.series[1].Values[5], 1e-9)
}

func TestCreateGraphic_UnpricedPortfolio(t *testing.T) {
	ghost := portfolio.New("PX", "Ghost", "Growth",
		map[string]portfolio.Holding{"ZZZ": {Quantity: 1, Currency: "USD", AssetClass: "Equity"}}, nil)
	r := &recordingRenderer{}
	svc := newService(newState(testutil.NewP1(), ghost), &testutil.StubDelegator{}, r, t.TempDir())

	_, err := svc.CreateGraphic([]agent.GraphicItem{
		{Kind: agent.ItemPortfolio, Name: "P1"},
		{Kind: agent.ItemPortfolio, Name: "PX"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketdata.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "PX")
	assert.Empty(t, r.title, "nothing rendered")
}

func TestItemLabel(t *testing.T) {
	tests := []struct {
		item agent.GraphicItem
		want string
	}{
		{agent.GraphicItem{Kind: agent.ItemPortfolio, Name: "P2"}, "Portfolio P2"},
		{agent.GraphicItem{Kind: agent.ItemStock, Name: "TSLA"}, "Stock TSLA"},
		{agent.GraphicItem{Kind: agent.ItemIndex, Name: "DJIA"}, "Index DJIA"},
		{agent.GraphicItem{Name: "X"}, "X"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analysis.ItemLabel(tt.item))
	}
}

func TestInvoke_UnknownOperation(t *testing.T) {
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())
	_, err := svc.Invoke(context.Background(), agent.ExecuteTrade, agent.Params{})
	assert.ErrorIs(t, err, agent.ErrUnknownOperation)
}

func TestPerformance_ReproducibleFromSeed(t *testing.T) {
	run := func() agent.Performance {
		s := state.NewWithMarket(testutil.NewMarketFixture(),
			state.Options{Seed: 11, MemoryCapacity: 100, Log: zerolog.Nop()},
			testutil.NewP1(), testutil.NewP2())
		svc := newService(s, &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())
		perf, err := svc.Performance(context.Background())
		require.NoError(t, err)
		return perf
	}

	want := run()
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, run())
	}
}

func TestPerformance_Cancelled(t *testing.T) {
	svc := newService(newState(), &testutil.StubDelegator{}, &recordingRenderer{}, t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.Performance(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
