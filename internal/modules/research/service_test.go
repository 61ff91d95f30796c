package research_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/internal/modules/research"
	"github.com/alschell/wealthhorizonai/internal/state"
	testutil "github.com/alschell/wealthhorizonai/internal/testing"
)

func TestMarketData_ShortTableReturnsEveryRow(t *testing.T) {
	s := state.NewWithMarket(testutil.NewMarketFixture(), state.Options{Seed: 1})
	res, err := research.NewService(s, zerolog.Nop()).Invoke(context.Background(), agent.GetMarketData, agent.Params{})
	require.NoError(t, err)

	snap := res.(agent.MarketSnapshot)
	assert.Len(t, snap, len(testutil.FixturePrices))
	assert.Len(t, snap["AAPL"], len(testutil.FixtureDates))
	assert.Equal(t, 108.0, snap["AAPL"]["2024-01-08"])
}

func TestMarketData_LastTwentyRows(t *testing.T) {
	seed, err := state.DefaultSeed()
	require.NoError(t, err)
	s, err := state.New(seed, state.Options{Seed: 3, MemoryCapacity: 100, MonteCarloSamples: 10})
	require.NoError(t, err)

	snap := research.NewService(s, zerolog.Nop()).MarketData()
	dates := s.Market.Dates()
	last := dates[len(dates)-1].Format(marketdata.DateLayout)
	dropped := dates[len(dates)-research.SnapshotRows-1].Format(marketdata.DateLayout)

	for sym, rows := range snap {
		assert.Len(t, rows, research.SnapshotRows, sym)
		assert.Contains(t, rows, last, sym)
		assert.NotContains(t, rows, dropped, sym)
	}
}

func TestInvoke_UnknownOperation(t *testing.T) {
	s := state.NewWithMarket(testutil.NewMarketFixture(), state.Options{Seed: 1})
	_, err := research.NewService(s, zerolog.Nop()).Invoke(context.Background(), agent.GetPerformance, agent.Params{})
	assert.ErrorIs(t, err, agent.ErrUnknownOperation)
}
