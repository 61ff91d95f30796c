package forecasting_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/modules/forecasting"
	"github.com/alschell/wealthhorizonai/internal/state"
	testutil "github.com/alschell/wealthhorizonai/internal/testing"
)

func TestForecast_SkipsShortHistories(t *testing.T) {
	s := state.NewWithMarket(testutil.NewMarketFixture(), state.Options{Seed: 1})
	got, err := forecasting.NewService(s, zerolog.Nop()).Forecast(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForecast_EveryClassifiedAsset(t *testing.T) {
	seed, err := state.DefaultSeed()
	require.NoError(t, err)
	s, err := state.New(seed, state.Options{Seed: 9, MemoryCapacity: 100, MonteCarloSamples: 10})
	require.NoError(t, err)
	s.Predictor = testutil.FixedPredictor{Score: 0.04}

	res, err := forecasting.NewService(s, zerolog.Nop()).Invoke(context.Background(), agent.ForecastReturns, agent.Params{})
	require.NoError(t, err)
	got := res.(agent.Forecasts)

	assets := s.Market.ClassifiedAssets()
	require.Len(t, got, len(assets))
	for _, a := range assets {
		assert.Equal(t, 0.04, got[a], a)
	}
	assert.NotContains(t, got, "SP500")
}

func TestForecast_Cancelled(t *testing.T) {
	seed, err := state.DefaultSeed()
	require.NoError(t, err)
	s, err := state.New(seed, state.Options{Seed: 9, MemoryCapacity: 100, MonteCarloSamples: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = forecasting.NewService(s, zerolog.Nop()).Forecast(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
