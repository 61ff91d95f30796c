package di

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/modules/trade"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Port:                   8000,
		DataDir:                dir,
		ReportDir:              dir,
		LedgerDSN:              fmt.Sprintf("file:di_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		RandomSeed:             42,
		MonteCarloSamples:      100,
		AdaptiveMemoryCapacity: 65,
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.Journal)
	assert.NotNil(t, container.Coordinator)
	assert.NotNil(t, container.AutopilotJob)
	assert.Nil(t, container.Scheduler)
	assert.Nil(t, container.Uploader)
	assert.Equal(t, []string{"P1", "P2"}, container.State.PortfolioIDs())

	for _, c := range []agent.Capability{
		agent.Analysis, agent.Compliance, agent.Forecasting,
		agent.Research, agent.Risk, agent.Trade,
	} {
		assert.Contains(t, container.Registry, c)
	}
}

func TestWire_TradeIsJournaled(t *testing.T) {
	cfg := testConfig(t)
	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	ctx := context.Background()
	res, err := container.Coordinator.ProcessQuery(ctx, "Sell half Apple and deposit")
	require.NoError(t, err)
	assert.Equal(t, trade.ExecutedDeposited, res.Value)

	n, err := container.Journal.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWire_ScheduledAutopilot(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutopilotSchedule = "@every 1h"

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	require.NotNil(t, container.Scheduler)
	require.NoError(t, container.Scheduler.RunNow(container.AutopilotJob))
	assert.Positive(t, container.State.Memory.Len())
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutopilotSchedule = "not a schedule"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "autopilot_rebalance")
}
