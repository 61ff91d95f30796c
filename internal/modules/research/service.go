// Package research serves recent market data.
package research

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// SnapshotRows is the number of trailing dates returned by MarketData.
const SnapshotRows = 20

// Service is the research capability.
type Service struct {
	state *state.State
	log   zerolog.Logger
}

// NewService binds the research capability to shared state.
func NewService(s *state.State, log zerolog.Logger) *Service {
	return &Service{
		state: s,
		log:   log.With().Str("service", "research").Logger(),
	}
}

// Factory returns an agent.Factory for the research capability.
func Factory(log zerolog.Logger) agent.Factory {
	return func(s *state.State, _ agent.Delegator) agent.Agent {
		return NewService(s, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(_ context.Context, op agent.Operation, _ agent.Params) (any, error) {
	switch op {
	case agent.GetMarketData:
		return s.MarketData(), nil
	default:
		return nil, agent.UnknownOperation(agent.Research, op)
	}
}

// MarketData returns the last SnapshotRows prices of every instrument,
// keyed by symbol then date.
func (s *Service) MarketData() agent.MarketSnapshot {
	return agent.MarketSnapshot(s.state.Market.Tail(SnapshotRows))
}
