// Package trade generates trade ideas, executes sell instructions and runs
// the autopilot rebalancer.
package trade

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// Service is the trade capability.
type Service struct {
	state *state.State
	log   zerolog.Logger
}

// NewService binds the trade capability to shared state.
func NewService(s *state.State, log zerolog.Logger) *Service {
	return &Service{
		state: s,
		log:   log.With().Str("service", "trade").Logger(),
	}
}

// Factory returns an agent.Factory for the trade capability.
func Factory(log zerolog.Logger) agent.Factory {
	return func(s *state.State, _ agent.Delegator) agent.Agent {
		return NewService(s, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(ctx context.Context, op agent.Operation, p agent.Params) (any, error) {
	switch op {
	case agent.GenerateIdeas:
		return s.GenerateIdeas(ctx)
	case agent.ExecuteTrade:
		return s.ExecuteTrade(ctx, p.Action)
	case agent.AutopilotRebalance:
		return s.Autopilot(ctx)
	default:
		return nil, agent.UnknownOperation(agent.Trade, op)
	}
}
