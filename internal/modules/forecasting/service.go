// Package forecasting scores each classified asset's expected return.
package forecasting

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// Service is the forecasting capability.
type Service struct {
	state *state.State
	log   zerolog.Logger
}

// NewService binds the forecasting capability to shared state.
func NewService(s *state.State, log zerolog.Logger) *Service {
	return &Service{
		state: s,
		log:   log.With().Str("service", "forecasting").Logger(),
	}
}

// Factory returns an agent.Factory for the forecasting capability.
func Factory(log zerolog.Logger) agent.Factory {
	return func(s *state.State, _ agent.Delegator) agent.Agent {
		return NewService(s, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(ctx context.Context, op agent.Operation, _ agent.Params) (any, error) {
	switch op {
	case agent.ForecastReturns:
		return s.Forecast(ctx)
	default:
		return nil, agent.UnknownOperation(agent.Forecasting, op)
	}
}

// Forecast predicts a return score for every classified asset from its last
// FeatureWindow returns. Assets with shorter histories are left out.
func (s *Service) Forecast(ctx context.Context) (agent.Forecasts, error) {
	out := make(agent.Forecasts)
	for _, asset := range s.state.Market.ClassifiedAssets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.state.Market.Returns(asset)
		if err != nil || len(r) < estimators.FeatureWindow {
			continue
		}
		out[asset] = s.state.Predictor.Predict(r[len(r)-estimators.FeatureWindow:])
	}
	s.log.Debug().Int("assets", len(out)).Msg("Returns forecast")
	return out, nil
}
