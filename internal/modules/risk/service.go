// Package risk provides scenario simulation, concentration risk and macro
// scenario ranking.
package risk

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/state"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

// TaxHint accompanies every scenario impact.
const TaxHint = "Consider tax-loss harvesting if impact negative"

// Service is the risk capability.
type Service struct {
	state *state.State
	log   zerolog.Logger
}

// NewService binds the risk capability to shared state.
func NewService(s *state.State, log zerolog.Logger) *Service {
	return &Service{
		state: s,
		log:   log.With().Str("service", "risk").Logger(),
	}
}

// Factory returns an agent.Factory for the risk capability.
func Factory(log zerolog.Logger) agent.Factory {
	return func(s *state.State, _ agent.Delegator) agent.Agent {
		return NewService(s, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(ctx context.Context, op agent.Operation, p agent.Params) (any, error) {
	switch op {
	case agent.AnalyzeScenario:
		return s.AnalyzeScenario(ctx, p.Drop, p.ScenarioName)
	case agent.GetConcentrationRisk:
		return s.ConcentrationRisk()
	case agent.GetMacroScenarios:
		return s.state.ScenariosByProbability(), nil
	default:
		return nil, agent.UnknownOperation(agent.Risk, op)
	}
}

// AnalyzeScenario simulates each portfolio's return distribution under a
// market shock of drop scaled by the portfolio's beta.
func (s *Service) AnalyzeScenario(ctx context.Context, drop float64, name string) (agent.ScenarioAnalysis, error) {
	climate := strings.Contains(strings.ToLower(name), "climate")
	out := make(agent.ScenarioAnalysis)

	for _, p := range s.state.Portfolios() {
		snap := p.Snapshot()

		returns, err := s.state.Engine.Returns(snap)
		if err != nil {
			return nil, err
		}
		beta := formulas.Beta(returns, s.state.Market.ProxyReturns())

		sims, err := formulas.SimulateShiftedNormal(ctx,
			formulas.Mean(returns), formulas.StdDev(returns), drop*beta,
			s.state.MonteCarloSamples, s.state.Rand)
		if err != nil {
			return nil, fmt.Errorf("scenario simulation for %s: %w", snap.ID, err)
		}

		impact := agent.ScenarioImpact{
			MeanImpact:      formulas.Mean(sims),
			VaR95:           formulas.ValueAtRisk(sims, 0.95),
			HedgeSuggestion: s.pickHedge(),
			TaxOptimization: TaxHint,
		}
		if climate {
			m := s.state.Placeholders.ClimateMultiplier()
			impact.MeanImpact *= m.Value
			impact.ESGMultiplier = &m
		}
		out[snap.ID] = impact

		s.log.Debug().
			Str("portfolio", snap.ID).
			Float64("drop", drop).
			Float64("beta", beta).
			Float64("mean_impact", impact.MeanImpact).
			Float64("var_95", impact.VaR95).
			Msg("Scenario simulated")
	}
	return out, nil
}

func (s *Service) pickHedge() string {
	if len(s.state.Scenarios) == 0 {
		return ""
	}
	i := rand.New(s.state.Rand).IntN(len(s.state.Scenarios))
	return s.state.Scenarios[i].Hedge
}

// ConcentrationRisk reports HHI, diversification and annual volatility per
// portfolio.
func (s *Service) ConcentrationRisk() (agent.ConcentrationRisk, error) {
	out := make(agent.ConcentrationRisk)
	for _, p := range s.state.Portfolios() {
		snap := p.Snapshot()

		c, err := s.state.Engine.Concentration(snap)
		if err != nil {
			return nil, err
		}
		vol, err := s.state.Engine.Volatility(snap)
		if err != nil {
			return nil, err
		}
		out[snap.ID] = agent.RiskMetrics{
			HHI:                  c.HHI,
			DiversificationScore: c.Diversification,
			AnnualVolatility:     vol,
		}
	}
	return out, nil
}
