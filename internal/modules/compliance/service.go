// Package compliance checks portfolios against concentration and crypto
// exposure limits.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
	"github.com/alschell/wealthhorizonai/internal/state"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

// Limits are exclusive: a value equal to the limit passes.
const (
	MaxHHI          = 0.20
	MaxCryptoWeight = 0.15
)

// AllClear is returned when no rule fires.
const AllClear = "All clear."

// Service is the compliance capability.
type Service struct {
	state    *state.State
	delegate agent.Delegator
	log      zerolog.Logger
}

// NewService binds the compliance capability to shared state.
func NewService(s *state.State, d agent.Delegator, log zerolog.Logger) *Service {
	return &Service{
		state:    s,
		delegate: d,
		log:      log.With().Str("service", "compliance").Logger(),
	}
}

// Factory returns an agent.Factory for the compliance capability.
func Factory(log zerolog.Logger) agent.Factory {
	return func(s *state.State, d agent.Delegator) agent.Agent {
		return NewService(s, d, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(ctx context.Context, op agent.Operation, p agent.Params) (any, error) {
	switch op {
	case agent.CheckCompliance:
		return s.Check(ctx)
	default:
		return nil, agent.UnknownOperation(agent.Compliance, op)
	}
}

// Check fetches concentration risk and asset allocation, in that order, and
// evaluates every rule for every portfolio.
func (s *Service) Check(ctx context.Context) (string, error) {
	risks, err := agent.As[agent.ConcentrationRisk](ctx, s.delegate, agent.Risk, agent.GetConcentrationRisk, agent.Params{})
	if err != nil {
		return "", fmt.Errorf("compliance needs concentration risk: %w", err)
	}
	alloc, err := agent.As[agent.AssetAllocation](ctx, s.delegate, agent.Analysis, agent.GetAssetAllocation, agent.Params{})
	if err != nil {
		return "", fmt.Errorf("compliance needs asset allocation: %w", err)
	}

	findings := Evaluate(s.state.PortfolioIDs(), risks, alloc)
	s.log.Info().Int("findings", len(findings)).Msg("Compliance check complete")
	return Summarize(findings), nil
}

// Evaluate applies the rules to each portfolio in order.
func Evaluate(ids []string, risks agent.ConcentrationRisk, alloc agent.AssetAllocation) []string {
	var out []string
	for _, id := range ids {
		if formulas.ExceedsLimit(risks[id].HHI, MaxHHI) {
			out = append(out, fmt.Sprintf("Warning: %s high concentration (HHI > 0.20)", id))
		}
		crypto := alloc[id][portfolio.CryptoClass]
		if formulas.ExceedsLimit(crypto, MaxCryptoWeight) {
			out = append(out, fmt.Sprintf("Warning: %s exceeds crypto limit (15%%)", id))
		}
		if crypto > 0 {
			out = append(out, fmt.Sprintf("Note: %s crypto holdings flagged for AML review", id))
		}
	}
	return out
}

// Summarize joins findings into the check's result text.
func Summarize(findings []string) string {
	if len(findings) == 0 {
		return AllClear
	}
	return "Compliance check: " + strings.Join(findings, "; ")
}
