// Package analysis provides portfolio performance, comparison, reporting,
// allocation, optimisation and chart operations.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
	"github.com/alschell/wealthhorizonai/internal/state"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

const (
	// OptimizedMessage is returned by OptimizePortfolios.
	OptimizedMessage = "Portfolios optimized with asset class constraints."

	// marketDriverShare is the share of mean daily return attributed to the market.
	marketDriverShare = 0.7
)

// ReportExporter persists a rendered report under a fixed name.
type ReportExporter interface {
	Export(ctx context.Context, name string, content []byte) (string, error)
}

// Service is the analysis capability.
type Service struct {
	state    *state.State
	delegate agent.Delegator
	renderer charts.Renderer
	exporter ReportExporter
	now      func() time.Time
	log      zerolog.Logger
}

// NewService binds the analysis capability to shared state.
func NewService(s *state.State, d agent.Delegator, renderer charts.Renderer, exporter ReportExporter, log zerolog.Logger) *Service {
	return &Service{
		state:    s,
		delegate: d,
		renderer: renderer,
		exporter: exporter,
		now:      time.Now,
		log:      log.With().Str("service", "analysis").Logger(),
	}
}

// Factory returns an agent.Factory for the analysis capability.
func Factory(renderer charts.Renderer, exporter ReportExporter, log zerolog.Logger) agent.Factory {
	return func(s *state.State, d agent.Delegator) agent.Agent {
		return NewService(s, d, renderer, exporter, log)
	}
}

// Invoke dispatches an operation.
func (s *Service) Invoke(ctx context.Context, op agent.Operation, p agent.Params) (any, error) {
	switch op {
	case agent.GetPerformance:
		return s.Performance(ctx)
	case agent.ComparePortfolios:
		return s.Compare(ctx)
	case agent.GenerateReport:
		return s.GenerateReport(ctx)
	case agent.GetHoldingsCash:
		return s.HoldingsCash(), nil
	case agent.GetAssetAllocation:
		return s.AssetAllocation()
	case agent.OptimizePortfolios:
		return s.OptimizePortfolios()
	case agent.CreateGraphic:
		return s.CreateGraphic(p.Items)
	default:
		return nil, agent.UnknownOperation(agent.Analysis, op)
	}
}

// Performance computes every portfolio's metrics. Market measures run
// concurrently; random estimates are drawn afterwards in registration order
// so a seed reproduces the output.
func (s *Service) Performance(ctx context.Context) (agent.Performance, error) {
	portfolios := s.state.Portfolios()
	snaps := make([]portfolio.Snapshot, len(portfolios))
	rows := make([]agent.PerformanceMetrics, len(portfolios))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range portfolios {
		snaps[i] = p.Snapshot()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := s.measure(snaps[i])
			if err != nil {
				return err
			}
			rows[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(agent.Performance, len(portfolios))
	for i, snap := range snaps {
		if err := s.estimate(snap, &rows[i]); err != nil {
			return nil, err
		}
		out[snap.ID] = rows[i]
	}
	return out, nil
}

// measure fills the deterministic metrics.
func (s *Service) measure(snap portfolio.Snapshot) (agent.PerformanceMetrics, error) {
	eng := s.state.Engine

	returns, err := eng.Returns(snap)
	if err != nil {
		return agent.PerformanceMetrics{}, err
	}
	vol := formulas.AnnualizedVolatility(returns)
	annual := formulas.AnnualizedMean(returns)

	beta, err := eng.Beta(snap)
	if err != nil {
		return agent.PerformanceMetrics{}, err
	}

	return agent.PerformanceMetrics{
		AnnualReturn: annual,
		Volatility:   vol,
		Sharpe:       formulas.SafeRatio(annual, vol),
		Beta:         beta,
		Drivers:      agent.Drivers{Market: formulas.Mean(returns) * marketDriverShare},
	}, nil
}

// estimate fills the metrics drawn from the shared random source.
func (s *Service) estimate(snap portfolio.Snapshot, m *agent.PerformanceMetrics) error {
	eng := s.state.Engine

	income, err := eng.SimulateIncome(snap, s.state.Rand)
	if err != nil {
		return err
	}
	value, err := eng.LastValue(snap)
	if err != nil {
		return err
	}
	attr, err := eng.Attribution(snap, s.state.Placeholders)
	if err != nil {
		return err
	}

	m.Income = estimators.Estimate{Value: income, Placeholder: true, Source: "simulated_income"}
	m.Drivers.Currency = s.state.Placeholders.CurrencyEffect()
	m.Drivers.Income = formulas.SafeRatio(income, value)
	m.Attribution = attr
	m.ESGScore = s.state.Placeholders.ESGScore(snap.ID)
	return nil
}

// HoldingsCash returns a copy of every portfolio's positions and cash.
func (s *Service) HoldingsCash() agent.HoldingsCash {
	out := make(agent.HoldingsCash)
	for _, p := range s.state.Portfolios() {
		snap := p.Snapshot()
		out[snap.ID] = agent.PortfolioHoldings{Holdings: snap.Holdings, Cash: snap.Cash}
	}
	return out
}

// AssetAllocation returns class weights per portfolio at the last date.
func (s *Service) AssetAllocation() (agent.AssetAllocation, error) {
	out := make(agent.AssetAllocation)
	for _, p := range s.state.Portfolios() {
		snap := p.Snapshot()
		w, err := s.state.Engine.AssetClassWeights(snap)
		if err != nil {
			return nil, err
		}
		out[snap.ID] = w
	}
	return out, nil
}

// OptimizePortfolios replaces each portfolio's target allocation with a
// freshly drawn constrained allocation. Portfolios that cannot satisfy the
// crypto cap keep their current targets.
func (s *Service) OptimizePortfolios() (string, error) {
	for _, p := range s.state.Portfolios() {
		err := p.Mutate(func(snap *portfolio.Snapshot) error {
			w, err := s.state.Engine.OptimizeAllocation(*snap, s.state.Rand)
			if err != nil {
				return err
			}
			snap.TargetAllocation = w
			return nil
		})
		switch {
		case errors.Is(err, portfolio.ErrAllocationInfeasible):
			s.log.Warn().Err(err).Str("portfolio", p.ID()).Msg("Allocation left unchanged")
		case err != nil:
			return "", fmt.Errorf("failed to optimize %s: %w", p.ID(), err)
		default:
			s.log.Info().Str("portfolio", p.ID()).Msg("Target allocation optimized")
		}
	}
	return OptimizedMessage, nil
}
