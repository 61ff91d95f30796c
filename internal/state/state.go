// Package state holds the long-lived application context every capability
// operates on: the portfolio registry, market data, scenarios, client
// hierarchy, adaptive memory, trade journal and shared random source.
package state

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/ledger"
	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
)

// TradeRecorder journals executed trades.
type TradeRecorder interface {
	Record(ctx context.Context, t ledger.Trade) error
}

// Policy selects and learns trade actions.
type Policy interface {
	estimators.ActionSelector
	estimators.Trainer
}

// State is the shared application context. Portfolios are owned here and
// guard their own mutations; the remaining fields are immutable after
// construction or internally synchronized.
type State struct {
	Market    *marketdata.Table
	Engine    *portfolio.Engine
	Scenarios []Scenario
	Hierarchy []Group
	Memory    *Memory
	Journal   TradeRecorder
	Rand      rand.Source // safe for concurrent use

	Predictor    estimators.Predictor
	Policy       Policy
	Placeholders estimators.Placeholders

	MonteCarloSamples int

	portfolios map[string]*portfolio.Portfolio
	order      []string
}

// Options configures New.
type Options struct {
	Seed              uint64
	MemoryCapacity    int
	MonteCarloSamples int
	Journal           TradeRecorder
	Log               zerolog.Logger
}

// New builds the session state from a seed. Prices are generated with a
// source derived from opts.Seed, so equal seeds give equal sessions.
func New(seed *Seed, opts Options) (*State, error) {
	genCfg, err := seed.Market.generatorConfig()
	if err != nil {
		return nil, err
	}
	market, err := marketdata.Generate(genCfg, rand.NewPCG(opts.Seed, opts.Seed+1))
	if err != nil {
		return nil, fmt.Errorf("failed to generate market data: %w", err)
	}

	s := NewWithMarket(market, opts)
	s.Scenarios = append([]Scenario(nil), seed.Scenarios...)
	s.Hierarchy = append([]Group(nil), seed.Hierarchy...)

	for _, ps := range seed.Portfolios {
		s.AddPortfolio(portfolio.New(ps.ID, ps.Name, ps.Strategy, ps.Holdings, ps.Cash))
	}

	// Every held instrument must be priced; fail at startup rather than per query.
	for _, p := range s.Portfolios() {
		if _, err := s.Engine.LastValue(p.Snapshot()); err != nil {
			return nil, fmt.Errorf("seed portfolio cannot be valued: %w", err)
		}
	}

	return s, nil
}

// NewWithMarket builds a state around an existing table. Scorers default to
// the production implementations and may be replaced by the caller.
func NewWithMarket(market *marketdata.Table, opts Options, portfolios ...*portfolio.Portfolio) *State {
	src := estimators.NewLockedSource(opts.Seed)
	s := &State{
		Market:            market,
		Engine:            portfolio.NewEngine(market),
		Memory:            NewMemory(opts.MemoryCapacity),
		Journal:           opts.Journal,
		Rand:              src,
		Predictor:         estimators.NewMomentumPredictor(),
		Policy:            estimators.NewLinearPolicy(src),
		Placeholders:      estimators.NewRandomPlaceholders(src, opts.Log),
		MonteCarloSamples: opts.MonteCarloSamples,
		portfolios:        make(map[string]*portfolio.Portfolio, len(portfolios)),
	}
	for _, p := range portfolios {
		s.AddPortfolio(p)
	}
	return s
}

// AddPortfolio registers p, replacing any portfolio with the same id.
// Registration happens during construction only.
func (s *State) AddPortfolio(p *portfolio.Portfolio) {
	id := p.ID()
	if _, exists := s.portfolios[id]; !exists {
		s.order = append(s.order, id)
	}
	s.portfolios[id] = p
}

// Portfolio looks a portfolio up by id.
func (s *State) Portfolio(id string) (*portfolio.Portfolio, bool) {
	p, ok := s.portfolios[id]
	return p, ok
}

// Portfolios returns every portfolio in registration order.
func (s *State) Portfolios() []*portfolio.Portfolio {
	out := make([]*portfolio.Portfolio, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.portfolios[id])
	}
	return out
}

// PortfolioIDs returns the registry keys in registration order.
func (s *State) PortfolioIDs() []string {
	return append([]string(nil), s.order...)
}

// ScenariosByProbability returns the scenarios sorted by probability,
// highest first. Ties keep seed order.
func (s *State) ScenariosByProbability() []Scenario {
	out := append([]Scenario(nil), s.Scenarios...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}
