package portfolio

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distmv"

	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

// BenchmarkSymbol is the index attribution is measured against.
const BenchmarkSymbol = "SP500"

// MaxCryptoWeight caps each cryptocurrency's optimised target weight.
const MaxCryptoWeight = 0.20

// ErrAllocationInfeasible is returned when no weight vector can satisfy
// the crypto cap, e.g. a crypto-only or empty portfolio.
var ErrAllocationInfeasible = errors.New("allocation infeasible under crypto cap")

// Attribution splits active return into allocation and selection effects.
type Attribution struct {
	Allocation estimators.Estimate `json:"allocation" msgpack:"allocation"`
	Selection  float64             `json:"selection" msgpack:"selection"`
	Total      float64             `json:"total" msgpack:"total"`
}

// Concentration is the Herfindahl-Hirschman index of position values.
type Concentration struct {
	HHI             float64 `json:"hhi" msgpack:"hhi"`
	Diversification float64 `json:"diversification_score" msgpack:"diversification_score"`
}

// AllocationEstimator supplies the allocation leg of attribution.
type AllocationEstimator interface {
	AllocationEffect() estimators.Estimate
}

// Engine computes portfolio analytics from a market table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	market *marketdata.Table
}

// NewEngine binds an engine to the session's market data.
func NewEngine(market *marketdata.Table) *Engine {
	return &Engine{market: market}
}

// Market returns the bound market table.
func (e *Engine) Market() *marketdata.Table {
	return e.market
}

// Value is cash converted to the base currency plus every holding marked at
// date and converted by its currency.
func (e *Engine) Value(s Snapshot, date time.Time) (float64, error) {
	var total float64
	for _, ccy := range s.Currencies() {
		rate, err := e.market.FXRate(ccy)
		if err != nil {
			return 0, fmt.Errorf("portfolio %s cash: %w", s.ID, err)
		}
		total += s.Cash[ccy] * rate
	}

	for _, sym := range s.Symbols() {
		h := s.Holdings[sym]
		price, err := e.market.Price(sym, date)
		if err != nil {
			return 0, fmt.Errorf("portfolio %s holding %s: %w", s.ID, sym, err)
		}
		rate, err := e.market.FXRate(h.Currency)
		if err != nil {
			return 0, fmt.Errorf("portfolio %s holding %s: %w", s.ID, sym, err)
		}
		total += h.Quantity * price * rate
	}
	return total, nil
}

// LastValue is Value at the table's last date.
func (e *Engine) LastValue(s Snapshot) (float64, error) {
	return e.Value(s, e.market.LastDate())
}

// ValueSeries values the portfolio on every table date.
func (e *Engine) ValueSeries(s Snapshot) ([]float64, error) {
	dates := e.market.Dates()
	out := make([]float64, len(dates))
	for i, d := range dates {
		v, err := e.Value(s, d)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Returns are the period-over-period changes of ValueSeries, first dropped.
func (e *Engine) Returns(s Snapshot) ([]float64, error) {
	series, err := e.ValueSeries(s)
	if err != nil {
		return nil, err
	}
	return formulas.PctChange(series), nil
}

// Volatility is the annualised sample standard deviation of returns.
func (e *Engine) Volatility(s Snapshot) (float64, error) {
	r, err := e.Returns(s)
	if err != nil {
		return 0, err
	}
	return formulas.AnnualizedVolatility(r), nil
}

// AnnualizedReturn is the mean return scaled to a year.
func (e *Engine) AnnualizedReturn(s Snapshot) (float64, error) {
	r, err := e.Returns(s)
	if err != nil {
		return 0, err
	}
	return formulas.AnnualizedMean(r), nil
}

// Sharpe is annualised return over volatility, 0 when volatility is 0.
func (e *Engine) Sharpe(s Snapshot) (float64, error) {
	r, err := e.Returns(s)
	if err != nil {
		return 0, err
	}
	return formulas.SafeRatio(formulas.AnnualizedMean(r), formulas.AnnualizedVolatility(r)), nil
}

// Beta is measured against the equal-weighted proxy of every instrument.
func (e *Engine) Beta(s Snapshot) (float64, error) {
	r, err := e.Returns(s)
	if err != nil {
		return 0, err
	}
	return formulas.Beta(r, e.market.ProxyReturns()), nil
}

// Attribution compares the portfolio's mean return with the benchmark's.
// The allocation effect is a placeholder estimate.
func (e *Engine) Attribution(s Snapshot, est AllocationEstimator) (Attribution, error) {
	r, err := e.Returns(s)
	if err != nil {
		return Attribution{}, err
	}
	bench, err := e.market.Returns(BenchmarkSymbol)
	if err != nil {
		return Attribution{}, fmt.Errorf("portfolio %s attribution: %w", s.ID, err)
	}

	alloc := est.AllocationEffect()
	selection := formulas.Mean(r) - formulas.Mean(bench)
	return Attribution{
		Allocation: alloc,
		Selection:  selection,
		Total:      alloc.Value + selection,
	}, nil
}

// PositionValue is quantity × last price × fx in the base currency.
func (e *Engine) PositionValue(symbol string, h Holding) (float64, error) {
	price, err := e.market.LastPrice(symbol)
	if err != nil {
		return 0, err
	}
	rate, err := e.market.FXRate(h.Currency)
	if err != nil {
		return 0, err
	}
	return h.Quantity * price * rate, nil
}

// positionValues returns base-currency values aligned with s.Symbols().
func (e *Engine) positionValues(s Snapshot) ([]string, []float64, error) {
	symbols := s.Symbols()
	values := make([]float64, len(symbols))
	for i, sym := range symbols {
		v, err := e.PositionValue(sym, s.Holdings[sym])
		if err != nil {
			return nil, nil, fmt.Errorf("portfolio %s holding %s: %w", s.ID, sym, err)
		}
		values[i] = v
	}
	return symbols, values, nil
}

// Concentration computes HHI over position values; cash is excluded.
func (e *Engine) Concentration(s Snapshot) (Concentration, error) {
	_, values, err := e.positionValues(s)
	if err != nil {
		return Concentration{}, err
	}
	hhi, _ := formulas.HerfindahlIndex(values)
	return Concentration{HHI: hhi, Diversification: 1 - hhi}, nil
}

// CurrentWeights is each position's share of total portfolio value at the
// last date. A zero-value portfolio has no weights.
func (e *Engine) CurrentWeights(s Snapshot) (map[string]float64, error) {
	total, err := e.LastValue(s)
	if err != nil {
		return nil, err
	}
	weights := make(map[string]float64, len(s.Holdings))
	if total == 0 {
		return weights, nil
	}

	symbols, values, err := e.positionValues(s)
	if err != nil {
		return nil, err
	}
	for i, sym := range symbols {
		weights[sym] = values[i] / total
	}
	return weights, nil
}

// AssetClassWeights aggregates CurrentWeights by the market's class map.
func (e *Engine) AssetClassWeights(s Snapshot) (map[string]float64, error) {
	weights, err := e.CurrentWeights(s)
	if err != nil {
		return nil, err
	}
	classes := make(map[string]float64)
	for sym, w := range weights {
		classes[e.market.AssetClass(sym)] += w
	}
	return classes, nil
}

// SimulateIncome estimates annual income with a random yield per position:
// 1-5% for equity and fixed income, 4-8% for real estate, nothing otherwise.
func (e *Engine) SimulateIncome(s Snapshot, src rand.Source) (float64, error) {
	symbols, values, err := e.positionValues(s)
	if err != nil {
		return 0, err
	}

	var income float64
	for i, sym := range symbols {
		switch s.Holdings[sym].AssetClass {
		case "Equity", "Fixed Income":
			income += values[i] * estimators.Uniform(src, 0.01, 0.05)
		case "Real Estate":
			income += values[i] * estimators.Uniform(src, 0.04, 0.08)
		}
	}
	return income, nil
}

// OptimizeAllocation draws a random allocation over the held assets from a
// flat Dirichlet, caps each cryptocurrency at MaxCryptoWeight and rescales the
// remaining assets so the weights sum to 1.
func (e *Engine) OptimizeAllocation(s Snapshot, src rand.Source) (map[string]float64, error) {
	symbols := s.Symbols()

	var crypto, other []int
	for i, sym := range symbols {
		if e.isCrypto(sym, s.Holdings[sym]) {
			crypto = append(crypto, i)
		} else {
			other = append(other, i)
		}
	}
	if len(other) == 0 {
		return nil, fmt.Errorf("portfolio %s: %w", s.ID, ErrAllocationInfeasible)
	}

	raw := make([]float64, len(symbols))
	if len(symbols) == 1 {
		raw[0] = 1
	} else {
		alpha := make([]float64, len(symbols))
		for i := range alpha {
			alpha[i] = 1
		}
		distmv.NewDirichlet(alpha, src).Rand(raw)
	}

	weights := make(map[string]float64, len(symbols))
	var cryptoTotal float64
	for _, i := range crypto {
		w := raw[i]
		if w > MaxCryptoWeight {
			w = MaxCryptoWeight
		}
		weights[symbols[i]] = w
		cryptoTotal += w
	}

	remaining := 1 - cryptoTotal
	if remaining < 0 {
		remaining = 0
	}
	var otherTotal float64
	for _, i := range other {
		otherTotal += raw[i]
	}
	for _, i := range other {
		if otherTotal > 0 {
			weights[symbols[i]] = raw[i] / otherTotal * remaining
		} else {
			weights[symbols[i]] = remaining / float64(len(other))
		}
	}

	return weights, nil
}

func (e *Engine) isCrypto(symbol string, h Holding) bool {
	if h.AssetClass != "" {
		return h.AssetClass == CryptoClass
	}
	return e.market.AssetClass(symbol) == CryptoClass
}
