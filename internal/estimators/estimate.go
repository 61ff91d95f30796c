// Package estimators provides the opaque scoring components used by the
// trade, forecasting and analysis modules: a momentum predictor, a linear
// Q-value action policy, and seeded placeholder estimates for ESG, tax and
// attribution figures that have no real model behind them.
package estimators

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// Estimate is a number together with where it came from. Placeholder is
// true for random stand-ins that must not be read as measurements.
type Estimate struct {
	Value       float64 `json:"value" msgpack:"value"`
	Placeholder bool    `json:"placeholder" msgpack:"placeholder"`
	Source      string  `json:"source" msgpack:"source"`
}

// Predictor scores a feature window; higher means a stronger expected return.
type Predictor interface {
	Predict(features []float64) float64
}

// ActionSelector picks an action for a state and reports the Q-values it
// chose from.
type ActionSelector interface {
	SelectAction(state []float64) (int, []float64)
}

// Trainer performs one policy update from a batch and returns the loss.
type Trainer interface {
	Train(batch []Transition) float64
}

// Placeholders groups the stochastic stand-in estimates.
type Placeholders interface {
	ESGScore(subject string) Estimate
	ClimateMultiplier() Estimate
	TaxAdjusted(proceeds float64) Estimate
	AllocationEffect() Estimate
	CurrencyEffect() Estimate
}

// LockedSource is a rand.Source safe for concurrent use.
type LockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

// NewLockedSource returns a PCG source seeded from seed.
func NewLockedSource(seed uint64) *LockedSource {
	return &LockedSource{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Uint64 implements rand.Source.
func (s *LockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// Uniform draws from U[lo, hi).
func Uniform(src rand.Source, lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
}
