package testing

import (
	"context"
	"sync"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/estimators"
)

// FixedPlaceholders returns constant placeholder estimates.
type FixedPlaceholders struct {
	ESG        float64
	Climate    float64
	TaxRate    float64 // fraction of proceeds kept
	Allocation float64
	Currency   float64
}

// NewFixedPlaceholders returns values inside each real estimator's range.
func NewFixedPlaceholders() *FixedPlaceholders {
	return &FixedPlaceholders{ESG: 0.8, Climate: 0.7, TaxRate: 0.9, Allocation: 0.01, Currency: 0.002}
}

func fixed(source string, v float64) estimators.Estimate {
	return estimators.Estimate{Value: v, Placeholder: true, Source: source}
}

// ESGScore returns ESG.
func (f *FixedPlaceholders) ESGScore(subject string) estimators.Estimate {
	return fixed("esg_score", f.ESG)
}

// ClimateMultiplier returns Climate.
func (f *FixedPlaceholders) ClimateMultiplier() estimators.Estimate {
	return fixed("climate_multiplier", f.Climate)
}

// TaxAdjusted returns proceeds × TaxRate.
func (f *FixedPlaceholders) TaxAdjusted(proceeds float64) estimators.Estimate {
	return fixed("tax_adjustment", proceeds*f.TaxRate)
}

// AllocationEffect returns Allocation.
func (f *FixedPlaceholders) AllocationEffect() estimators.Estimate {
	return fixed("allocation_effect", f.Allocation)
}

// CurrencyEffect returns Currency.
func (f *FixedPlaceholders) CurrencyEffect() estimators.Estimate {
	return fixed("currency_effect", f.Currency)
}

// FixedPredictor always predicts Score.
type FixedPredictor struct {
	Score float64
}

// Predict returns Score.
func (f FixedPredictor) Predict(features []float64) float64 {
	return f.Score
}

// FixedSelector always picks Action.
type FixedSelector struct {
	Action int
}

// SelectAction returns Action with a Q-value of 1 and 0 elsewhere.
func (f FixedSelector) SelectAction(state []float64) (int, []float64) {
	q := make([]float64, estimators.ActionCount)
	q[f.Action] = 1
	return f.Action, q
}

// RecordingTrainer counts training calls.
type RecordingTrainer struct {
	mu        sync.Mutex
	calls     int
	lastBatch int
}

// Train records the batch size.
func (r *RecordingTrainer) Train(batch []estimators.Transition) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastBatch = len(batch)
	return 0
}

// Calls returns the number of Train calls.
func (r *RecordingTrainer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// LastBatch returns the size of the most recent batch.
func (r *RecordingTrainer) LastBatch() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBatch
}

// StubDelegator answers delegations with canned results keyed by operation
// and records the order of calls.
type StubDelegator struct {
	Results map[agent.Operation]any
	Errs    map[agent.Operation]error

	mu    sync.Mutex
	calls []agent.Operation
}

// Delegate returns the canned error or result for op.
func (d *StubDelegator) Delegate(_ context.Context, c agent.Capability, op agent.Operation, _ agent.Params) (any, error) {
	d.mu.Lock()
	d.calls = append(d.calls, op)
	d.mu.Unlock()

	if err, ok := d.Errs[op]; ok {
		return nil, err
	}
	if res, ok := d.Results[op]; ok {
		return res, nil
	}
	return nil, agent.UnknownOperation(c, op)
}

// Calls returns the delegated operations in order.
func (d *StubDelegator) Calls() []agent.Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]agent.Operation(nil), d.calls...)
}
