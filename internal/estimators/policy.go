package estimators

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Policy dimensions: 10 trailing returns plus prediction score and beta.
const (
	StateDim    = FeatureWindow + 2
	ActionCount = 4
)

// Actions.
const (
	ActionBuy = iota
	ActionSell
	ActionHold
	ActionHedge
)

// ActionName returns a display name for an action index.
func ActionName(a int) string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	case ActionHold:
		return "Hold"
	case ActionHedge:
		return "Hedge"
	default:
		return "Unknown"
	}
}

// Transition is one adaptive-memory entry.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
}

// LinearPolicy is a linear Q-value function Q(s) = W·s + b trained with a
// Huber temporal-difference loss.
type LinearPolicy struct {
	mu           sync.RWMutex
	weights      *mat.Dense // ActionCount x StateDim
	bias         []float64
	gamma        float64
	learningRate float64
	updates      int
}

// NewLinearPolicy initialises weights uniformly in [-0.1, 0.1).
func NewLinearPolicy(src rand.Source) *LinearPolicy {
	data := make([]float64, ActionCount*StateDim)
	for i := range data {
		data[i] = Uniform(src, -0.1, 0.1)
	}
	bias := make([]float64, ActionCount)
	for i := range bias {
		bias[i] = Uniform(src, -0.1, 0.1)
	}
	return &LinearPolicy{
		weights:      mat.NewDense(ActionCount, StateDim, data),
		bias:         bias,
		gamma:        0.99,
		learningRate: 0.001,
	}
}

// qValues must be called with mu held.
func (p *LinearPolicy) qValues(state []float64) []float64 {
	s := fitState(state)
	var q mat.VecDense
	q.MulVec(p.weights, mat.NewVecDense(StateDim, s))
	out := make([]float64, ActionCount)
	for i := range out {
		out[i] = q.AtVec(i) + p.bias[i]
	}
	return out
}

// QValues returns Q(s) for every action.
func (p *LinearPolicy) QValues(state []float64) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.qValues(state)
}

// SelectAction returns the greedy action and the Q-values.
func (p *LinearPolicy) SelectAction(state []float64) (int, []float64) {
	q := p.QValues(state)
	return floats.MaxIdx(q), q
}

// Train applies one gradient step over the batch and returns the mean loss.
// Targets use r + γ·max Q(s') from the pre-update weights.
func (p *LinearPolicy) Train(batch []Transition) float64 {
	if len(batch) == 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	grad := mat.NewDense(ActionCount, StateDim, nil)
	biasGrad := make([]float64, ActionCount)
	var loss float64

	for _, tr := range batch {
		if tr.Action < 0 || tr.Action >= ActionCount {
			continue
		}
		s := fitState(tr.State)
		target := tr.Reward + p.gamma*floats.Max(p.qValues(tr.NextState))
		delta := p.qValues(s)[tr.Action] - target

		loss += huber(delta)
		g := math.Max(-1, math.Min(1, delta)) // dHuber/dδ
		for j, x := range s {
			grad.Set(tr.Action, j, grad.At(tr.Action, j)+g*x)
		}
		biasGrad[tr.Action] += g
	}

	n := float64(len(batch))
	grad.Scale(p.learningRate/n, grad)
	p.weights.Sub(p.weights, grad)
	for i := range p.bias {
		p.bias[i] -= p.learningRate * biasGrad[i] / n
	}
	p.updates++

	return loss / n
}

// Updates returns how many training steps have run.
func (p *LinearPolicy) Updates() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updates
}

func huber(delta float64) float64 {
	if a := math.Abs(delta); a > 1 {
		return a - 0.5
	}
	return 0.5 * delta * delta
}

// fitState pads with zeros or truncates to StateDim.
func fitState(state []float64) []float64 {
	if len(state) == StateDim {
		return state
	}
	s := make([]float64, StateDim)
	copy(s, state)
	return s
}
