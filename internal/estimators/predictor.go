package estimators

import "github.com/alschell/wealthhorizonai/pkg/formulas"

// FeatureWindow is the number of trailing returns a prediction looks at.
const FeatureWindow = 10

// MomentumPredictor projects the EMA of recent returns over a horizon.
type MomentumPredictor struct {
	Period  int // EMA period
	Horizon int // periods the smoothed return is projected over
}

// NewMomentumPredictor returns a predictor with a 5-period EMA projected
// over the feature window.
func NewMomentumPredictor() *MomentumPredictor {
	return &MomentumPredictor{Period: 5, Horizon: FeatureWindow}
}

// Predict returns the projected cumulative return. Empty input scores 0.
func (m *MomentumPredictor) Predict(features []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	return formulas.EMA(features, m.Period) * float64(m.Horizon)
}
