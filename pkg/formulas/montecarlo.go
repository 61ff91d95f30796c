package formulas

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// MaxSimulations bounds every Monte Carlo run to a fixed cost.
const MaxSimulations = 5000

// SimulateShiftedNormal draws n samples from N(mu, sigma) and adds shift to each.
// n is clamped to [1, MaxSimulations]. The context is checked every 1000 draws.
func SimulateShiftedNormal(ctx context.Context, mu, sigma, shift float64, n int, src rand.Source) ([]float64, error) {
	if n <= 0 || n > MaxSimulations {
		n = MaxSimulations
	}
	if sigma < 0 {
		sigma = 0
	}

	normal := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
	samples := make([]float64, n)
	for i := range samples {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		samples[i] = normal.Rand() + shift
	}
	return samples, nil
}

// ValueAtRisk returns the (1-confidence) percentile of the simulated returns,
// e.g. the 5th percentile for confidence 0.95.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	return Percentile(returns, (1-confidence)*100)
}
