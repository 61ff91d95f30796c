package trade

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/estimators"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// AutopilotComplete is the autopilot run's message.
const AutopilotComplete = "Autopilot rebalancing complete with RL and strategy alignment."

// DriftThreshold is the weight gap that triggers a rebalance intent.
const DriftThreshold = 0.03

// Autopilot compares each portfolio's weights with its targets and logs a
// buy or sell intent for every asset drifting beyond DriftThreshold. Each
// intent adds one experience to memory; once memory holds more than a batch,
// each new experience also trains the policy on a uniform sample.
// No orders are executed.
func (s *Service) Autopilot(ctx context.Context) (agent.AutopilotReport, error) {
	r := rand.New(s.state.Rand)
	report := agent.AutopilotReport{Message: AutopilotComplete}

	for _, p := range s.state.Portfolios() {
		if err := ctx.Err(); err != nil {
			return agent.AutopilotReport{}, err
		}
		snap := p.Snapshot()

		value, err := s.state.Engine.LastValue(snap)
		if err != nil {
			return agent.AutopilotReport{}, err
		}
		if value == 0 {
			s.log.Debug().Str("portfolio", snap.ID).Msg("Autopilot skipped empty portfolio")
			continue
		}
		weights, err := s.state.Engine.CurrentWeights(snap)
		if err != nil {
			return agent.AutopilotReport{}, err
		}

		assets := make([]string, 0, len(snap.TargetAllocation))
		for a := range snap.TargetAllocation {
			assets = append(assets, a)
		}
		sort.Strings(assets)

		for _, asset := range assets {
			drift := snap.TargetAllocation[asset] - weights[asset]
			if math.Abs(drift) <= DriftThreshold {
				continue
			}
			price, err := s.state.Market.LastPrice(asset)
			if err != nil {
				return agent.AutopilotReport{}, err
			}

			side := "buy"
			if drift < 0 {
				side = "sell"
			}
			intent := agent.RebalanceIntent{
				Portfolio: snap.ID,
				Asset:     asset,
				Side:      side,
				Quantity:  math.Abs(drift) * value / price,
				Drift:     drift,
			}
			report.Intents = append(report.Intents, intent)
			s.log.Info().
				Str("portfolio", snap.ID).
				Str("asset", asset).
				Str("side", side).
				Float64("qty", intent.Quantity).
				Str("strategy", snap.Strategy).
				Msg("Autopilot rebalance intent")

			if s.learn(r, drift) {
				report.PolicyUpdates++
			}
		}
	}

	report.MemorySize = s.state.Memory.Len()
	return report, nil
}

// learn stores one experience and trains on a sample when memory is large
// enough. It reports whether a training step ran.
func (s *Service) learn(r *rand.Rand, drift float64) bool {
	t := estimators.Transition{
		State:     randomState(r),
		Action:    r.IntN(estimators.ActionCount),
		Reward:    estimators.Uniform(s.state.Rand, -1, 1) + drift*0.1,
		NextState: randomState(r),
	}
	if s.state.Memory.Append(t) <= state.TrainingBatchSize {
		return false
	}
	batch := s.state.Memory.Sample(state.TrainingBatchSize, s.state.Rand)
	if batch == nil {
		return false
	}
	loss := s.state.Policy.Train(batch)
	s.log.Debug().Float64("loss", loss).Int("batch", len(batch)).Msg("Policy updated")
	return true
}

func randomState(r *rand.Rand) []float64 {
	out := make([]float64, estimators.StateDim)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}
