package trade

import (
	"context"
	"fmt"

	"github.com/alschell/wealthhorizonai/internal/estimators"
)

// NoSignals is the only idea when nothing qualifies.
const NoSignals = "No strong trade signals."

// signalThreshold is the minimum predicted move for a buy or sell idea.
const signalThreshold = 0.02

// GenerateIdeas scores each classified asset's recent returns and keeps the
// policy's buy, sell and hedge picks that the prediction supports.
func (s *Service) GenerateIdeas(ctx context.Context) ([]string, error) {
	beta, err := s.firstPortfolioBeta()
	if err != nil {
		return nil, err
	}

	var ideas []string
	for _, asset := range s.state.Market.ClassifiedAssets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		window, ok := s.recentReturns(asset)
		if !ok {
			continue
		}
		score := s.state.Predictor.Predict(window)

		features := make([]float64, 0, len(window)+2)
		features = append(features, window...)
		features = append(features, score, beta)
		action, q := s.state.Policy.SelectAction(features)

		switch {
		case action == estimators.ActionBuy && score > signalThreshold:
			ideas = append(ideas, fmt.Sprintf("Buy %s (predicted return: %.2f%%, RL action: Buy, Q: %.2f)", asset, score*100, q[action]))
		case action == estimators.ActionSell && score < -signalThreshold:
			ideas = append(ideas, fmt.Sprintf("Sell %s (predicted return: %.2f%%, RL action: Sell, Q: %.2f)", asset, score*100, q[action]))
		case action == estimators.ActionHedge:
			ideas = append(ideas, fmt.Sprintf("Hedge %s (RL action: Hedge, Q: %.2f)", asset, q[action]))
		}
	}

	if len(ideas) == 0 {
		return []string{NoSignals}, nil
	}
	s.log.Debug().Int("ideas", len(ideas)).Msg("Trade ideas generated")
	return ideas, nil
}

// recentReturns returns the last FeatureWindow returns of asset, or false
// when the history is shorter.
func (s *Service) recentReturns(asset string) ([]float64, bool) {
	r, err := s.state.Market.Returns(asset)
	if err != nil || len(r) < estimators.FeatureWindow {
		return nil, false
	}
	return r[len(r)-estimators.FeatureWindow:], true
}

func (s *Service) firstPortfolioBeta() (float64, error) {
	ps := s.state.Portfolios()
	if len(ps) == 0 {
		return 0, nil
	}
	return s.state.Engine.Beta(ps[0].Snapshot())
}
