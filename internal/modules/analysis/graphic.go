package analysis

import (
	"fmt"
	"strings"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
)

// CreateGraphic overlays the requested portfolios and instruments, each
// normalised to 100, and returns the chart as a PNG data URI. Unknown items
// are skipped; a known portfolio that cannot be valued fails the chart.
func (s *Service) CreateGraphic(items []agent.GraphicItem) (string, error) {
	dates := s.state.Market.Dates()

	var series []charts.Series
	for _, it := range items {
		values, ok, err := s.itemSeries(it)
		if err != nil {
			return "", err
		}
		if !ok {
			s.log.Debug().Str("kind", it.Kind).Str("name", it.Name).Msg("Graphic item skipped")
			continue
		}
		series = append(series, charts.Series{
			Label:  ItemLabel(it),
			Dates:  dates,
			Values: charts.Normalize(values),
		})
	}

	png, err := s.renderer.RenderOverlay(charts.OverlayTitle, series)
	if err != nil {
		return "", err
	}
	return charts.DataURI(png), nil
}

func (s *Service) itemSeries(it agent.GraphicItem) ([]float64, bool, error) {
	switch it.Kind {
	case agent.ItemPortfolio:
		p, ok := s.state.Portfolio(it.Name)
		if !ok {
			return nil, false, nil
		}
		values, err := s.state.Engine.ValueSeries(p.Snapshot())
		if err != nil {
			return nil, false, fmt.Errorf("graphic portfolio %s: %w", it.Name, err)
		}
		return values, true, nil
	case agent.ItemStock, agent.ItemIndex:
		// Unlisted instruments are unknown names, not missing data.
		values, err := s.state.Market.Series(it.Name)
		if err != nil {
			return nil, false, nil
		}
		return values, true, nil
	default:
		return nil, false, nil
	}
}

// ItemLabel is the legend label, e.g. "Portfolio P1" or "Index SP500".
func ItemLabel(it agent.GraphicItem) string {
	if it.Kind == "" {
		return it.Name
	}
	return strings.ToUpper(it.Kind[:1]) + it.Kind[1:] + " " + it.Name
}
