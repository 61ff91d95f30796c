package analysis

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/alschell/wealthhorizonai/internal/agent"
)

// Compare tabulates performance in registration order. The difference row
// is the second portfolio minus the first.
func (s *Service) Compare(ctx context.Context) (agent.Comparison, error) {
	perf, err := s.Performance(ctx)
	if err != nil {
		return agent.Comparison{}, err
	}

	var rows []agent.ComparisonRow
	for _, id := range s.state.PortfolioIDs() {
		m := perf[id]
		rows = append(rows, agent.ComparisonRow{
			Portfolio:    id,
			AnnualReturn: m.AnnualReturn,
			Volatility:   m.Volatility,
			Sharpe:       m.Sharpe,
			Beta:         m.Beta,
			Income:       m.Income.Value,
			ESGScore:     m.ESGScore.Value,
		})
	}

	out := agent.Comparison{Rows: rows}
	if len(rows) > 1 {
		d := diffRows(rows[0], rows[1])
		out.Difference = &d
		s.log.Info().
			Str("portfolios", d.Portfolio).
			Float64("annual_return_diff", d.AnnualReturn).
			Float64("volatility_diff", d.Volatility).
			Msg("Performance differences")
	}
	out.Table = formatComparison(rows)
	return out, nil
}

func diffRows(first, second agent.ComparisonRow) agent.ComparisonRow {
	return agent.ComparisonRow{
		Portfolio:    second.Portfolio + "-" + first.Portfolio,
		AnnualReturn: second.AnnualReturn - first.AnnualReturn,
		Volatility:   second.Volatility - first.Volatility,
		Sharpe:       second.Sharpe - first.Sharpe,
		Beta:         second.Beta - first.Beta,
		Income:       second.Income - first.Income,
		ESGScore:     second.ESGScore - first.ESGScore,
	}
}

func formatComparison(rows []agent.ComparisonRow) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "portfolio\tannual_return\tvolatility\tsharpe\tbeta\tincome\tesg_score\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.2f\t%.4f\t\n",
			r.Portfolio, r.AnnualReturn, r.Volatility, r.Sharpe, r.Beta, r.Income, r.ESGScore)
	}
	_ = w.Flush()
	return buf.String()
}
