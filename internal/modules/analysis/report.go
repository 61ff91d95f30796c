package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/config"
)

// ReportExportedMessage is returned after a successful export.
const ReportExportedMessage = "Comprehensive report exported to " + config.ReportFileName

// GenerateReport renders the comprehensive report and exports it.
func (s *Service) GenerateReport(ctx context.Context) (string, error) {
	content, err := s.RenderReport(ctx)
	if err != nil {
		return "", err
	}
	path, err := s.exporter.Export(ctx, config.ReportFileName, []byte(content))
	if err != nil {
		return "", fmt.Errorf("failed to export report: %w", err)
	}
	s.log.Info().Str("path", path).Msg("Report generated")
	return ReportExportedMessage, nil
}

// RenderReport builds the report text: performance comparison, asset
// allocation, macro scenarios and concentration risk.
func (s *Service) RenderReport(ctx context.Context) (string, error) {
	cmp, err := s.Compare(ctx)
	if err != nil {
		return "", err
	}
	alloc, err := s.AssetAllocation()
	if err != nil {
		return "", err
	}
	conc, err := agent.As[agent.ConcentrationRisk](ctx, s.delegate, agent.Risk, agent.GetConcentrationRisk, agent.Params{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Wealth Horizon Comprehensive Report\n")
	fmt.Fprintf(&b, "Date: %s\n", s.now().Format("2006-01-02 15:04:05"))

	b.WriteString("Performance Metrics:\n")
	b.WriteString(cmp.Table)
	if d := cmp.Difference; d != nil {
		fmt.Fprintf(&b, "Performance Differences (%s): Return %.2f%%, Volatility %.2f%%\n",
			d.Portfolio, d.AnnualReturn*100, d.Volatility*100)
	}

	b.WriteString("Asset Allocation:\n")
	for _, id := range s.state.PortfolioIDs() {
		fmt.Fprintf(&b, "  %s:\n", id)
		classes := alloc[id]
		names := make([]string, 0, len(classes))
		for c := range classes {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			fmt.Fprintf(&b, "    %-16s %6.2f%%\n", c, classes[c]*100)
		}
	}

	b.WriteString("Macro Scenarios:\n")
	for _, sc := range s.state.Scenarios {
		fmt.Fprintf(&b, "  %s (probability %.2f): %s\n", sc.Name, sc.Probability, sc.Hedge)
	}

	b.WriteString("Concentration Risk:\n")
	for _, id := range s.state.PortfolioIDs() {
		m, ok := conc[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s: hhi %.4f, diversification %.4f, annual volatility %.4f\n",
			id, m.HHI, m.DiversificationScore, m.AnnualVolatility)
	}

	return b.String(), nil
}
