package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/coordinator"
	"github.com/alschell/wealthhorizonai/internal/metrics"
	"github.com/alschell/wealthhorizonai/internal/modules/analysis"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
	"github.com/alschell/wealthhorizonai/internal/modules/compliance"
	"github.com/alschell/wealthhorizonai/internal/modules/forecasting"
	"github.com/alschell/wealthhorizonai/internal/modules/research"
	"github.com/alschell/wealthhorizonai/internal/modules/risk"
	"github.com/alschell/wealthhorizonai/internal/modules/trade"
	"github.com/alschell/wealthhorizonai/internal/reports"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// InitializeServices builds the session state, the capability registry and
// the coordinator on top of an initialized container.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	seed, err := state.DefaultSeed()
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	s, err := state.New(seed, state.Options{
		Seed:              cfg.RandomSeed,
		MemoryCapacity:    cfg.AdaptiveMemoryCapacity,
		MonteCarloSamples: cfg.MonteCarloSamples,
		Journal:           container.Journal,
		Log:               log,
	})
	if err != nil {
		return fmt.Errorf("failed to build session state: %w", err)
	}
	container.State = s

	var uploader reports.Uploader
	if cfg.ReportS3Bucket != "" {
		u, err := reports.NewS3Uploader(ctx, reports.S3Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.ReportS3Bucket,
			Prefix:          cfg.ReportS3Prefix,
			Endpoint:        cfg.ReportS3Endpoint,
			AccessKeyID:     cfg.ReportS3AccessKeyID,
			SecretAccessKey: cfg.ReportS3SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize report uploader: %w", err)
		}
		container.Uploader = u
		uploader = u
		log.Info().Str("bucket", cfg.ReportS3Bucket).Msg("Report upload enabled")
	}

	container.Charts = charts.NewService(log)
	container.Exporter = reports.NewExporter(cfg.ReportDir, uploader, log)
	container.Metrics = metrics.New()

	container.Registry = coordinator.Registry{
		agent.Analysis:    analysis.Factory(container.Charts, container.Exporter, log),
		agent.Compliance:  compliance.Factory(log),
		agent.Forecasting: forecasting.Factory(log),
		agent.Research:    research.Factory(log),
		agent.Risk:        risk.Factory(log),
		agent.Trade:       trade.Factory(log),
	}
	container.Coordinator = coordinator.New(s, container.Registry, container.Metrics, log)

	log.Info().
		Strs("portfolios", s.PortfolioIDs()).
		Int("capabilities", len(container.Registry)).
		Msg("Services initialized")
	return nil
}
