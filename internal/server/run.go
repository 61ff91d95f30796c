package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/di"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// Run wires a session, serves HTTP until ctx is done, then shuts down the
// server and scheduler in that order.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not configured - every protected request will be rejected")
	}

	srv := New(Config{
		Log:         log,
		Config:      cfg,
		Coordinator: container.Coordinator,
		Metrics:     container.Metrics,
	})

	if container.Scheduler != nil {
		container.Scheduler.Start()
		defer container.Scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
