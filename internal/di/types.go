// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/alschell/wealthhorizonai/internal/coordinator"
	"github.com/alschell/wealthhorizonai/internal/database"
	"github.com/alschell/wealthhorizonai/internal/ledger"
	"github.com/alschell/wealthhorizonai/internal/metrics"
	"github.com/alschell/wealthhorizonai/internal/modules/charts"
	"github.com/alschell/wealthhorizonai/internal/reports"
	"github.com/alschell/wealthhorizonai/internal/scheduler"
	"github.com/alschell/wealthhorizonai/internal/state"
)

// Container holds every long-lived dependency of a running session.
type Container struct {
	// Storage
	LedgerDB *database.DB
	Journal  *ledger.Journal

	// Session
	State *state.State

	// Services
	Charts      *charts.Service
	Exporter    *reports.Exporter
	Uploader    *reports.S3Uploader // nil unless REPORT_S3_BUCKET is set
	Metrics     *metrics.Metrics
	Registry    coordinator.Registry
	Coordinator *coordinator.Coordinator

	// Jobs
	Scheduler    *scheduler.Scheduler // nil unless AUTOPILOT_SCHEDULE is set
	AutopilotJob *scheduler.AutopilotJob
}

// Close releases the container's resources. The scheduler, if any, must be
// stopped by whoever started it.
func (c *Container) Close() error {
	if c.LedgerDB != nil {
		return c.LedgerDB.Close()
	}
	return nil
}
