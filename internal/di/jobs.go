package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/scheduler"
)

// JobTimeout bounds a single scheduled run.
const JobTimeout = 5 * time.Minute

// RegisterJobs creates the autopilot job and, when a schedule is configured,
// a scheduler that runs it. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.AutopilotJob = scheduler.NewAutopilotJob(container.Coordinator, log)

	if cfg.AutopilotSchedule == "" {
		log.Debug().Msg("Scheduled autopilot disabled")
		return nil
	}

	sched := scheduler.New(JobTimeout, log)
	if err := sched.AddJob(cfg.AutopilotSchedule, container.AutopilotJob); err != nil {
		return fmt.Errorf("failed to register %s: %w", container.AutopilotJob.Name(), err)
	}
	container.Scheduler = sched
	return nil
}
