package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alschell/wealthhorizonai/internal/agent"
)

// AutopilotJob runs the autopilot rebalance through the delegator.
type AutopilotJob struct {
	delegator agent.Delegator
	log       zerolog.Logger
}

// NewAutopilotJob creates the job.
func NewAutopilotJob(d agent.Delegator, log zerolog.Logger) *AutopilotJob {
	return &AutopilotJob{
		delegator: d,
		log:       log.With().Str("job", "autopilot").Logger(),
	}
}

// Name returns the job name
func (j *AutopilotJob) Name() string {
	return "autopilot_rebalance"
}

// Run executes one autopilot pass.
func (j *AutopilotJob) Run(ctx context.Context) error {
	report, err := agent.As[agent.AutopilotReport](ctx, j.delegator, agent.Trade, agent.AutopilotRebalance, agent.Params{})
	if err != nil {
		return fmt.Errorf("autopilot run failed: %w", err)
	}
	j.log.Info().
		Int("intents", len(report.Intents)).
		Int("memory_size", report.MemorySize).
		Int("policy_updates", report.PolicyUpdates).
		Msg(report.Message)
	return nil
}
