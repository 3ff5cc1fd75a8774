package workers

import (
	"context"
	"log/slog"
	"time"

	application "bountyfi/contexts/verification/vote-tally/application"
	"bountyfi/contexts/verification/vote-tally/ports"
)

// StatsResetJob zeroes the per-validator daily validation counters. It is
// scheduled once per day but safe to run more often: the repository reset is
// idempotent within a period, so overlapping runs only reset each counter
// once.
type StatsResetJob struct {
	Stats    ports.ValidatorStatsRepository
	Clock    ports.Clock
	Disabled bool
	Logger   *slog.Logger
}

func (j StatsResetJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}

	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	reset, err := j.Stats.ResetAllValidations(ctx, now)
	if err != nil {
		logger.Error("validator stats reset failed",
			"event", "tally_stats_reset_failed",
			"module", "verification/vote-tally",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	logger.Info("validator stats reset",
		"event", "tally_stats_reset",
		"module", "verification/vote-tally",
		"layer", "worker",
		"validators_reset", reset,
	)
	return nil
}
