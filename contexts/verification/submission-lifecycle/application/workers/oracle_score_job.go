package workers

import (
	"context"
	"errors"
	"log/slog"

	application "bountyfi/contexts/verification/submission-lifecycle/application"
	"bountyfi/contexts/verification/submission-lifecycle/application/commands"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

// OracleScoreJob scores pending submissions through the vision oracle.
// Oracle outages are transient: the affected submission stays PENDING and is
// picked up again on the next pass. One submission's failure never aborts
// the batch.
type OracleScoreJob struct {
	Repository ports.SubmissionRepository
	Oracle     ports.Oracle
	Score      commands.ScoreUseCase
	RubricText string
	BatchSize  int
	Disabled   bool
	Logger     *slog.Logger
}

func (j OracleScoreJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		logger.Info("oracle score job disabled by feature flag",
			"event", "lifecycle_oracle_job_disabled",
			"module", "verification/submission-lifecycle",
			"layer", "worker",
		)
		return nil
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 20
	}

	pending, err := j.Repository.ListPendingForScoring(ctx, limit)
	if err != nil {
		logger.Error("oracle score job list failed",
			"event", "lifecycle_oracle_job_list_failed",
			"module", "verification/submission-lifecycle",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	scored := 0
	for _, submission := range pending {
		if len(submission.EvidenceURLs) == 0 {
			continue
		}
		confidence, err := j.Oracle.Score(ctx, submission.EvidenceURLs[0], j.RubricText)
		if err != nil {
			if errors.Is(err, domainerrors.ErrOracleUnavailable) || errors.Is(err, domainerrors.ErrOracleTimeout) {
				logger.Warn("oracle transiently failed; submission stays pending",
					"event", "lifecycle_oracle_transient_failure",
					"module", "verification/submission-lifecycle",
					"layer", "worker",
					"submission_id", submission.SubmissionID,
					"error", err.Error(),
				)
				continue
			}
			logger.Error("oracle scoring failed",
				"event", "lifecycle_oracle_score_failed",
				"module", "verification/submission-lifecycle",
				"layer", "worker",
				"submission_id", submission.SubmissionID,
				"error", err.Error(),
			)
			continue
		}
		if _, err := j.Score.RecordAIScore(ctx, submission.SubmissionID, confidence); err != nil {
			// AlreadyScored means a concurrent pass won the race; nothing to do.
			if errors.Is(err, domainerrors.ErrAlreadyScored) {
				continue
			}
			logger.Error("recording oracle score failed",
				"event", "lifecycle_oracle_record_failed",
				"module", "verification/submission-lifecycle",
				"layer", "worker",
				"submission_id", submission.SubmissionID,
				"error", err.Error(),
			)
			continue
		}
		scored++
	}

	logger.Info("oracle score job completed",
		"event", "lifecycle_oracle_job_completed",
		"module", "verification/submission-lifecycle",
		"layer", "worker",
		"selected", len(pending),
		"scored", scored,
	)
	return nil
}
