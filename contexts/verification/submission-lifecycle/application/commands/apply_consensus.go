package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/verification/submission-lifecycle/application"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

// ConsensusUseCase applies a resolved human quorum decision. It is only
// callable while the submission sits in NEEDS_HUMAN_REVIEW; a second
// application of the same decision fails the state guard, which is what makes
// concurrent quorum observation safe.
type ConsensusUseCase struct {
	Repository ports.SubmissionRepository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ConsensusUseCase) ApplyHumanConsensus(ctx context.Context, submissionID string, decision entities.ReviewDecision) (entities.Submission, error) {
	logger := application.ResolveLogger(uc.Logger)
	if decision != entities.ReviewDecisionApprove && decision != entities.ReviewDecisionReject {
		return entities.Submission{}, domainerrors.ErrInvalidSubmissionInput
	}

	submission, err := uc.Repository.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return entities.Submission{}, err
	}
	if submission.Status != entities.SubmissionStatusNeedsHumanReview {
		return entities.Submission{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	next := entities.SubmissionStatusApproved
	eventType := "submission.approved"
	if decision == entities.ReviewDecisionReject {
		next = entities.SubmissionStatusRejected
		eventType = "submission.rejected"
	}
	submission.Status = next
	submission.UpdatedAt = now
	if err := uc.Repository.UpdateSubmissionIf(ctx, submission, []entities.SubmissionStatus{
		entities.SubmissionStatusNeedsHumanReview,
	}); err != nil {
		return entities.Submission{}, err
	}

	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, eventType, submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"decision":      string(decision),
	}); err != nil {
		return entities.Submission{}, err
	}
	if err := recordGoldenAnomaly(ctx, uc.Repository, uc.IDGen, logger, submission, now); err != nil {
		return entities.Submission{}, err
	}

	logger.Info("human consensus applied",
		"event", "lifecycle_consensus_applied",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"decision", string(decision),
	)
	return submission, nil
}

func (uc ConsensusUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
