package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/verification/submission-lifecycle/application"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

// ScoreUseCase records the AI oracle confidence and applies the auto-decision
// policy. Thresholds come from configuration, never from code.
type ScoreUseCase struct {
	Repository           ports.SubmissionRepository
	Outbox               ports.OutboxWriter
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	AutoApproveThreshold int
	AutoRejectThreshold  int
	Logger               *slog.Logger
}

// RecordAIScore sets the confidence exactly once, moves the submission
// through AI_SCORED, and immediately resolves the auto-decision: confidence
// at or above the approve threshold auto-approves, at or below the reject
// threshold auto-rejects, anything between goes to human review.
func (uc ScoreUseCase) RecordAIScore(ctx context.Context, submissionID string, confidence int) (entities.Submission, error) {
	logger := application.ResolveLogger(uc.Logger)
	if confidence < 0 || confidence > 100 {
		return entities.Submission{}, domainerrors.ErrInvalidConfidence
	}

	submission, err := uc.Repository.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return entities.Submission{}, err
	}
	if submission.AIConfidence != nil {
		return entities.Submission{}, domainerrors.ErrAlreadyScored
	}
	if submission.Status != entities.SubmissionStatusPending {
		return entities.Submission{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	submission.AIConfidence = &confidence
	submission.Status = entities.SubmissionStatusAIScored
	submission.UpdatedAt = now
	// The PENDING guard is the serialization point: a concurrent duplicate
	// score loses the conditional update and surfaces as AlreadyScored.
	if err := uc.Repository.UpdateSubmissionIf(ctx, submission, []entities.SubmissionStatus{
		entities.SubmissionStatusPending,
	}); err != nil {
		if errors.Is(err, domainerrors.ErrInvalidStateTransition) {
			return entities.Submission{}, domainerrors.ErrAlreadyScored
		}
		return entities.Submission{}, err
	}
	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, "submission.ai_scored", submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"confidence":    confidence,
	}); err != nil {
		return entities.Submission{}, err
	}

	next := uc.autoDecision(confidence)
	submission.Status = next
	submission.UpdatedAt = now
	if err := uc.Repository.UpdateSubmissionIf(ctx, submission, []entities.SubmissionStatus{
		entities.SubmissionStatusAIScored,
	}); err != nil {
		return entities.Submission{}, err
	}

	eventType := map[entities.SubmissionStatus]string{
		entities.SubmissionStatusAutoApproved:     "submission.auto_approved",
		entities.SubmissionStatusAutoRejected:     "submission.auto_rejected",
		entities.SubmissionStatusNeedsHumanReview: "submission.needs_human_review",
	}[next]
	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, eventType, submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"confidence":    confidence,
		"status":        string(next),
	}); err != nil {
		return entities.Submission{}, err
	}

	if next != entities.SubmissionStatusNeedsHumanReview {
		if err := recordGoldenAnomaly(ctx, uc.Repository, uc.IDGen, logger, submission, now); err != nil {
			return entities.Submission{}, err
		}
	}

	logger.Info("ai score recorded",
		"event", "lifecycle_ai_score_recorded",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"confidence", confidence,
		"status", string(next),
	)
	return submission, nil
}

func (uc ScoreUseCase) autoDecision(confidence int) entities.SubmissionStatus {
	approveAt := uc.AutoApproveThreshold
	if approveAt <= 0 {
		approveAt = 80
	}
	rejectAt := uc.AutoRejectThreshold
	if rejectAt <= 0 {
		rejectAt = 20
	}
	switch {
	case confidence >= approveAt:
		return entities.SubmissionStatusAutoApproved
	case confidence <= rejectAt:
		return entities.SubmissionStatusAutoRejected
	default:
		return entities.SubmissionStatusNeedsHumanReview
	}
}

func (uc ScoreUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// recordGoldenAnomaly compares a golden submission's terminal verdict against
// its expected outcome and stores a calibration anomaly on mismatch. The
// submission itself is never failed by a calibration miss.
func recordGoldenAnomaly(
	ctx context.Context,
	repository ports.SubmissionRepository,
	idGen ports.IDGenerator,
	logger *slog.Logger,
	submission entities.Submission,
	now time.Time,
) error {
	if !submission.Golden {
		return nil
	}
	actual, terminal := submission.Verdict()
	if !terminal || actual == submission.ExpectedOutcome {
		return nil
	}
	anomalyID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := repository.AddAnomaly(ctx, entities.CalibrationAnomaly{
		AnomalyID:       anomalyID,
		SubmissionID:    submission.SubmissionID,
		ExpectedOutcome: submission.ExpectedOutcome,
		ActualOutcome:   actual,
		CreatedAt:       now,
	}); err != nil {
		return err
	}
	logger.Warn("golden task calibration anomaly",
		"event", "lifecycle_calibration_anomaly",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"expected", string(submission.ExpectedOutcome),
		"actual", string(actual),
	)
	return nil
}
