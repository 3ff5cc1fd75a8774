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

const settlementReasonLimit = 255

// SettlementUseCase records settlement outcomes from the reconciler.
// MarkSettled is idempotent for the same transaction hash; a differing hash
// is a conflict that signals a double-submission bug and is never resolved
// silently.
type SettlementUseCase struct {
	Repository  ports.SubmissionRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	MaxAttempts int
	Logger      *slog.Logger
}

func (uc SettlementUseCase) MarkSettled(ctx context.Context, submissionID string, txHash string) error {
	logger := application.ResolveLogger(uc.Logger)
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return domainerrors.ErrInvalidSubmissionInput
	}

	submission, err := uc.Repository.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return err
	}
	if submission.Status == entities.SubmissionStatusSettled {
		if submission.SettlementTxHash == txHash {
			return nil
		}
		logger.Error("settlement conflict detected",
			"event", "lifecycle_settlement_conflict",
			"module", "verification/submission-lifecycle",
			"layer", "application",
			"submission_id", submission.SubmissionID,
			"recorded_tx", submission.SettlementTxHash,
			"conflicting_tx", txHash,
		)
		return domainerrors.ErrSettlementConflict
	}
	if submission.Status != entities.SubmissionStatusApproved &&
		submission.Status != entities.SubmissionStatusAutoApproved {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	previous := submission.Status
	submission.Status = entities.SubmissionStatusSettled
	submission.SettlementTxHash = txHash
	submission.SettlementStatus = entities.SettlementStatusSettled
	submission.SettlementReason = ""
	submission.UpdatedAt = now
	if err := uc.Repository.UpdateSubmissionIf(ctx, submission, []entities.SubmissionStatus{
		entities.SubmissionStatusApproved,
		entities.SubmissionStatusAutoApproved,
	}); err != nil {
		return err
	}

	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, "submission.settled", submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"tx_hash":       txHash,
	}); err != nil {
		return err
	}
	logger.Info("submission settled",
		"event", "lifecycle_submission_settled",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"previous_status", string(previous),
		"tx_hash", txHash,
	)
	return nil
}

// MarkSettlementFailed records one failed settlement attempt. The submission
// stays eligible for later passes until the attempt budget is spent, after
// which it moves to SETTLEMENT_FAILED for manual intervention.
func (uc SettlementUseCase) MarkSettlementFailed(ctx context.Context, submissionID string, reason string) error {
	logger := application.ResolveLogger(uc.Logger)

	submission, err := uc.Repository.GetSubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return err
	}
	if submission.Status != entities.SubmissionStatusApproved &&
		submission.Status != entities.SubmissionStatusAutoApproved {
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	submission.SettlementAttempts++
	submission.SettlementReason = truncateReason(reason)
	submission.UpdatedAt = now

	permanent := submission.SettlementAttempts >= uc.resolveMaxAttempts()
	if permanent {
		submission.Status = entities.SubmissionStatusSettlementFailed
		submission.SettlementStatus = entities.SettlementStatusFailedPermanent
	} else {
		submission.SettlementStatus = entities.SettlementStatusRetry
	}
	if err := uc.Repository.UpdateSubmissionIf(ctx, submission, []entities.SubmissionStatus{
		entities.SubmissionStatusApproved,
		entities.SubmissionStatusAutoApproved,
	}); err != nil {
		return err
	}

	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, "submission.settlement_failed", submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"reason":        submission.SettlementReason,
		"attempts":      submission.SettlementAttempts,
		"permanent":     permanent,
	}); err != nil {
		return err
	}
	logger.Warn("submission settlement failed",
		"event", "lifecycle_settlement_failed",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"attempts", submission.SettlementAttempts,
		"permanent", permanent,
		"reason", submission.SettlementReason,
	)
	return nil
}

func (uc SettlementUseCase) resolveMaxAttempts() int {
	if uc.MaxAttempts <= 0 {
		return 3
	}
	return uc.MaxAttempts
}

func (uc SettlementUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > settlementReasonLimit {
		return reason[:settlementReasonLimit]
	}
	return reason
}
