package workers

import (
	"context"
	"errors"
	"log/slog"

	application "bountyfi/contexts/settlement/reconciler/application"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

// ScoreSettlementJob pushes approved submission verdicts onto the verifier
// contract. Each pass handles a bounded batch; every item is attempted at
// most once per pass, and an item failure is recorded on the submission
// without aborting the rest of the batch. The ledger client serializes nonce
// assignment, so submissions within a pass go out single-writer.
type ScoreSettlementJob struct {
	Submissions ports.SubmissionSettler
	Ledger      ports.Ledger
	BatchSize   int
	Disabled    bool
	Logger      *slog.Logger
}

func (j ScoreSettlementJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}

	batchSize := j.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	candidates, err := j.Submissions.ListAwaitingSettlement(ctx, batchSize)
	if err != nil {
		logger.Error("settlement batch selection failed",
			"event", "reconciler_settlement_select_failed",
			"module", "settlement/reconciler",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, candidate := range candidates {
		if err := j.settleOne(ctx, candidate); err != nil {
			logger.Warn("settlement item failed",
				"event", "reconciler_settlement_item_failed",
				"module", "settlement/reconciler",
				"layer", "worker",
				"submission_id", candidate.SubmissionID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (j ScoreSettlementJob) settleOne(ctx context.Context, candidate ports.SettlementCandidate) error {
	logger := application.ResolveLogger(j.Logger)

	// The store id and the on-chain id are distinct identifier spaces; a
	// missing mapping is a data defect, never something to coerce around.
	if candidate.ChainSubmissionID == nil {
		if err := j.Submissions.MarkSettlementFailed(ctx, candidate.SubmissionID, domainerrors.ErrIdentifierMappingMissing.Error()); err != nil {
			return err
		}
		return domainerrors.ErrIdentifierMappingMissing
	}

	txHash, err := j.Ledger.SubmitSettlement(ctx, *candidate.ChainSubmissionID, candidate.Confidence)
	if err != nil {
		if markErr := j.Submissions.MarkSettlementFailed(ctx, candidate.SubmissionID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	receipt, err := j.Ledger.WaitForReceipt(ctx, txHash)
	if err != nil {
		// A confirmation timeout counts as a failed attempt; the transaction
		// may still land, and the ledger stays the source of truth when the
		// next pass re-submits.
		if markErr := j.Submissions.MarkSettlementFailed(ctx, candidate.SubmissionID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}
	if !receipt.Success {
		if markErr := j.Submissions.MarkSettlementFailed(ctx, candidate.SubmissionID, "settlement transaction reverted"); markErr != nil {
			return markErr
		}
		return errors.New("settlement transaction reverted")
	}

	if err := j.Submissions.MarkSettled(ctx, candidate.SubmissionID, receipt.TxHash); err != nil {
		return err
	}
	logger.Info("submission settled on chain",
		"event", "reconciler_submission_settled",
		"module", "settlement/reconciler",
		"layer", "worker",
		"submission_id", candidate.SubmissionID,
		"tx_hash", receipt.TxHash,
	)
	return nil
}
