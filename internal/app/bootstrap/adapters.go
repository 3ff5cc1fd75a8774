package bootstrap

import (
	"context"
	"errors"

	reconcilerports "bountyfi/contexts/settlement/reconciler/ports"
	lifecyclecommands "bountyfi/contexts/verification/submission-lifecycle/application/commands"
	lifecycleentities "bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	lifecycleerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	lifecycleports "bountyfi/contexts/verification/submission-lifecycle/ports"
	tallyentities "bountyfi/contexts/verification/vote-tally/domain/entities"
	tallyerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	tallyports "bountyfi/contexts/verification/vote-tally/ports"
)

// Cross-context glue lives here so each context only sees its own ports.

// lifecycleSubmissionReader projects lifecycle submissions into the tally
// engine's review view.
type lifecycleSubmissionReader struct {
	Repository lifecycleports.SubmissionRepository
}

func (a lifecycleSubmissionReader) GetSubmissionReview(ctx context.Context, submissionID string) (tallyports.SubmissionReview, error) {
	submission, err := a.Repository.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, lifecycleerrors.ErrSubmissionNotFound) {
			return tallyports.SubmissionReview{}, tallyerrors.ErrSubmissionNotFound
		}
		return tallyports.SubmissionReview{}, err
	}
	return tallyports.SubmissionReview{
		SubmissionID: submission.SubmissionID,
		SubmitterID:  submission.SubmitterID,
		Status:       string(submission.Status),
	}, nil
}

// lifecycleConsensusApplier hands a quorum decision to the lifecycle state
// machine. A transition guard loss means another observer already applied the
// decision, which the tally engine treats as already decided.
type lifecycleConsensusApplier struct {
	Consensus lifecyclecommands.ConsensusUseCase
}

func (a lifecycleConsensusApplier) ApplyHumanConsensus(ctx context.Context, submissionID string, decision tallyentities.VoteDecision) error {
	_, err := a.Consensus.ApplyHumanConsensus(ctx, submissionID, lifecycleentities.ReviewDecision(decision))
	if err != nil {
		if errors.Is(err, lifecycleerrors.ErrInvalidStateTransition) {
			return tallyerrors.ErrAlreadyDecided
		}
		return err
	}
	return nil
}

// lifecycleSubmissionSettler exposes lifecycle settlement operations to the
// reconciler.
type lifecycleSubmissionSettler struct {
	Repository lifecycleports.SubmissionRepository
	Settlement lifecyclecommands.SettlementUseCase
}

func (a lifecycleSubmissionSettler) ListAwaitingSettlement(ctx context.Context, limit int) ([]reconcilerports.SettlementCandidate, error) {
	submissions, err := a.Repository.ListAwaitingSettlement(ctx, limit)
	if err != nil {
		return nil, err
	}
	candidates := make([]reconcilerports.SettlementCandidate, 0, len(submissions))
	for _, submission := range submissions {
		confidence := 0
		if submission.AIConfidence != nil {
			confidence = *submission.AIConfidence
		}
		candidates = append(candidates, reconcilerports.SettlementCandidate{
			SubmissionID:      submission.SubmissionID,
			ChainSubmissionID: submission.ChainSubmissionID,
			Confidence:        confidence,
			Attempts:          submission.SettlementAttempts,
		})
	}
	return candidates, nil
}

func (a lifecycleSubmissionSettler) MarkSettled(ctx context.Context, submissionID string, txHash string) error {
	return a.Settlement.MarkSettled(ctx, submissionID, txHash)
}

func (a lifecycleSubmissionSettler) MarkSettlementFailed(ctx context.Context, submissionID string, reason string) error {
	return a.Settlement.MarkSettlementFailed(ctx, submissionID, reason)
}

var (
	_ tallyports.SubmissionReader       = lifecycleSubmissionReader{}
	_ tallyports.ConsensusApplier       = lifecycleConsensusApplier{}
	_ reconcilerports.SubmissionSettler = lifecycleSubmissionSettler{}
)
