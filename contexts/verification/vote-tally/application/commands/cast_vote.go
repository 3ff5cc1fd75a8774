package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/verification/vote-tally/application"
	"bountyfi/contexts/verification/vote-tally/domain/entities"
	domainerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	"bountyfi/contexts/verification/vote-tally/ports"
)

const submissionStatusNeedsHumanReview = "NEEDS_HUMAN_REVIEW"

// decidedStatuses are lifecycle states past the human-review stage. Votes
// arriving for these submissions are kept for audit but never trigger a
// consensus action again.
var decidedStatuses = map[string]bool{
	"APPROVED":          true,
	"REJECTED":          true,
	"SETTLED":           true,
	"SETTLEMENT_FAILED": true,
}

type CastVoteCommand struct {
	SubmissionID string
	ValidatorID  string
	Decision     entities.VoteDecision
}

type CastVoteResult struct {
	Vote          entities.Vote
	QuorumReached bool
	Decision      entities.VoteDecision
}

// CastVoteUseCase accepts one human vote at a time, enforces eligibility and
// anti-collusion, and resolves quorum.
//
// Quorum policy: the majority is computed over the first QuorumSize votes in
// cast order. With an even quorum a tie keeps the submission open and the
// window extends one vote at a time until a strict majority appears; this is
// deliberate, documented behavior rather than a silent drop.
type CastVoteUseCase struct {
	Votes       ports.VoteRepository
	Stats       ports.ValidatorStatsRepository
	Submissions ports.SubmissionReader
	Consensus   ports.ConsensusApplier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	QuorumSize  int
	Logger      *slog.Logger
}

func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	validatorID := strings.TrimSpace(cmd.ValidatorID)
	if submissionID == "" || validatorID == "" ||
		(cmd.Decision != entities.VoteDecisionApprove && cmd.Decision != entities.VoteDecisionReject) {
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	review, err := uc.Submissions.GetSubmissionReview(ctx, submissionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if strings.EqualFold(strings.TrimSpace(review.SubmitterID), validatorID) {
		logger.Warn("collusion attempt rejected",
			"event", "tally_collusion_rejected",
			"module", "verification/vote-tally",
			"layer", "application",
			"submission_id", submissionID,
			"validator_id", validatorID,
		)
		return CastVoteResult{}, domainerrors.ErrCollusion
	}

	if _, found, err := uc.Votes.GetVoteByIdentity(ctx, submissionID, validatorID); err != nil {
		return CastVoteResult{}, err
	} else if found {
		return CastVoteResult{}, domainerrors.ErrDuplicateVote
	}

	decided := decidedStatuses[strings.TrimSpace(review.Status)]
	if !decided && strings.TrimSpace(review.Status) != submissionStatusNeedsHumanReview {
		return CastVoteResult{}, domainerrors.ErrInvalidState
	}

	now := uc.now()
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:       voteID,
		SubmissionID: submissionID,
		ValidatorID:  validatorID,
		Decision:     cmd.Decision,
		CreatedAt:    now,
	}
	if err := uc.Votes.SaveVote(ctx, vote); err != nil {
		return CastVoteResult{}, err
	}
	// Eligibility counters are advisory; a counter failure never rolls back a
	// recorded vote.
	if uc.Stats != nil {
		if err := uc.Stats.IncrementValidations(ctx, validatorID, now); err != nil {
			logger.Warn("validator stats increment failed",
				"event", "tally_stats_increment_failed",
				"module", "verification/vote-tally",
				"layer", "application",
				"validator_id", validatorID,
				"error", err.Error(),
			)
		}
	}

	if decided {
		logger.Info("audit vote recorded after decision",
			"event", "tally_audit_vote_recorded",
			"module", "verification/vote-tally",
			"layer", "application",
			"submission_id", submissionID,
			"validator_id", validatorID,
		)
		return CastVoteResult{Vote: vote}, domainerrors.ErrAlreadyDecided
	}

	votes, err := uc.Votes.ListVotesBySubmission(ctx, submissionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	quorum := uc.resolveQuorumSize()
	if len(votes) < quorum {
		logger.Info("vote recorded below quorum",
			"event", "tally_vote_recorded",
			"module", "verification/vote-tally",
			"layer", "application",
			"submission_id", submissionID,
			"validator_id", validatorID,
			"votes", len(votes),
			"quorum", quorum,
		)
		return CastVoteResult{Vote: vote}, nil
	}

	decision, resolved := resolveMajority(votes, quorum)
	if !resolved {
		logger.Info("quorum tied; review stays open for one more vote",
			"event", "tally_quorum_tied",
			"module", "verification/vote-tally",
			"layer", "application",
			"submission_id", submissionID,
			"votes", len(votes),
			"quorum", quorum,
		)
		return CastVoteResult{Vote: vote}, nil
	}

	if err := uc.Consensus.ApplyHumanConsensus(ctx, submissionID, decision); err != nil {
		// A concurrent vote already applied the same quorum outcome.
		if errors.Is(err, domainerrors.ErrAlreadyDecided) {
			return CastVoteResult{Vote: vote, QuorumReached: true, Decision: decision}, nil
		}
		return CastVoteResult{}, err
	}

	logger.Info("quorum reached",
		"event", "tally_quorum_reached",
		"module", "verification/vote-tally",
		"layer", "application",
		"submission_id", submissionID,
		"decision", string(decision),
		"votes", len(votes),
		"quorum", quorum,
	)
	return CastVoteResult{Vote: vote, QuorumReached: true, Decision: decision}, nil
}

// resolveMajority tallies the first quorum votes, then widens the window one
// vote at a time while the tally is tied.
func resolveMajority(votes []entities.Vote, quorum int) (entities.VoteDecision, bool) {
	for window := quorum; window <= len(votes); window++ {
		approvals, rejections := entities.TallyPrefix(votes, window)
		if approvals > rejections {
			return entities.VoteDecisionApprove, true
		}
		if rejections > approvals {
			return entities.VoteDecisionReject, true
		}
	}
	return "", false
}

func (uc CastVoteUseCase) resolveQuorumSize() int {
	if uc.QuorumSize <= 0 {
		return 3
	}
	return uc.QuorumSize
}

func (uc CastVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
