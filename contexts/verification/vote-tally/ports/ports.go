package ports

import (
	"context"
	"time"

	"bountyfi/contexts/verification/vote-tally/domain/entities"
)

type VoteRepository interface {
	// SaveVote records an immutable vote. Implementations must enforce the
	// (submission, validator) uniqueness constraint and surface
	// ErrDuplicateVote on violation.
	SaveVote(ctx context.Context, vote entities.Vote) error
	GetVoteByIdentity(ctx context.Context, submissionID string, validatorID string) (entities.Vote, bool, error)
	// ListVotesBySubmission returns votes in cast order.
	ListVotesBySubmission(ctx context.Context, submissionID string) ([]entities.Vote, error)
}

type ValidatorStatsRepository interface {
	IncrementValidations(ctx context.Context, validatorID string, now time.Time) error
	GetValidatorStats(ctx context.Context, validatorID string) (entities.ValidatorStats, error)
	// ResetAllValidations zeroes every validator's daily counter. The reset is
	// idempotent: re-running within the same period has no additional effect.
	ResetAllValidations(ctx context.Context, now time.Time) (int, error)
}

// SubmissionReview is the cross-context projection of a submission as the
// tally engine needs to see it.
type SubmissionReview struct {
	SubmissionID string
	SubmitterID  string
	Status       string
}

type SubmissionReader interface {
	GetSubmissionReview(ctx context.Context, submissionID string) (SubmissionReview, error)
}

// ConsensusApplier hands a resolved quorum decision to the lifecycle state
// machine. Implementations must be idempotent under concurrent quorum
// observation.
type ConsensusApplier interface {
	ApplyHumanConsensus(ctx context.Context, submissionID string, decision entities.VoteDecision) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
