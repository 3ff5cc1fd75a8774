package queries

import (
	"context"
	"strings"

	"bountyfi/contexts/verification/vote-tally/domain/entities"
	domainerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	"bountyfi/contexts/verification/vote-tally/ports"
)

type VoteQueries struct {
	Votes ports.VoteRepository
	Stats ports.ValidatorStatsRepository
}

func (q VoteQueries) ListVotesBySubmission(ctx context.Context, submissionID string) ([]entities.Vote, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return nil, domainerrors.ErrInvalidVoteInput
	}
	return q.Votes.ListVotesBySubmission(ctx, submissionID)
}

func (q VoteQueries) GetValidatorStats(ctx context.Context, validatorID string) (entities.ValidatorStats, error) {
	validatorID = strings.TrimSpace(validatorID)
	if validatorID == "" {
		return entities.ValidatorStats{}, domainerrors.ErrInvalidVoteInput
	}
	return q.Stats.GetValidatorStats(ctx, validatorID)
}
