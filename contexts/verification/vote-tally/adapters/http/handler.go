package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bountyfi/contexts/verification/vote-tally/application/commands"
	"bountyfi/contexts/verification/vote-tally/application/queries"
	"bountyfi/contexts/verification/vote-tally/domain/entities"
	httptransport "bountyfi/contexts/verification/vote-tally/transport/http"
)

type Handler struct {
	Cast    commands.CastVoteUseCase
	Queries queries.VoteQueries
	Logger  *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	submissionID string,
	validatorID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Cast.CastVote(ctx, commands.CastVoteCommand{
		SubmissionID: submissionID,
		ValidatorID:  validatorID,
		Decision:     entities.VoteDecision(req.Decision),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	response := httptransport.VoteResponse{
		VoteID:        result.Vote.VoteID,
		SubmissionID:  result.Vote.SubmissionID,
		ValidatorID:   result.Vote.ValidatorID,
		Decision:      string(result.Vote.Decision),
		CastAt:        result.Vote.CreatedAt.Format(time.RFC3339),
		QuorumReached: result.QuorumReached,
	}
	if result.QuorumReached {
		response.Consensus = string(result.Decision)
	}
	return response, nil
}

func (h Handler) ListVotesHandler(ctx context.Context, submissionID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Queries.ListVotesBySubmission(ctx, submissionID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteItem, 0, len(votes))
	for _, vote := range votes {
		items = append(items, httptransport.VoteItem{
			VoteID:      vote.VoteID,
			ValidatorID: vote.ValidatorID,
			Decision:    string(vote.Decision),
			CastAt:      vote.CreatedAt.Format(time.RFC3339),
		})
	}
	return httptransport.VoteListResponse{SubmissionID: submissionID, Items: items}, nil
}

func (h Handler) GetValidatorStatsHandler(ctx context.Context, validatorID string) (httptransport.ValidatorStatsResponse, error) {
	stats, err := h.Queries.GetValidatorStats(ctx, validatorID)
	if err != nil {
		return httptransport.ValidatorStatsResponse{}, err
	}
	response := httptransport.ValidatorStatsResponse{
		ValidatorID:      stats.ValidatorID,
		ValidationsToday: stats.ValidationsToday,
	}
	if !stats.LastResetAt.IsZero() {
		response.LastResetAt = stats.LastResetAt.Format(time.RFC3339)
	}
	return response, nil
}
