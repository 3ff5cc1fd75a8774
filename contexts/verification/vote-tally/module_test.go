package votetally

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bountyfi/contexts/verification/vote-tally/application/commands"
	"bountyfi/contexts/verification/vote-tally/domain/entities"
	domainerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	"bountyfi/contexts/verification/vote-tally/ports"
)

// fakeSubmissions backs the review projection and records consensus calls.
type fakeSubmissions struct {
	mu      sync.Mutex
	reviews map[string]ports.SubmissionReview
	applied []entities.VoteDecision
}

func newFakeSubmissions(reviews ...ports.SubmissionReview) *fakeSubmissions {
	f := &fakeSubmissions{reviews: map[string]ports.SubmissionReview{}}
	for _, review := range reviews {
		f.reviews[review.SubmissionID] = review
	}
	return f
}

func (f *fakeSubmissions) GetSubmissionReview(_ context.Context, submissionID string) (ports.SubmissionReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, exists := f.reviews[submissionID]
	if !exists {
		return ports.SubmissionReview{}, domainerrors.ErrSubmissionNotFound
	}
	return review, nil
}

func (f *fakeSubmissions) ApplyHumanConsensus(_ context.Context, submissionID string, decision entities.VoteDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	review := f.reviews[submissionID]
	if review.Status != "NEEDS_HUMAN_REVIEW" {
		return domainerrors.ErrAlreadyDecided
	}
	if decision == entities.VoteDecisionApprove {
		review.Status = "APPROVED"
	} else {
		review.Status = "REJECTED"
	}
	f.reviews[submissionID] = review
	f.applied = append(f.applied, decision)
	return nil
}

func newTallyModule(submissions *fakeSubmissions, quorum int) Module {
	return NewInMemoryModule(submissions, submissions, quorum, nil)
}

func castVote(t *testing.T, module Module, submissionID, validatorID string, decision entities.VoteDecision) commands.CastVoteResult {
	t.Helper()
	result, err := module.Cast.CastVote(context.Background(), commands.CastVoteCommand{
		SubmissionID: submissionID,
		ValidatorID:  validatorID,
		Decision:     decision,
	})
	if err != nil {
		t.Fatalf("cast vote %s/%s returned error: %v", submissionID, validatorID, err)
	}
	return result
}

func TestQuorumMajorityApproves(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-1", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 3)

	first := castVote(t, module, "sub-1", "val-1", entities.VoteDecisionApprove)
	if first.QuorumReached {
		t.Fatal("quorum must not be reached after one vote")
	}
	second := castVote(t, module, "sub-1", "val-2", entities.VoteDecisionApprove)
	if second.QuorumReached {
		t.Fatal("quorum must not be reached after two votes")
	}
	third := castVote(t, module, "sub-1", "val-3", entities.VoteDecisionReject)
	if !third.QuorumReached {
		t.Fatal("expected quorum on the third vote")
	}
	if third.Decision != entities.VoteDecisionApprove {
		t.Fatalf("expected APPROVE majority, got %s", third.Decision)
	}
	if len(submissions.applied) != 1 || submissions.applied[0] != entities.VoteDecisionApprove {
		t.Fatalf("expected exactly one APPROVE consensus application, got %v", submissions.applied)
	}
}

func TestQuorumMajorityRejects(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-2", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 3)

	castVote(t, module, "sub-2", "val-1", entities.VoteDecisionReject)
	castVote(t, module, "sub-2", "val-2", entities.VoteDecisionReject)
	result := castVote(t, module, "sub-2", "val-3", entities.VoteDecisionApprove)
	if !result.QuorumReached || result.Decision != entities.VoteDecisionReject {
		t.Fatalf("expected REJECT quorum, got %+v", result)
	}
}

func TestCollusionRejected(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-3", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 3)

	_, err := module.Cast.CastVote(context.Background(), commands.CastVoteCommand{
		SubmissionID: "sub-3",
		ValidatorID:  "author",
		Decision:     entities.VoteDecisionApprove,
	})
	if !errors.Is(err, domainerrors.ErrCollusion) {
		t.Fatalf("expected ErrCollusion, got %v", err)
	}
	votes, err := module.Queries.ListVotesBySubmission(context.Background(), "sub-3")
	if err != nil {
		t.Fatalf("list votes returned error: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("collusion attempt must not be recorded, got %d votes", len(votes))
	}
}

func TestDuplicateVoteRejected(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-4", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 3)

	castVote(t, module, "sub-4", "val-1", entities.VoteDecisionApprove)
	_, err := module.Cast.CastVote(context.Background(), commands.CastVoteCommand{
		SubmissionID: "sub-4",
		ValidatorID:  "val-1",
		Decision:     entities.VoteDecisionReject,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
}

func TestVoteOnNonReviewSubmissionRejected(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-5", SubmitterID: "author", Status: "PENDING",
	})
	module := newTallyModule(submissions, 3)

	_, err := module.Cast.CastVote(context.Background(), commands.CastVoteCommand{
		SubmissionID: "sub-5",
		ValidatorID:  "val-1",
		Decision:     entities.VoteDecisionApprove,
	})
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestLateVoteRecordedForAudit(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-6", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 3)

	castVote(t, module, "sub-6", "val-1", entities.VoteDecisionApprove)
	castVote(t, module, "sub-6", "val-2", entities.VoteDecisionApprove)
	castVote(t, module, "sub-6", "val-3", entities.VoteDecisionApprove)

	_, err := module.Cast.CastVote(context.Background(), commands.CastVoteCommand{
		SubmissionID: "sub-6",
		ValidatorID:  "val-4",
		Decision:     entities.VoteDecisionReject,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	votes, err := module.Queries.ListVotesBySubmission(context.Background(), "sub-6")
	if err != nil {
		t.Fatalf("list votes returned error: %v", err)
	}
	if len(votes) != 4 {
		t.Fatalf("expected late vote recorded for audit, got %d votes", len(votes))
	}
	if len(submissions.applied) != 1 {
		t.Fatalf("expected one consensus application, got %d", len(submissions.applied))
	}
}

func TestEvenQuorumTieExtendsWindow(t *testing.T) {
	submissions := newFakeSubmissions(ports.SubmissionReview{
		SubmissionID: "sub-7", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW",
	})
	module := newTallyModule(submissions, 4)

	castVote(t, module, "sub-7", "val-1", entities.VoteDecisionApprove)
	castVote(t, module, "sub-7", "val-2", entities.VoteDecisionReject)
	castVote(t, module, "sub-7", "val-3", entities.VoteDecisionApprove)
	tied := castVote(t, module, "sub-7", "val-4", entities.VoteDecisionReject)
	if tied.QuorumReached {
		t.Fatal("tied even quorum must keep the submission open")
	}

	breaker := castVote(t, module, "sub-7", "val-5", entities.VoteDecisionApprove)
	if !breaker.QuorumReached || breaker.Decision != entities.VoteDecisionApprove {
		t.Fatalf("expected tie-breaking vote to resolve APPROVE, got %+v", breaker)
	}
}

func TestValidatorStatsCountAndReset(t *testing.T) {
	submissions := newFakeSubmissions(
		ports.SubmissionReview{SubmissionID: "sub-8", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW"},
		ports.SubmissionReview{SubmissionID: "sub-9", SubmitterID: "author", Status: "NEEDS_HUMAN_REVIEW"},
	)
	module := newTallyModule(submissions, 5)

	castVote(t, module, "sub-8", "val-1", entities.VoteDecisionApprove)
	castVote(t, module, "sub-9", "val-1", entities.VoteDecisionApprove)

	stats, err := module.Queries.GetValidatorStats(context.Background(), "val-1")
	if err != nil {
		t.Fatalf("get stats returned error: %v", err)
	}
	if stats.ValidationsToday != 2 {
		t.Fatalf("expected 2 validations today, got %d", stats.ValidationsToday)
	}

	if err := module.StatsReset.RunOnce(context.Background()); err != nil {
		t.Fatalf("stats reset returned error: %v", err)
	}
	// Re-running within the same period is a no-op.
	if err := module.StatsReset.RunOnce(context.Background()); err != nil {
		t.Fatalf("second stats reset returned error: %v", err)
	}

	stats, err = module.Queries.GetValidatorStats(context.Background(), "val-1")
	if err != nil {
		t.Fatalf("get stats after reset returned error: %v", err)
	}
	if stats.ValidationsToday != 0 {
		t.Fatalf("expected counter reset to 0, got %d", stats.ValidationsToday)
	}
}
