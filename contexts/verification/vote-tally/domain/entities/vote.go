package entities

import "time"

type VoteDecision string

const (
	VoteDecisionApprove VoteDecision = "APPROVE"
	VoteDecisionReject  VoteDecision = "REJECT"
)

// Vote is one validator's verdict on a submission under human review.
// Votes are immutable once recorded; at most one exists per
// (submission, validator) pair.
type Vote struct {
	VoteID       string
	SubmissionID string
	ValidatorID  string
	Decision     VoteDecision
	CreatedAt    time.Time
}

// ValidatorStats carries the running eligibility counters for one validator.
// The daily counter is reset by a scheduled idempotent batch job, not by
// individual votes.
type ValidatorStats struct {
	ValidatorID      string
	ValidationsToday int
	LastResetAt      time.Time
	UpdatedAt        time.Time
}

// TallyPrefix computes approve/reject counts over the first n votes in cast
// order.
func TallyPrefix(votes []Vote, n int) (approvals int, rejections int) {
	if n > len(votes) {
		n = len(votes)
	}
	for _, vote := range votes[:n] {
		if vote.Decision == VoteDecisionApprove {
			approvals++
		} else {
			rejections++
		}
	}
	return approvals, rejections
}
