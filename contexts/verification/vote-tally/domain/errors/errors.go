package errors

import "errors"

var (
	ErrInvalidVoteInput   = errors.New("invalid vote input")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCollusion          = errors.New("submitter may not vote on their own submission")
	ErrDuplicateVote      = errors.New("validator already voted on this submission")
	ErrInvalidState       = errors.New("submission is not open for human review")
	ErrAlreadyDecided     = errors.New("submission consensus is already decided")
)
