package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	Decision string `json:"decision"`
}

type VoteResponse struct {
	VoteID        string `json:"vote_id"`
	SubmissionID  string `json:"submission_id"`
	ValidatorID   string `json:"validator_id"`
	Decision      string `json:"decision"`
	CastAt        string `json:"cast_at"`
	QuorumReached bool   `json:"quorum_reached"`
	Consensus     string `json:"consensus,omitempty"`
}

type VoteItem struct {
	VoteID      string `json:"vote_id"`
	ValidatorID string `json:"validator_id"`
	Decision    string `json:"decision"`
	CastAt      string `json:"cast_at"`
}

type VoteListResponse struct {
	SubmissionID string     `json:"submission_id"`
	Items        []VoteItem `json:"items"`
}

type ValidatorStatsResponse struct {
	ValidatorID      string `json:"validator_id"`
	ValidationsToday int    `json:"validations_today"`
	LastResetAt      string `json:"last_reset_at,omitempty"`
}
