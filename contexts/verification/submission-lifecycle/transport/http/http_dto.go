package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSubmissionRequest struct {
	CampaignID        string   `json:"campaign_id"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	EvidenceURLs      []string `json:"evidence_urls"`
	ChainSubmissionID *uint64  `json:"chain_submission_id,omitempty"`
	Golden            bool     `json:"golden,omitempty"`
	ExpectedOutcome   string   `json:"expected_outcome,omitempty"`
}

type RecordScoreRequest struct {
	Confidence int `json:"confidence"`
}

type SubmissionResponse struct {
	SubmissionID       string   `json:"submission_id"`
	CampaignID         string   `json:"campaign_id"`
	SubmitterID        string   `json:"submitter_id"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	EvidenceURLs       []string `json:"evidence_urls"`
	Status             string   `json:"status"`
	AIConfidence       *int     `json:"ai_confidence,omitempty"`
	ChainSubmissionID  *uint64  `json:"chain_submission_id,omitempty"`
	SettlementTxHash   string   `json:"settlement_tx_hash,omitempty"`
	SettlementStatus   string   `json:"settlement_status,omitempty"`
	SettlementAttempts int      `json:"settlement_attempts,omitempty"`
	Golden             bool     `json:"golden,omitempty"`
	Replayed           bool     `json:"replayed,omitempty"`
}

type AnomalyItem struct {
	AnomalyID       string `json:"anomaly_id"`
	SubmissionID    string `json:"submission_id"`
	ExpectedOutcome string `json:"expected_outcome"`
	ActualOutcome   string `json:"actual_outcome"`
	CreatedAt       string `json:"created_at"`
}

type AnomalyListResponse struct {
	Items []AnomalyItem `json:"items"`
}
