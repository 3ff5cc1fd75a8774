package entities

import "time"

type SubmissionStatus string

const (
	SubmissionStatusPending          SubmissionStatus = "PENDING"
	SubmissionStatusAIScored         SubmissionStatus = "AI_SCORED"
	SubmissionStatusAutoApproved     SubmissionStatus = "AUTO_APPROVED"
	SubmissionStatusAutoRejected     SubmissionStatus = "AUTO_REJECTED"
	SubmissionStatusNeedsHumanReview SubmissionStatus = "NEEDS_HUMAN_REVIEW"
	SubmissionStatusApproved         SubmissionStatus = "APPROVED"
	SubmissionStatusRejected         SubmissionStatus = "REJECTED"
	SubmissionStatusSettled          SubmissionStatus = "SETTLED"
	SubmissionStatusSettlementFailed SubmissionStatus = "SETTLEMENT_FAILED"
)

// Settlement bookkeeping values kept on the submission next to its lifecycle
// status. The lifecycle status stays APPROVED/AUTO_APPROVED across bounded
// retries; only permanent failure moves it to SETTLEMENT_FAILED.
const (
	SettlementStatusNone            = ""
	SettlementStatusRetry           = "RETRY"
	SettlementStatusSettled         = "SETTLED"
	SettlementStatusFailedPermanent = "FAILED_PERMANENT"
)

type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "APPROVE"
	ReviewDecisionReject  ReviewDecision = "REJECT"
)

// Submission is one unit of photo+GPS evidence verified against campaign
// rules. SubmissionID is the store-native identifier; ChainSubmissionID is
// the on-chain numeric identifier. The two spaces are mapped explicitly and
// never assumed equal.
type Submission struct {
	SubmissionID string
	CampaignID   string
	SubmitterID  string
	Latitude     float64
	Longitude    float64
	EvidenceURLs []string

	Status SubmissionStatus

	// AIConfidence is immutable once set.
	AIConfidence *int

	ChainSubmissionID  *uint64
	SettlementTxHash   string
	SettlementStatus   string
	SettlementAttempts int
	SettlementReason   string

	Golden          bool
	ExpectedOutcome ReviewDecision

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verdict reports the human-readable outcome for a submission whose status
// has passed the verdict stage, folding auto and human decisions together.
func (s Submission) Verdict() (ReviewDecision, bool) {
	switch s.Status {
	case SubmissionStatusAutoApproved, SubmissionStatusApproved,
		SubmissionStatusSettled, SubmissionStatusSettlementFailed:
		return ReviewDecisionApprove, true
	case SubmissionStatusAutoRejected, SubmissionStatusRejected:
		return ReviewDecisionReject, true
	default:
		return "", false
	}
}

// AwaitingSettlement reports whether the submission is eligible for the score
// settlement pass: an approved verdict, a recorded confidence, and no
// settlement transaction yet.
func (s Submission) AwaitingSettlement() bool {
	if s.Status != SubmissionStatusAutoApproved && s.Status != SubmissionStatusApproved {
		return false
	}
	if s.AIConfidence == nil {
		return false
	}
	if s.SettlementTxHash != "" {
		return false
	}
	return s.SettlementStatus != SettlementStatusFailedPermanent
}

// CalibrationAnomaly records a golden-task submission whose terminal verdict
// disagreed with its expected outcome. Anomalies are reporting input, never a
// submission failure.
type CalibrationAnomaly struct {
	AnomalyID       string
	SubmissionID    string
	ExpectedOutcome ReviewDecision
	ActualOutcome   ReviewDecision
	CreatedAt       time.Time
}
