package entities

import "time"

type DrawStatus string

const (
	DrawStatusPending DrawStatus = "PENDING"
	DrawStatusWon     DrawStatus = "WON"
	DrawStatusLost    DrawStatus = "LOST"
	DrawStatusFailed  DrawStatus = "FAILED"
)

// PrizeDraw tracks one lottery claim transaction from observation through
// on-chain resolution and, for winners, merchant redemption. A draw is
// created PENDING when the claim transaction is logged and resolved exactly
// once by the reconciliation pass.
type PrizeDraw struct {
	DrawID         string
	CampaignID     string
	TxHash         string
	Status         DrawStatus
	PrizeAmount    float64
	WinnerWallet   string
	RedemptionCode string
	RedeemedAt     *time.Time
	MerchantID     string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Resolved reports whether the draw has left the reconciliation queue.
func (d PrizeDraw) Resolved() bool {
	return d.Status != DrawStatusPending
}
