package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LogClaimRequest struct {
	CampaignID     string `json:"campaign_id"`
	TxHash         string `json:"tx_hash"`
	RedemptionCode string `json:"redemption_code,omitempty"`
	MerchantID     string `json:"merchant_id,omitempty"`
}

type RedeemPrizeRequest struct {
	Code string `json:"code"`
}

type DrawResponse struct {
	DrawID        string  `json:"draw_id"`
	CampaignID    string  `json:"campaign_id"`
	TxHash        string  `json:"tx_hash"`
	Status        string  `json:"status"`
	PrizeAmount   float64 `json:"prize_amount"`
	WinnerWallet  string  `json:"winner_wallet,omitempty"`
	MerchantID    string  `json:"merchant_id,omitempty"`
	RedeemedAt    string  `json:"redeemed_at,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type DrawListResponse struct {
	Items []DrawResponse `json:"items"`
}
