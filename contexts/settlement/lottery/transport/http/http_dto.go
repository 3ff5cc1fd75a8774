package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantTicketsRequest struct {
	Wallet string `json:"wallet"`
	Count  uint64 `json:"count"`
}

type GrantResponse struct {
	GrantID    string `json:"grant_id"`
	CampaignID string `json:"campaign_id"`
	Wallet     string `json:"wallet"`
	Count      uint64 `json:"count"`
	CreatedAt  string `json:"created_at"`
}

type DrawRequestResponse struct {
	CampaignID   string   `json:"campaign_id"`
	TxHash       string   `json:"tx_hash"`
	Participants []string `json:"participants"`
	TicketCounts []uint64 `json:"ticket_counts"`
}

type TicketTotalItem struct {
	Wallet string `json:"wallet"`
	Count  uint64 `json:"count"`
}

type TicketTotalsResponse struct {
	CampaignID string            `json:"campaign_id"`
	Items      []TicketTotalItem `json:"items"`
}

type CampaignResponse struct {
	CampaignID      string  `json:"campaign_id"`
	ChainCampaignID *uint64 `json:"chain_campaign_id,omitempty"`
	Status          string  `json:"status"`
	DrawTxHash      string  `json:"draw_tx_hash,omitempty"`
	DrawRequestedAt string  `json:"draw_requested_at,omitempty"`
}
