package entities

import (
	"sort"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusActive      CampaignStatus = "ACTIVE"
	CampaignStatusDrawPending CampaignStatus = "DRAW_PENDING"
)

// TicketGrant records lottery tickets earned by one wallet in a campaign.
// A wallet may accumulate multiple grants; draws aggregate them.
type TicketGrant struct {
	GrantID    string
	CampaignID string
	Wallet     string
	Count      uint64
	CreatedAt  time.Time
}

// CampaignProjection is the lottery-side view of a campaign. ChainCampaignID
// is the explicit mapping into the on-chain identifier space; absence means
// the campaign cannot be drawn.
type CampaignProjection struct {
	CampaignID      string
	ChainCampaignID *uint64
	Status          CampaignStatus
	DrawTxHash      string
	DrawRequestedAt *time.Time
	UpdatedAt       time.Time
}

// AggregateTickets folds grants into one entry per wallet. Wallets are sorted
// so the participants and counts slices are stable and index-aligned; the
// draw contract treats index i of both as one entry.
func AggregateTickets(grants []TicketGrant) (participants []string, counts []uint64) {
	totals := map[string]uint64{}
	for _, grant := range grants {
		totals[grant.Wallet] += grant.Count
	}
	participants = make([]string, 0, len(totals))
	for wallet := range totals {
		participants = append(participants, wallet)
	}
	sort.Strings(participants)
	counts = make([]uint64, len(participants))
	for i, wallet := range participants {
		counts[i] = totals[wallet]
	}
	return participants, counts
}
