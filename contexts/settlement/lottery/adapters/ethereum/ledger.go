package ethereumadapter

import (
	"context"

	"bountyfi/contexts/settlement/lottery/ports"
	"bountyfi/internal/platform/chain"
)

// Ledger adapts the platform chain client to the lottery's draw port.
type Ledger struct {
	Client *chain.Client
}

func (l Ledger) SubmitDrawRequest(ctx context.Context, chainCampaignID uint64, participants []string, ticketCounts []uint64) (string, error) {
	return l.Client.SubmitDrawRequest(ctx, chainCampaignID, participants, ticketCounts)
}

var _ ports.DrawLedger = Ledger{}
