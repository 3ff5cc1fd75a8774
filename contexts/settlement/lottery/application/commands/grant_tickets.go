package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/settlement/lottery/application"
	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	"bountyfi/contexts/settlement/lottery/ports"
)

type GrantTicketsCommand struct {
	CampaignID string
	Wallet     string
	Count      uint64
}

// GrantTicketsUseCase records tickets earned by a wallet, typically in
// response to a settled submission. Grants accumulate; the draw aggregates
// them per wallet.
type GrantTicketsUseCase struct {
	Grants ports.TicketGrantRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc GrantTicketsUseCase) GrantTickets(ctx context.Context, cmd GrantTicketsCommand) (entities.TicketGrant, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	wallet := strings.TrimSpace(cmd.Wallet)
	if campaignID == "" || wallet == "" || cmd.Count == 0 {
		return entities.TicketGrant{}, domainerrors.ErrInvalidLotteryInput
	}

	grantID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TicketGrant{}, err
	}
	grant := entities.TicketGrant{
		GrantID:    grantID,
		CampaignID: campaignID,
		Wallet:     wallet,
		Count:      cmd.Count,
		CreatedAt:  uc.now(),
	}
	if err := uc.Grants.AddGrant(ctx, grant); err != nil {
		return entities.TicketGrant{}, err
	}

	logger.Info("lottery tickets granted",
		"event", "lottery_tickets_granted",
		"module", "settlement/lottery",
		"layer", "application",
		"campaign_id", campaignID,
		"wallet", wallet,
		"count", cmd.Count,
	)
	return grant, nil
}

func (uc GrantTicketsUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
