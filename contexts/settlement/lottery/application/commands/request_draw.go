package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/settlement/lottery/application"
	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	"bountyfi/contexts/settlement/lottery/ports"
)

type RequestDrawResult struct {
	CampaignID   string
	TxHash       string
	Participants []string
	TicketCounts []uint64
}

// RequestDrawUseCase aggregates a campaign's ticket grants and submits one
// draw request transaction. Every failure before submission leaves the
// campaign untouched; a failure between submission and the status write is
// surfaced as ErrDrawOutcomeUnknown so the caller consults the ledger before
// retrying instead of double-submitting.
type RequestDrawUseCase struct {
	Grants    ports.TicketGrantRepository
	Campaigns ports.CampaignRepository
	Ledger    ports.DrawLedger
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc RequestDrawUseCase) RequestDraw(ctx context.Context, campaignID string) (RequestDrawResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return RequestDrawResult{}, domainerrors.ErrInvalidLotteryInput
	}

	campaign, err := uc.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return RequestDrawResult{}, err
	}
	if campaign.Status == entities.CampaignStatusDrawPending {
		return RequestDrawResult{}, domainerrors.ErrDrawAlreadyRequested
	}
	if campaign.ChainCampaignID == nil {
		return RequestDrawResult{}, domainerrors.ErrIdentifierMappingMissing
	}

	grants, err := uc.Grants.ListGrantsByCampaign(ctx, campaignID)
	if err != nil {
		return RequestDrawResult{}, err
	}
	participants, counts := entities.AggregateTickets(grants)
	if len(participants) == 0 {
		return RequestDrawResult{}, domainerrors.ErrNoParticipants
	}

	txHash, err := uc.Ledger.SubmitDrawRequest(ctx, *campaign.ChainCampaignID, participants, counts)
	if err != nil {
		return RequestDrawResult{}, err
	}

	now := uc.now()
	campaign.Status = entities.CampaignStatusDrawPending
	campaign.DrawTxHash = txHash
	campaign.DrawRequestedAt = &now
	campaign.UpdatedAt = now
	if err := uc.Campaigns.MarkDrawRequested(ctx, campaign, []entities.CampaignStatus{entities.CampaignStatusActive}); err != nil {
		logger.Error("draw submitted but status write failed",
			"event", "lottery_draw_outcome_unknown",
			"module", "settlement/lottery",
			"layer", "application",
			"campaign_id", campaignID,
			"tx_hash", txHash,
			"error", err.Error(),
		)
		return RequestDrawResult{}, fmt.Errorf("%w: %s", domainerrors.ErrDrawOutcomeUnknown, txHash)
	}

	logger.Info("lottery draw requested",
		"event", "lottery_draw_requested",
		"module", "settlement/lottery",
		"layer", "application",
		"campaign_id", campaignID,
		"tx_hash", txHash,
		"participants", len(participants),
	)
	return RequestDrawResult{
		CampaignID:   campaignID,
		TxHash:       txHash,
		Participants: participants,
		TicketCounts: counts,
	}, nil
}

func (uc RequestDrawUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
