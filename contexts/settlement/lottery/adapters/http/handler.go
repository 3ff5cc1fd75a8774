package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bountyfi/contexts/settlement/lottery/application/commands"
	"bountyfi/contexts/settlement/lottery/application/queries"
	httptransport "bountyfi/contexts/settlement/lottery/transport/http"
)

type Handler struct {
	Grant   commands.GrantTicketsUseCase
	Draw    commands.RequestDrawUseCase
	Queries queries.LotteryQueries
	Logger  *slog.Logger
}

func (h Handler) GrantTicketsHandler(ctx context.Context, campaignID string, req httptransport.GrantTicketsRequest) (httptransport.GrantResponse, error) {
	grant, err := h.Grant.GrantTickets(ctx, commands.GrantTicketsCommand{
		CampaignID: campaignID,
		Wallet:     req.Wallet,
		Count:      req.Count,
	})
	if err != nil {
		return httptransport.GrantResponse{}, err
	}
	return httptransport.GrantResponse{
		GrantID:    grant.GrantID,
		CampaignID: grant.CampaignID,
		Wallet:     grant.Wallet,
		Count:      grant.Count,
		CreatedAt:  grant.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) RequestDrawHandler(ctx context.Context, campaignID string) (httptransport.DrawRequestResponse, error) {
	result, err := h.Draw.RequestDraw(ctx, campaignID)
	if err != nil {
		return httptransport.DrawRequestResponse{}, err
	}
	return httptransport.DrawRequestResponse{
		CampaignID:   result.CampaignID,
		TxHash:       result.TxHash,
		Participants: result.Participants,
		TicketCounts: result.TicketCounts,
	}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.CampaignResponse, error) {
	campaign, err := h.Queries.GetCampaign(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	response := httptransport.CampaignResponse{
		CampaignID:      campaign.CampaignID,
		ChainCampaignID: campaign.ChainCampaignID,
		Status:          string(campaign.Status),
		DrawTxHash:      campaign.DrawTxHash,
	}
	if campaign.DrawRequestedAt != nil {
		response.DrawRequestedAt = campaign.DrawRequestedAt.Format(time.RFC3339)
	}
	return response, nil
}

func (h Handler) ListTicketTotalsHandler(ctx context.Context, campaignID string) (httptransport.TicketTotalsResponse, error) {
	participants, counts, err := h.Queries.ListTicketTotals(ctx, campaignID)
	if err != nil {
		return httptransport.TicketTotalsResponse{}, err
	}
	items := make([]httptransport.TicketTotalItem, 0, len(participants))
	for i, wallet := range participants {
		items = append(items, httptransport.TicketTotalItem{Wallet: wallet, Count: counts[i]})
	}
	return httptransport.TicketTotalsResponse{CampaignID: campaignID, Items: items}, nil
}
