package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bountyfi/contexts/settlement/reconciler/application/commands"
	"bountyfi/contexts/settlement/reconciler/application/queries"
	"bountyfi/contexts/settlement/reconciler/domain/entities"
	httptransport "bountyfi/contexts/settlement/reconciler/transport/http"
)

type Handler struct {
	LogClaim commands.LogClaimUseCase
	Redeem   commands.RedeemPrizeUseCase
	Queries  queries.DrawQueries
	Logger   *slog.Logger
}

func (h Handler) LogClaimHandler(ctx context.Context, req httptransport.LogClaimRequest) (httptransport.DrawResponse, error) {
	draw, err := h.LogClaim.LogClaim(ctx, commands.LogClaimCommand{
		CampaignID:     req.CampaignID,
		TxHash:         req.TxHash,
		RedemptionCode: req.RedemptionCode,
		MerchantID:     req.MerchantID,
	})
	if err != nil {
		return httptransport.DrawResponse{}, err
	}
	return toDrawResponse(draw), nil
}

func (h Handler) RedeemPrizeHandler(ctx context.Context, drawID string, req httptransport.RedeemPrizeRequest) (httptransport.DrawResponse, error) {
	draw, err := h.Redeem.RedeemPrize(ctx, drawID, req.Code)
	if err != nil {
		return httptransport.DrawResponse{}, err
	}
	return toDrawResponse(draw), nil
}

func (h Handler) GetDrawHandler(ctx context.Context, drawID string) (httptransport.DrawResponse, error) {
	draw, err := h.Queries.GetDraw(ctx, drawID)
	if err != nil {
		return httptransport.DrawResponse{}, err
	}
	return toDrawResponse(draw), nil
}

func (h Handler) ListPendingDrawsHandler(ctx context.Context, limit int) (httptransport.DrawListResponse, error) {
	draws, err := h.Queries.ListPendingDraws(ctx, limit)
	if err != nil {
		return httptransport.DrawListResponse{}, err
	}
	items := make([]httptransport.DrawResponse, 0, len(draws))
	for _, draw := range draws {
		items = append(items, toDrawResponse(draw))
	}
	return httptransport.DrawListResponse{Items: items}, nil
}

func toDrawResponse(draw entities.PrizeDraw) httptransport.DrawResponse {
	response := httptransport.DrawResponse{
		DrawID:        draw.DrawID,
		CampaignID:    draw.CampaignID,
		TxHash:        draw.TxHash,
		Status:        string(draw.Status),
		PrizeAmount:   draw.PrizeAmount,
		WinnerWallet:  draw.WinnerWallet,
		MerchantID:    draw.MerchantID,
		FailureReason: draw.FailureReason,
		CreatedAt:     draw.CreatedAt.Format(time.RFC3339),
	}
	if draw.RedeemedAt != nil {
		response.RedeemedAt = draw.RedeemedAt.Format(time.RFC3339)
	}
	return response
}
