package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/settlement/reconciler/application"
	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

type LogClaimCommand struct {
	CampaignID     string
	TxHash         string
	RedemptionCode string
	MerchantID     string
}

// LogClaimUseCase records an observed claim transaction as a PENDING draw.
// Resolution happens later, in the claim reconciliation pass, once the
// transaction is mined.
type LogClaimUseCase struct {
	Draws  ports.DrawRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc LogClaimUseCase) LogClaim(ctx context.Context, cmd LogClaimCommand) (entities.PrizeDraw, error) {
	logger := application.ResolveLogger(uc.Logger)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	txHash := strings.TrimSpace(cmd.TxHash)
	if campaignID == "" || txHash == "" {
		return entities.PrizeDraw{}, domainerrors.ErrInvalidDrawInput
	}

	drawID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.PrizeDraw{}, err
	}
	now := uc.now()
	draw := entities.PrizeDraw{
		DrawID:         drawID,
		CampaignID:     campaignID,
		TxHash:         txHash,
		Status:         entities.DrawStatusPending,
		RedemptionCode: strings.TrimSpace(cmd.RedemptionCode),
		MerchantID:     strings.TrimSpace(cmd.MerchantID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.Draws.CreateDraw(ctx, draw); err != nil {
		return entities.PrizeDraw{}, err
	}

	logger.Info("claim transaction logged",
		"event", "reconciler_claim_logged",
		"module", "settlement/reconciler",
		"layer", "application",
		"draw_id", draw.DrawID,
		"campaign_id", campaignID,
		"tx_hash", txHash,
	)
	return draw, nil
}

func (uc LogClaimUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
