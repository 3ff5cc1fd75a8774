package commands

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/settlement/reconciler/application"
	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

// RedeemPrizeUseCase burns a winner's redemption code at the merchant
// counter. Redemption is single-shot: RedeemedAt is set once and the
// conditional update keeps a concurrent second redemption out.
type RedeemPrizeUseCase struct {
	Draws  ports.DrawRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc RedeemPrizeUseCase) RedeemPrize(ctx context.Context, drawID string, code string) (entities.PrizeDraw, error) {
	logger := application.ResolveLogger(uc.Logger)
	drawID = strings.TrimSpace(drawID)
	code = strings.TrimSpace(code)
	if drawID == "" || code == "" {
		return entities.PrizeDraw{}, domainerrors.ErrInvalidDrawInput
	}

	draw, err := uc.Draws.GetDraw(ctx, drawID)
	if err != nil {
		return entities.PrizeDraw{}, err
	}
	if draw.Status != entities.DrawStatusWon {
		return entities.PrizeDraw{}, domainerrors.ErrDrawNotWon
	}
	if draw.RedeemedAt != nil {
		return entities.PrizeDraw{}, domainerrors.ErrAlreadyRedeemed
	}
	if subtle.ConstantTimeCompare([]byte(draw.RedemptionCode), []byte(code)) != 1 {
		return entities.PrizeDraw{}, domainerrors.ErrInvalidRedemptionCode
	}

	now := uc.now()
	draw.RedeemedAt = &now
	draw.UpdatedAt = now
	if err := uc.Draws.UpdateDrawIf(ctx, draw, []entities.DrawStatus{entities.DrawStatusWon}); err != nil {
		return entities.PrizeDraw{}, err
	}

	logger.Info("prize redeemed",
		"event", "reconciler_prize_redeemed",
		"module", "settlement/reconciler",
		"layer", "application",
		"draw_id", draw.DrawID,
		"merchant_id", draw.MerchantID,
	)
	return draw, nil
}

func (uc RedeemPrizeUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
