package workers

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	application "bountyfi/contexts/settlement/reconciler/application"
	"bountyfi/contexts/settlement/reconciler/domain/entities"
	"bountyfi/contexts/settlement/reconciler/ports"
	"bountyfi/internal/platform/chain"
)

const (
	eventPrizeWon  = "PrizeWon"
	eventPrizeLost = "PrizeLost"
)

// ClaimSettlementJob resolves PENDING prize draws against mined claim
// transactions. An unmined transaction leaves the draw PENDING for the next
// pass; a mined one resolves it exactly once, and resolved draws drop out of
// the selection predicate so re-runs are no-ops.
type ClaimSettlementJob struct {
	Draws     ports.DrawRepository
	Ledger    ports.Ledger
	Clock     ports.Clock
	BatchSize int
	Disabled  bool
	Logger    *slog.Logger
}

func (j ClaimSettlementJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}

	batchSize := j.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	draws, err := j.Draws.ListPendingDraws(ctx, batchSize)
	if err != nil {
		logger.Error("claim batch selection failed",
			"event", "reconciler_claim_select_failed",
			"module", "settlement/reconciler",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, draw := range draws {
		if err := j.resolveOne(ctx, draw); err != nil {
			logger.Warn("claim item failed",
				"event", "reconciler_claim_item_failed",
				"module", "settlement/reconciler",
				"layer", "worker",
				"draw_id", draw.DrawID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (j ClaimSettlementJob) resolveOne(ctx context.Context, draw entities.PrizeDraw) error {
	logger := application.ResolveLogger(j.Logger)

	receipt, err := j.Ledger.GetReceipt(ctx, draw.TxHash)
	if err != nil {
		return err
	}
	if receipt == nil {
		// Not mined yet; stays PENDING.
		return nil
	}

	now := j.now()
	draw.UpdatedAt = now
	if !receipt.Success {
		draw.Status = entities.DrawStatusFailed
		draw.FailureReason = "claim transaction reverted"
	} else {
		j.applyOutcome(&draw, receipt.Events)
	}

	if err := j.Draws.UpdateDrawIf(ctx, draw, []entities.DrawStatus{entities.DrawStatusPending}); err != nil {
		return err
	}
	logger.Info("prize draw resolved",
		"event", "reconciler_draw_resolved",
		"module", "settlement/reconciler",
		"layer", "worker",
		"draw_id", draw.DrawID,
		"status", string(draw.Status),
		"prize_amount", draw.PrizeAmount,
	)
	return nil
}

// applyOutcome classifies the decoded receipt events: PrizeWon resolves the
// draw WON with the wei amount converted to tokens, PrizeLost (or the absence
// of any recognized outcome event) resolves it LOST with zero.
func (j ClaimSettlementJob) applyOutcome(draw *entities.PrizeDraw, events []ports.LedgerEvent) {
	for _, event := range events {
		switch event.Name {
		case eventPrizeWon:
			draw.Status = entities.DrawStatusWon
			if amount, ok := event.Args["amount"].(*big.Int); ok {
				draw.PrizeAmount = chain.WeiToToken(amount)
			}
			if winner, ok := event.Args["winner"].(string); ok {
				draw.WinnerWallet = winner
			}
			return
		case eventPrizeLost:
			draw.Status = entities.DrawStatusLost
			draw.PrizeAmount = 0
			return
		}
	}
	draw.Status = entities.DrawStatusLost
	draw.PrizeAmount = 0
}

func (j ClaimSettlementJob) now() time.Time {
	if j.Clock != nil {
		return j.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
