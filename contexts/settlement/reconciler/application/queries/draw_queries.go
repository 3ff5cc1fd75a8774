package queries

import (
	"context"
	"strings"

	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

type DrawQueries struct {
	Draws ports.DrawRepository
}

func (q DrawQueries) GetDraw(ctx context.Context, drawID string) (entities.PrizeDraw, error) {
	drawID = strings.TrimSpace(drawID)
	if drawID == "" {
		return entities.PrizeDraw{}, domainerrors.ErrInvalidDrawInput
	}
	return q.Draws.GetDraw(ctx, drawID)
}

func (q DrawQueries) ListPendingDraws(ctx context.Context, limit int) ([]entities.PrizeDraw, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.Draws.ListPendingDraws(ctx, limit)
}
