package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateDraw(ctx context.Context, draw entities.PrizeDraw) error {
	row := drawModelFromEntity(draw)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateDraw
		}
		return r.logError("reconciler_repo_create_draw_failed", err, "draw_id", row.ID)
	}
	return nil
}

func (r *Repository) GetDraw(ctx context.Context, drawID string) (entities.PrizeDraw, error) {
	var row drawModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(drawID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PrizeDraw{}, domainerrors.ErrDrawNotFound
		}
		return entities.PrizeDraw{}, r.logError("reconciler_repo_get_draw_failed", err,
			"draw_id", strings.TrimSpace(drawID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPendingDraws(ctx context.Context, limit int) ([]entities.PrizeDraw, error) {
	var rows []drawModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.DrawStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("reconciler_repo_list_pending_failed", err)
	}
	draws := make([]entities.PrizeDraw, 0, len(rows))
	for _, row := range rows {
		draws = append(draws, row.toEntity())
	}
	return draws, nil
}

// UpdateDrawIf asserts the expected predecessor status in the WHERE clause so
// concurrent resolution or redemption loses with ErrInvalidDrawTransition.
// When the update stamps redeemed_at, the clause also requires it unset:
// redemption is single-shot at the database level.
func (r *Repository) UpdateDrawIf(ctx context.Context, draw entities.PrizeDraw, expected []entities.DrawStatus) error {
	row := drawModelFromEntity(draw)
	statuses := make([]string, len(expected))
	for i, status := range expected {
		statuses[i] = string(status)
	}

	query := r.db.WithContext(ctx).
		Model(&drawModel{}).
		Where("id = ?", row.ID).
		Where("status IN ?", statuses)
	if row.RedeemedAt != nil {
		query = query.Where("redeemed_at IS NULL")
	}
	result := query.Updates(map[string]any{
		"status":         row.Status,
		"prize_amount":   row.PrizeAmount,
		"winner_wallet":  row.WinnerWallet,
		"redeemed_at":    row.RedeemedAt,
		"failure_reason": row.FailureReason,
		"updated_at":     row.UpdatedAt,
	})
	if result.Error != nil {
		return r.logError("reconciler_repo_conditional_update_failed", result.Error, "draw_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidDrawTransition
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "settlement/reconciler",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("reconciler repository operation failed", fields...)
	return err
}

type drawModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	CampaignID     string     `gorm:"column:campaign_id"`
	TxHash         string     `gorm:"column:tx_hash;uniqueIndex"`
	Status         string     `gorm:"column:status"`
	PrizeAmount    float64    `gorm:"column:prize_amount"`
	WinnerWallet   string     `gorm:"column:winner_wallet"`
	RedemptionCode string     `gorm:"column:redemption_code"`
	RedeemedAt     *time.Time `gorm:"column:redeemed_at"`
	MerchantID     string     `gorm:"column:merchant_id"`
	FailureReason  string     `gorm:"column:failure_reason"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (drawModel) TableName() string {
	return "prize_draws"
}

func drawModelFromEntity(draw entities.PrizeDraw) drawModel {
	return drawModel{
		ID:             strings.TrimSpace(draw.DrawID),
		CampaignID:     strings.TrimSpace(draw.CampaignID),
		TxHash:         strings.TrimSpace(draw.TxHash),
		Status:         string(draw.Status),
		PrizeAmount:    draw.PrizeAmount,
		WinnerWallet:   draw.WinnerWallet,
		RedemptionCode: draw.RedemptionCode,
		RedeemedAt:     draw.RedeemedAt,
		MerchantID:     draw.MerchantID,
		FailureReason:  draw.FailureReason,
		CreatedAt:      draw.CreatedAt,
		UpdatedAt:      draw.UpdatedAt,
	}
}

func (m drawModel) toEntity() entities.PrizeDraw {
	var redeemedAt *time.Time
	if m.RedeemedAt != nil {
		value := m.RedeemedAt.UTC()
		redeemedAt = &value
	}
	return entities.PrizeDraw{
		DrawID:         m.ID,
		CampaignID:     m.CampaignID,
		TxHash:         m.TxHash,
		Status:         entities.DrawStatus(m.Status),
		PrizeAmount:    m.PrizeAmount,
		WinnerWallet:   m.WinnerWallet,
		RedemptionCode: m.RedemptionCode,
		RedeemedAt:     redeemedAt,
		MerchantID:     m.MerchantID,
		FailureReason:  m.FailureReason,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.DrawRepository = (*Repository)(nil)
