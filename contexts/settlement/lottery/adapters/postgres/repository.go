package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	"bountyfi/contexts/settlement/lottery/ports"

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

func (r *Repository) AddGrant(ctx context.Context, grant entities.TicketGrant) error {
	row := grantModel{
		ID:         strings.TrimSpace(grant.GrantID),
		CampaignID: strings.TrimSpace(grant.CampaignID),
		Wallet:     strings.TrimSpace(grant.Wallet),
		Count:      grant.Count,
		CreatedAt:  grant.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("lottery_repo_add_grant_failed", err, "grant_id", row.ID)
	}
	return nil
}

func (r *Repository) ListGrantsByCampaign(ctx context.Context, campaignID string) ([]entities.TicketGrant, error) {
	var rows []grantModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("lottery_repo_list_grants_failed", err,
			"campaign_id", strings.TrimSpace(campaignID),
		)
	}
	grants := make([]entities.TicketGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, entities.TicketGrant{
			GrantID:    row.ID,
			CampaignID: row.CampaignID,
			Wallet:     row.Wallet,
			Count:      row.Count,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return grants, nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.CampaignProjection, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CampaignProjection{}, domainerrors.ErrCampaignNotFound
		}
		return entities.CampaignProjection{}, r.logError("lottery_repo_get_campaign_failed", err,
			"campaign_id", strings.TrimSpace(campaignID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveCampaign(ctx context.Context, campaign entities.CampaignProjection) error {
	row := campaignModelFromEntity(campaign)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("lottery_repo_save_campaign_failed", err, "campaign_id", row.ID)
	}
	return nil
}

// MarkDrawRequested asserts the expected predecessor status in the WHERE
// clause so a concurrent draw request loses with ErrDrawAlreadyRequested.
func (r *Repository) MarkDrawRequested(ctx context.Context, campaign entities.CampaignProjection, expected []entities.CampaignStatus) error {
	row := campaignModelFromEntity(campaign)
	statuses := make([]string, len(expected))
	for i, status := range expected {
		statuses[i] = string(status)
	}

	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("id = ?", row.ID).
		Where("status IN ?", statuses).
		Updates(map[string]any{
			"status":            row.Status,
			"draw_tx_hash":      row.DrawTxHash,
			"draw_requested_at": row.DrawRequestedAt,
			"updated_at":        row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("lottery_repo_mark_draw_failed", result.Error, "campaign_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDrawAlreadyRequested
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "settlement/lottery",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("lottery repository operation failed", fields...)
	return err
}

type grantModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CampaignID string    `gorm:"column:campaign_id;index"`
	Wallet     string    `gorm:"column:wallet"`
	Count      uint64    `gorm:"column:count"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (grantModel) TableName() string {
	return "ticket_grants"
}

type campaignModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	ChainCampaignID *uint64    `gorm:"column:chain_campaign_id"`
	Status          string     `gorm:"column:status"`
	DrawTxHash      string     `gorm:"column:draw_tx_hash"`
	DrawRequestedAt *time.Time `gorm:"column:draw_requested_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string {
	return "lottery_campaigns"
}

func campaignModelFromEntity(campaign entities.CampaignProjection) campaignModel {
	return campaignModel{
		ID:              strings.TrimSpace(campaign.CampaignID),
		ChainCampaignID: campaign.ChainCampaignID,
		Status:          string(campaign.Status),
		DrawTxHash:      campaign.DrawTxHash,
		DrawRequestedAt: campaign.DrawRequestedAt,
		UpdatedAt:       campaign.UpdatedAt,
	}
}

func (m campaignModel) toEntity() entities.CampaignProjection {
	var requestedAt *time.Time
	if m.DrawRequestedAt != nil {
		value := m.DrawRequestedAt.UTC()
		requestedAt = &value
	}
	return entities.CampaignProjection{
		CampaignID:      m.ID,
		ChainCampaignID: m.ChainCampaignID,
		Status:          entities.CampaignStatus(m.Status),
		DrawTxHash:      m.DrawTxHash,
		DrawRequestedAt: requestedAt,
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

var _ ports.TicketGrantRepository = (*Repository)(nil)
var _ ports.CampaignRepository = (*Repository)(nil)
