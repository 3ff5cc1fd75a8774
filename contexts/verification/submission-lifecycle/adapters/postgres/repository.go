package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"

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

func (r *Repository) CreateSubmission(ctx context.Context, submission entities.Submission) error {
	row, err := submissionModelFromEntity(submission)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidSubmissionInput
		}
		return r.logError("lifecycle_repo_create_failed", err,
			"submission_id", strings.TrimSpace(submission.SubmissionID),
		)
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, r.logError("lifecycle_repo_get_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toEntity()
}

// UpdateSubmissionIf is the single authoritative conditional update for
// lifecycle mutations: the WHERE clause asserts the expected predecessor
// status so a concurrent writer loses with ErrInvalidStateTransition instead
// of corrupting state.
func (r *Repository) UpdateSubmissionIf(ctx context.Context, submission entities.Submission, expected []entities.SubmissionStatus) error {
	row, err := submissionModelFromEntity(submission)
	if err != nil {
		return err
	}
	statuses := make([]string, len(expected))
	for i, status := range expected {
		statuses[i] = string(status)
	}

	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("id = ?", row.ID).
		Where("status IN ?", statuses).
		Updates(map[string]any{
			"status":              row.Status,
			"ai_confidence":       row.AIConfidence,
			"settlement_tx_hash":  row.SettlementTxHash,
			"settlement_status":   row.SettlementStatus,
			"settlement_attempts": row.SettlementAttempts,
			"settlement_reason":   row.SettlementReason,
			"updated_at":          row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("lifecycle_repo_conditional_update_failed", result.Error,
			"submission_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidStateTransition
	}
	return nil
}

func (r *Repository) ListPendingForScoring(ctx context.Context, limit int) ([]entities.Submission, error) {
	var rows []submissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.SubmissionStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("lifecycle_repo_list_pending_failed", err)
	}
	return toSubmissionEntities(rows)
}

// ListAwaitingSettlement selects the score-settlement batch: approved verdict,
// confidence recorded, no settlement transaction, not permanently failed.
func (r *Repository) ListAwaitingSettlement(ctx context.Context, limit int) ([]entities.Submission, error) {
	var rows []submissionModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.SubmissionStatusApproved),
			string(entities.SubmissionStatusAutoApproved),
		}).
		Where("ai_confidence IS NOT NULL").
		Where("settlement_tx_hash = ''").
		Where("settlement_status <> ?", entities.SettlementStatusFailedPermanent).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("lifecycle_repo_list_awaiting_settlement_failed", err)
	}
	return toSubmissionEntities(rows)
}

func (r *Repository) AddAnomaly(ctx context.Context, anomaly entities.CalibrationAnomaly) error {
	row := anomalyModel{
		ID:              strings.TrimSpace(anomaly.AnomalyID),
		SubmissionID:    strings.TrimSpace(anomaly.SubmissionID),
		ExpectedOutcome: string(anomaly.ExpectedOutcome),
		ActualOutcome:   string(anomaly.ActualOutcome),
		CreatedAt:       anomaly.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("lifecycle_repo_add_anomaly_failed", err,
			"submission_id", row.SubmissionID,
		)
	}
	return nil
}

func (r *Repository) ListAnomalies(ctx context.Context, limit int) ([]entities.CalibrationAnomaly, error) {
	var rows []anomalyModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("lifecycle_repo_list_anomalies_failed", err)
	}
	anomalies := make([]entities.CalibrationAnomaly, 0, len(rows))
	for _, row := range rows {
		anomalies = append(anomalies, entities.CalibrationAnomaly{
			AnomalyID:       row.ID,
			SubmissionID:    row.SubmissionID,
			ExpectedOutcome: entities.ReviewDecision(row.ExpectedOutcome),
			ActualOutcome:   entities.ReviewDecision(row.ActualOutcome),
			CreatedAt:       row.CreatedAt.UTC(),
		})
	}
	return anomalies, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		Where("expires_at > ?", now).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("lifecycle_repo_idempotency_get_failed", err)
	}
	return ports.IdempotencyRecord{
		Key:          row.Key,
		RequestHash:  row.RequestHash,
		SubmissionID: row.SubmissionID,
		ExpiresAt:    row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:          strings.TrimSpace(record.Key),
		RequestHash:  record.RequestHash,
		SubmissionID: record.SubmissionID,
		ExpiresAt:    record.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("lifecycle_repo_idempotency_put_failed", err)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModel{
		ID:        message.OutboxID,
		EventType: message.EventType,
		Payload:   string(message.Payload),
		Status:    outboxStatusPending,
		CreatedAt: message.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("lifecycle_repo_outbox_append_failed", err, "outbox_id", row.ID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("lifecycle_repo_outbox_list_failed", err)
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:  row.ID,
			EventType: row.EventType,
			Payload:   []byte(row.Payload),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt,
		}).Error; err != nil {
		return r.logError("lifecycle_repo_outbox_mark_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "verification/submission-lifecycle",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("lifecycle repository operation failed", fields...)
	return err
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type submissionModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	CampaignID         string    `gorm:"column:campaign_id"`
	SubmitterID        string    `gorm:"column:submitter_id"`
	Latitude           float64   `gorm:"column:latitude"`
	Longitude          float64   `gorm:"column:longitude"`
	EvidenceURLs       string    `gorm:"column:evidence_urls"`
	Status             string    `gorm:"column:status"`
	AIConfidence       *int      `gorm:"column:ai_confidence"`
	ChainSubmissionID  *uint64   `gorm:"column:chain_submission_id"`
	SettlementTxHash   string    `gorm:"column:settlement_tx_hash"`
	SettlementStatus   string    `gorm:"column:settlement_status"`
	SettlementAttempts int       `gorm:"column:settlement_attempts"`
	SettlementReason   string    `gorm:"column:settlement_reason"`
	Golden             bool      `gorm:"column:golden"`
	ExpectedOutcome    string    `gorm:"column:expected_outcome"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string {
	return "submissions"
}

func submissionModelFromEntity(submission entities.Submission) (submissionModel, error) {
	evidence, err := json.Marshal(submission.EvidenceURLs)
	if err != nil {
		return submissionModel{}, err
	}
	return submissionModel{
		ID:                 strings.TrimSpace(submission.SubmissionID),
		CampaignID:         strings.TrimSpace(submission.CampaignID),
		SubmitterID:        strings.TrimSpace(submission.SubmitterID),
		Latitude:           submission.Latitude,
		Longitude:          submission.Longitude,
		EvidenceURLs:       string(evidence),
		Status:             string(submission.Status),
		AIConfidence:       submission.AIConfidence,
		ChainSubmissionID:  submission.ChainSubmissionID,
		SettlementTxHash:   submission.SettlementTxHash,
		SettlementStatus:   submission.SettlementStatus,
		SettlementAttempts: submission.SettlementAttempts,
		SettlementReason:   submission.SettlementReason,
		Golden:             submission.Golden,
		ExpectedOutcome:    string(submission.ExpectedOutcome),
		CreatedAt:          submission.CreatedAt,
		UpdatedAt:          submission.UpdatedAt,
	}, nil
}

func (m submissionModel) toEntity() (entities.Submission, error) {
	var evidence []string
	if m.EvidenceURLs != "" {
		if err := json.Unmarshal([]byte(m.EvidenceURLs), &evidence); err != nil {
			return entities.Submission{}, err
		}
	}
	return entities.Submission{
		SubmissionID:       m.ID,
		CampaignID:         m.CampaignID,
		SubmitterID:        m.SubmitterID,
		Latitude:           m.Latitude,
		Longitude:          m.Longitude,
		EvidenceURLs:       evidence,
		Status:             entities.SubmissionStatus(m.Status),
		AIConfidence:       m.AIConfidence,
		ChainSubmissionID:  m.ChainSubmissionID,
		SettlementTxHash:   m.SettlementTxHash,
		SettlementStatus:   m.SettlementStatus,
		SettlementAttempts: m.SettlementAttempts,
		SettlementReason:   m.SettlementReason,
		Golden:             m.Golden,
		ExpectedOutcome:    entities.ReviewDecision(m.ExpectedOutcome),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

func toSubmissionEntities(rows []submissionModel) ([]entities.Submission, error) {
	submissions := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		submission, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, nil
}

type anomalyModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	SubmissionID    string    `gorm:"column:submission_id"`
	ExpectedOutcome string    `gorm:"column:expected_outcome"`
	ActualOutcome   string    `gorm:"column:actual_outcome"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (anomalyModel) TableName() string {
	return "calibration_anomalies"
}

type idempotencyModel struct {
	Key          string    `gorm:"column:key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	SubmissionID string    `gorm:"column:submission_id"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "submission_idempotency_keys"
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     string     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "submission_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SubmissionRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
