package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bountyfi/contexts/verification/vote-tally/domain/entities"
	domainerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	"bountyfi/contexts/verification/vote-tally/ports"

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

// SaveVote relies on the (submission_id, validator_id) unique index to
// serialize concurrent duplicate casts.
func (r *Repository) SaveVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateVote
		}
		return r.logError("tally_repo_save_vote_failed", err,
			"submission_id", row.SubmissionID,
			"validator_id", row.ValidatorID,
		)
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, submissionID string, validatorID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Where("validator_id = ?", strings.TrimSpace(validatorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("tally_repo_get_vote_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesBySubmission(ctx context.Context, submissionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_votes_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	votes := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, row.toEntity())
	}
	return votes, nil
}

// IncrementValidations bumps the daily counter atomically; the first vote of
// a new validator inserts the stats row, racing inserts fall back to the
// update path.
func (r *Repository) IncrementValidations(ctx context.Context, validatorID string, now time.Time) error {
	validatorID = strings.TrimSpace(validatorID)
	result := r.db.WithContext(ctx).
		Model(&statsModel{}).
		Where("validator_id = ?", validatorID).
		Updates(map[string]any{
			"validations_today": gorm.Expr("validations_today + 1"),
			"updated_at":        now,
		})
	if result.Error != nil {
		return r.logError("tally_repo_increment_failed", result.Error, "validator_id", validatorID)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	row := statsModel{
		ValidatorID:      validatorID,
		ValidationsToday: 1,
		UpdatedAt:        now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return r.IncrementValidations(ctx, validatorID, now)
		}
		return r.logError("tally_repo_increment_insert_failed", err, "validator_id", validatorID)
	}
	return nil
}

func (r *Repository) GetValidatorStats(ctx context.Context, validatorID string) (entities.ValidatorStats, error) {
	var row statsModel
	err := r.db.WithContext(ctx).
		Where("validator_id = ?", strings.TrimSpace(validatorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ValidatorStats{}, domainerrors.ErrVoteNotFound
		}
		return entities.ValidatorStats{}, r.logError("tally_repo_get_stats_failed", err,
			"validator_id", strings.TrimSpace(validatorID),
		)
	}
	return row.toEntity(), nil
}

// ResetAllValidations zeroes only rows with a non-zero counter, which makes a
// repeated run within the same period a no-op.
func (r *Repository) ResetAllValidations(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&statsModel{}).
		Where("validations_today <> 0").
		Updates(map[string]any{
			"validations_today": 0,
			"last_reset_at":     now,
			"updated_at":        now,
		})
	if result.Error != nil {
		return 0, r.logError("tally_repo_reset_failed", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "verification/vote-tally",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote tally repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	SubmissionID string    `gorm:"column:submission_id;uniqueIndex:idx_votes_identity"`
	ValidatorID  string    `gorm:"column:validator_id;uniqueIndex:idx_votes_identity"`
	Decision     string    `gorm:"column:decision"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "validation_votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:           strings.TrimSpace(vote.VoteID),
		SubmissionID: strings.TrimSpace(vote.SubmissionID),
		ValidatorID:  strings.TrimSpace(vote.ValidatorID),
		Decision:     string(vote.Decision),
		CreatedAt:    vote.CreatedAt,
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:       m.ID,
		SubmissionID: m.SubmissionID,
		ValidatorID:  m.ValidatorID,
		Decision:     entities.VoteDecision(m.Decision),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type statsModel struct {
	ValidatorID      string    `gorm:"column:validator_id;primaryKey"`
	ValidationsToday int       `gorm:"column:validations_today"`
	LastResetAt      time.Time `gorm:"column:last_reset_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (statsModel) TableName() string {
	return "validator_stats"
}

func (m statsModel) toEntity() entities.ValidatorStats {
	return entities.ValidatorStats{
		ValidatorID:      m.ValidatorID,
		ValidationsToday: m.ValidationsToday,
		LastResetAt:      m.LastResetAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ValidatorStatsRepository = (*Repository)(nil)
