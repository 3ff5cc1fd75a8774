package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "bountyfi/contexts/verification/submission-lifecycle/application"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

// CreateSubmissionCommand is the write-model input for first evidence upload.
type CreateSubmissionCommand struct {
	IdempotencyKey    string
	CampaignID        string
	SubmitterID       string
	Latitude          float64
	Longitude         float64
	EvidenceURLs      []string
	ChainSubmissionID *uint64
	Golden            bool
	ExpectedOutcome   entities.ReviewDecision
}

type CreateSubmissionResult struct {
	Submission entities.Submission
	Replayed   bool
}

// CreateSubmissionUseCase creates PENDING submissions, replay-safe via
// idempotency key + request hash validation.
type CreateSubmissionUseCase struct {
	Repository     ports.SubmissionRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc CreateSubmissionUseCase) CreateSubmission(ctx context.Context, cmd CreateSubmissionCommand) (CreateSubmissionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.CampaignID) == "" ||
		strings.TrimSpace(cmd.SubmitterID) == "" ||
		len(cmd.EvidenceURLs) == 0 {
		logger.Warn("submission create validation failed",
			"event", "lifecycle_create_validation_failed",
			"module", "verification/submission-lifecycle",
			"layer", "application",
			"campaign_id", strings.TrimSpace(cmd.CampaignID),
			"submitter_id", strings.TrimSpace(cmd.SubmitterID),
		)
		return CreateSubmissionResult{}, domainerrors.ErrInvalidSubmissionInput
	}
	if cmd.Latitude < -90 || cmd.Latitude > 90 || cmd.Longitude < -180 || cmd.Longitude > 180 {
		return CreateSubmissionResult{}, domainerrors.ErrInvalidSubmissionInput
	}
	if cmd.Golden &&
		cmd.ExpectedOutcome != entities.ReviewDecisionApprove &&
		cmd.ExpectedOutcome != entities.ReviewDecisionReject {
		return CreateSubmissionResult{}, domainerrors.ErrInvalidSubmissionInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateSubmissionResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCreateSubmissionCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateSubmissionResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateSubmissionResult{}, domainerrors.ErrIdempotencyConflict
		}
		submission, err := uc.Repository.GetSubmission(ctx, record.SubmissionID)
		if err != nil {
			return CreateSubmissionResult{}, err
		}
		logger.Info("submission create replayed",
			"event", "lifecycle_create_replayed",
			"module", "verification/submission-lifecycle",
			"layer", "application",
			"submission_id", submission.SubmissionID,
		)
		return CreateSubmissionResult{Submission: submission, Replayed: true}, nil
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateSubmissionResult{}, err
	}
	submission := entities.Submission{
		SubmissionID:      submissionID,
		CampaignID:        strings.TrimSpace(cmd.CampaignID),
		SubmitterID:       strings.TrimSpace(cmd.SubmitterID),
		Latitude:          cmd.Latitude,
		Longitude:         cmd.Longitude,
		EvidenceURLs:      cmd.EvidenceURLs,
		Status:            entities.SubmissionStatusPending,
		ChainSubmissionID: cmd.ChainSubmissionID,
		Golden:            cmd.Golden,
		ExpectedOutcome:   cmd.ExpectedOutcome,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.Repository.CreateSubmission(ctx, submission); err != nil {
		return CreateSubmissionResult{}, err
	}
	if err := appendSubmissionEvent(ctx, uc.Outbox, uc.IDGen, "submission.created", submission.SubmissionID, now, map[string]any{
		"submission_id": submission.SubmissionID,
		"campaign_id":   submission.CampaignID,
		"submitter_id":  submission.SubmitterID,
		"golden":        submission.Golden,
	}); err != nil {
		return CreateSubmissionResult{}, err
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:          strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash:  requestHash,
		SubmissionID: submission.SubmissionID,
		ExpiresAt:    now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CreateSubmissionResult{}, err
	}

	logger.Info("submission created",
		"event", "lifecycle_submission_created",
		"module", "verification/submission-lifecycle",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"campaign_id", submission.CampaignID,
		"golden", submission.Golden,
	)
	return CreateSubmissionResult{Submission: submission}, nil
}

func (uc CreateSubmissionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CreateSubmissionUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashCreateSubmissionCommand(cmd CreateSubmissionCommand) string {
	payload := map[string]any{
		"campaign_id":   strings.TrimSpace(cmd.CampaignID),
		"submitter_id":  strings.TrimSpace(cmd.SubmitterID),
		"latitude":      cmd.Latitude,
		"longitude":     cmd.Longitude,
		"evidence_urls": cmd.EvidenceURLs,
		"golden":        cmd.Golden,
		"op":            "create_submission",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
