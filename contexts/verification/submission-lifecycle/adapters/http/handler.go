package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bountyfi/contexts/verification/submission-lifecycle/application/commands"
	"bountyfi/contexts/verification/submission-lifecycle/application/queries"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	httptransport "bountyfi/contexts/verification/submission-lifecycle/transport/http"
)

type Handler struct {
	Create     commands.CreateSubmissionUseCase
	Score      commands.ScoreUseCase
	Settlement commands.SettlementUseCase
	Queries    queries.SubmissionQueries
	Logger     *slog.Logger
}

func (h Handler) CreateSubmissionHandler(
	ctx context.Context,
	submitterID string,
	idempotencyKey string,
	req httptransport.CreateSubmissionRequest,
) (httptransport.SubmissionResponse, error) {
	result, err := h.Create.CreateSubmission(ctx, commands.CreateSubmissionCommand{
		IdempotencyKey:    idempotencyKey,
		CampaignID:        req.CampaignID,
		SubmitterID:       submitterID,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		EvidenceURLs:      req.EvidenceURLs,
		ChainSubmissionID: req.ChainSubmissionID,
		Golden:            req.Golden,
		ExpectedOutcome:   entities.ReviewDecision(req.ExpectedOutcome),
	})
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	response := toSubmissionResponse(result.Submission)
	response.Replayed = result.Replayed
	return response, nil
}

// RecordScoreHandler is the AI oracle callback surface: external scorers push
// a confidence instead of the worker pulling one.
func (h Handler) RecordScoreHandler(
	ctx context.Context,
	submissionID string,
	req httptransport.RecordScoreRequest,
) (httptransport.SubmissionResponse, error) {
	submission, err := h.Score.RecordAIScore(ctx, submissionID, req.Confidence)
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return toSubmissionResponse(submission), nil
}

func (h Handler) GetSubmissionHandler(ctx context.Context, submissionID string) (httptransport.SubmissionResponse, error) {
	submission, err := h.Queries.GetSubmission(ctx, submissionID)
	if err != nil {
		return httptransport.SubmissionResponse{}, err
	}
	return toSubmissionResponse(submission), nil
}

func (h Handler) ListAnomaliesHandler(ctx context.Context, limit int) (httptransport.AnomalyListResponse, error) {
	anomalies, err := h.Queries.ListCalibrationAnomalies(ctx, limit)
	if err != nil {
		return httptransport.AnomalyListResponse{}, err
	}
	items := make([]httptransport.AnomalyItem, 0, len(anomalies))
	for _, anomaly := range anomalies {
		items = append(items, httptransport.AnomalyItem{
			AnomalyID:       anomaly.AnomalyID,
			SubmissionID:    anomaly.SubmissionID,
			ExpectedOutcome: string(anomaly.ExpectedOutcome),
			ActualOutcome:   string(anomaly.ActualOutcome),
			CreatedAt:       anomaly.CreatedAt.Format(time.RFC3339),
		})
	}
	return httptransport.AnomalyListResponse{Items: items}, nil
}

func toSubmissionResponse(submission entities.Submission) httptransport.SubmissionResponse {
	return httptransport.SubmissionResponse{
		SubmissionID:       submission.SubmissionID,
		CampaignID:         submission.CampaignID,
		SubmitterID:        submission.SubmitterID,
		Latitude:           submission.Latitude,
		Longitude:          submission.Longitude,
		EvidenceURLs:       submission.EvidenceURLs,
		Status:             string(submission.Status),
		AIConfidence:       submission.AIConfidence,
		ChainSubmissionID:  submission.ChainSubmissionID,
		SettlementTxHash:   submission.SettlementTxHash,
		SettlementStatus:   submission.SettlementStatus,
		SettlementAttempts: submission.SettlementAttempts,
		Golden:             submission.Golden,
	}
}
