package queries

import (
	"context"
	"strings"

	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

type SubmissionQueries struct {
	Repository ports.SubmissionRepository
}

func (q SubmissionQueries) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return entities.Submission{}, domainerrors.ErrInvalidSubmissionInput
	}
	return q.Repository.GetSubmission(ctx, submissionID)
}

func (q SubmissionQueries) ListCalibrationAnomalies(ctx context.Context, limit int) ([]entities.CalibrationAnomaly, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.Repository.ListAnomalies(ctx, limit)
}
