package submissionlifecycle

import (
	"context"
	"errors"
	"testing"

	"bountyfi/contexts/verification/submission-lifecycle/application/commands"
	"bountyfi/contexts/verification/submission-lifecycle/application/workers"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
)

func createPending(t *testing.T, module Module) entities.Submission {
	t.Helper()
	result, err := module.Create.CreateSubmission(context.Background(), commands.CreateSubmissionCommand{
		IdempotencyKey: "key-" + t.Name(),
		CampaignID:     "campaign-1",
		SubmitterID:    "user-1",
		Latitude:       52.52,
		Longitude:      13.405,
		EvidenceURLs:   []string{"https://cdn.example.com/photo.jpg"},
	})
	if err != nil {
		t.Fatalf("create submission returned error: %v", err)
	}
	return result.Submission
}

func TestCreateSubmissionReplaysIdempotencyKey(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	cmd := commands.CreateSubmissionCommand{
		IdempotencyKey: "replay-key",
		CampaignID:     "campaign-1",
		SubmitterID:    "user-1",
		Latitude:       10,
		Longitude:      20,
		EvidenceURLs:   []string{"https://cdn.example.com/photo.jpg"},
	}

	first, err := module.Create.CreateSubmission(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first call returned error: %v", err)
	}
	second, err := module.Create.CreateSubmission(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replayed result on identical request")
	}
	if first.Submission.SubmissionID != second.Submission.SubmissionID {
		t.Fatalf("expected same submission id, got %s and %s",
			first.Submission.SubmissionID, second.Submission.SubmissionID)
	}
}

func TestCreateSubmissionRejectsOutOfRangeCoordinates(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	_, err := module.Create.CreateSubmission(context.Background(), commands.CreateSubmissionCommand{
		IdempotencyKey: "bad-coords",
		CampaignID:     "campaign-1",
		SubmitterID:    "user-1",
		Latitude:       91,
		Longitude:      0,
		EvidenceURLs:   []string{"https://cdn.example.com/photo.jpg"},
	})
	if !errors.Is(err, domainerrors.ErrInvalidSubmissionInput) {
		t.Fatalf("expected ErrInvalidSubmissionInput, got %v", err)
	}
}

func TestRecordAIScoreAppliesAutoDecisionThresholds(t *testing.T) {
	cases := []struct {
		name       string
		confidence int
		want       entities.SubmissionStatus
	}{
		{"high confidence auto approves", 85, entities.SubmissionStatusAutoApproved},
		{"threshold confidence auto approves", 80, entities.SubmissionStatusAutoApproved},
		{"low confidence auto rejects", 10, entities.SubmissionStatusAutoRejected},
		{"mid confidence needs review", 50, entities.SubmissionStatusNeedsHumanReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			module := NewInMemoryModule(nil, nil)
			submission := createPending(t, module)

			updated, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, tc.confidence)
			if err != nil {
				t.Fatalf("record score returned error: %v", err)
			}
			if updated.Status != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, updated.Status)
			}
			if updated.AIConfidence == nil || *updated.AIConfidence != tc.confidence {
				t.Fatalf("expected confidence %d recorded, got %v", tc.confidence, updated.AIConfidence)
			}
		})
	}
}

func TestRecordAIScoreRejectsSecondScore(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)

	if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 50); err != nil {
		t.Fatalf("first score returned error: %v", err)
	}
	_, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 60)
	if !errors.Is(err, domainerrors.ErrAlreadyScored) {
		t.Fatalf("expected ErrAlreadyScored, got %v", err)
	}
}

func TestRecordAIScoreValidatesRange(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)

	for _, confidence := range []int{-1, 101} {
		if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, confidence); !errors.Is(err, domainerrors.ErrInvalidConfidence) {
			t.Fatalf("confidence %d: expected ErrInvalidConfidence, got %v", confidence, err)
		}
	}
}

func TestApplyHumanConsensusOnlyFromReview(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)

	_, err := module.Consensus.ApplyHumanConsensus(context.Background(), submission.SubmissionID, entities.ReviewDecisionApprove)
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for pending submission, got %v", err)
	}

	if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 50); err != nil {
		t.Fatalf("score returned error: %v", err)
	}
	approved, err := module.Consensus.ApplyHumanConsensus(context.Background(), submission.SubmissionID, entities.ReviewDecisionApprove)
	if err != nil {
		t.Fatalf("consensus returned error: %v", err)
	}
	if approved.Status != entities.SubmissionStatusApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}

	// A concurrent observer applying the same quorum loses the guard.
	_, err = module.Consensus.ApplyHumanConsensus(context.Background(), submission.SubmissionID, entities.ReviewDecisionApprove)
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on second application, got %v", err)
	}
}

func TestMarkSettledIsIdempotentPerHash(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)
	if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 90); err != nil {
		t.Fatalf("score returned error: %v", err)
	}

	if err := module.Settlement.MarkSettled(context.Background(), submission.SubmissionID, "0xabc"); err != nil {
		t.Fatalf("first settle returned error: %v", err)
	}
	if err := module.Settlement.MarkSettled(context.Background(), submission.SubmissionID, "0xabc"); err != nil {
		t.Fatalf("expected same-hash settle to be a no-op, got %v", err)
	}
	err := module.Settlement.MarkSettled(context.Background(), submission.SubmissionID, "0xother")
	if !errors.Is(err, domainerrors.ErrSettlementConflict) {
		t.Fatalf("expected ErrSettlementConflict on differing hash, got %v", err)
	}

	settled, err := module.Queries.GetSubmission(context.Background(), submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission returned error: %v", err)
	}
	if settled.Status != entities.SubmissionStatusSettled {
		t.Fatalf("expected SETTLED, got %s", settled.Status)
	}
}

func TestMarkSettlementFailedEscalatesAfterMaxAttempts(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)
	if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 90); err != nil {
		t.Fatalf("score returned error: %v", err)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		if err := module.Settlement.MarkSettlementFailed(context.Background(), submission.SubmissionID, "rpc unavailable"); err != nil {
			t.Fatalf("attempt %d returned error: %v", attempt, err)
		}
	}

	failed, err := module.Queries.GetSubmission(context.Background(), submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission returned error: %v", err)
	}
	if failed.Status != entities.SubmissionStatusSettlementFailed {
		t.Fatalf("expected SETTLEMENT_FAILED after max attempts, got %s", failed.Status)
	}
	if failed.SettlementStatus != entities.SettlementStatusFailedPermanent {
		t.Fatalf("expected FAILED_PERMANENT, got %s", failed.SettlementStatus)
	}
	if failed.SettlementAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", failed.SettlementAttempts)
	}
}

func TestMarkSettlementFailedTruncatesReason(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	submission := createPending(t, module)
	if _, err := module.Score.RecordAIScore(context.Background(), submission.SubmissionID, 90); err != nil {
		t.Fatalf("score returned error: %v", err)
	}

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	if err := module.Settlement.MarkSettlementFailed(context.Background(), submission.SubmissionID, string(long)); err != nil {
		t.Fatalf("mark failed returned error: %v", err)
	}
	failed, err := module.Queries.GetSubmission(context.Background(), submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission returned error: %v", err)
	}
	if len(failed.SettlementReason) != 255 {
		t.Fatalf("expected reason truncated to 255 chars, got %d", len(failed.SettlementReason))
	}
}

func TestGoldenTaskMismatchRecordsAnomaly(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	result, err := module.Create.CreateSubmission(context.Background(), commands.CreateSubmissionCommand{
		IdempotencyKey:  "golden-1",
		CampaignID:      "campaign-1",
		SubmitterID:     "user-1",
		Latitude:        0,
		Longitude:       0,
		EvidenceURLs:    []string{"https://cdn.example.com/golden.jpg"},
		Golden:          true,
		ExpectedOutcome: entities.ReviewDecisionApprove,
	})
	if err != nil {
		t.Fatalf("create golden submission returned error: %v", err)
	}

	// Confidently rejected against an expected approval.
	if _, err := module.Score.RecordAIScore(context.Background(), result.Submission.SubmissionID, 5); err != nil {
		t.Fatalf("score returned error: %v", err)
	}

	anomalies, err := module.Queries.ListCalibrationAnomalies(context.Background(), 10)
	if err != nil {
		t.Fatalf("list anomalies returned error: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 calibration anomaly, got %d", len(anomalies))
	}
	if anomalies[0].ExpectedOutcome != entities.ReviewDecisionApprove ||
		anomalies[0].ActualOutcome != entities.ReviewDecisionReject {
		t.Fatalf("unexpected anomaly outcomes: %+v", anomalies[0])
	}
}

// flakyOracle fails for one submission's evidence and scores everything else.
type flakyOracle struct {
	failURL string
	scored  int
}

func (o *flakyOracle) Score(_ context.Context, evidenceURL string, _ string) (int, error) {
	if evidenceURL == o.failURL {
		return 0, domainerrors.ErrOracleUnavailable
	}
	o.scored++
	return 90, nil
}

func TestOracleScoreJobSkipsUnavailableOracle(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	for _, key := range []string{"oracle-a", "oracle-b"} {
		_, err := module.Create.CreateSubmission(context.Background(), commands.CreateSubmissionCommand{
			IdempotencyKey: key,
			CampaignID:     "campaign-1",
			SubmitterID:    "user-1",
			Latitude:       1,
			Longitude:      1,
			EvidenceURLs:   []string{"https://cdn.example.com/" + key + ".jpg"},
		})
		if err != nil {
			t.Fatalf("create submission %s returned error: %v", key, err)
		}
	}

	oracle := &flakyOracle{failURL: "https://cdn.example.com/oracle-a.jpg"}
	job := workers.OracleScoreJob{
		Repository: module.Store,
		Oracle:     oracle,
		Score:      module.Score,
		BatchSize:  10,
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("oracle pass returned error: %v", err)
	}
	if oracle.scored != 1 {
		t.Fatalf("expected the healthy submission scored despite the outage, got %d", oracle.scored)
	}

	// The failed submission stays PENDING and is retried next pass.
	oracle.failURL = ""
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("second oracle pass returned error: %v", err)
	}
	if oracle.scored != 2 {
		t.Fatalf("expected the previously failed submission scored on retry, got %d", oracle.scored)
	}
}
