package ports

import (
	"context"
	"time"

	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	"bountyfi/internal/shared/events"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission entities.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	// UpdateSubmissionIf writes the submission only when its persisted status
	// is still one of expected. It returns the context's
	// ErrInvalidStateTransition when the guard does not match, which is the
	// single serialization point for concurrent lifecycle mutations.
	UpdateSubmissionIf(ctx context.Context, submission entities.Submission, expected []entities.SubmissionStatus) error
	ListPendingForScoring(ctx context.Context, limit int) ([]entities.Submission, error)
	// ListAwaitingSettlement selects approved submissions with a recorded
	// confidence, no settlement transaction, and no permanent failure.
	ListAwaitingSettlement(ctx context.Context, limit int) ([]entities.Submission, error)
	AddAnomaly(ctx context.Context, anomaly entities.CalibrationAnomaly) error
	ListAnomalies(ctx context.Context, limit int) ([]entities.CalibrationAnomaly, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	SubmissionID string
	ExpiresAt    time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Oracle scores one evidence photo against a campaign rubric, returning an
// integer confidence in [0,100].
type Oracle interface {
	Score(ctx context.Context, evidenceURL string, rubric string) (int, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
