package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "bountyfi/contexts/verification/submission-lifecycle/application"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
	"bountyfi/internal/shared/events"
)

// OutboxRelay publishes persisted lifecycle outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after the bus accepts it. It stops on the first failure so
// the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("lifecycle outbox list failed",
			"event", "lifecycle_outbox_list_failed",
			"module", "verification/submission-lifecycle",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("lifecycle outbox decode failed",
				"event", "lifecycle_outbox_decode_failed",
				"module", "verification/submission-lifecycle",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("lifecycle outbox publish failed",
				"event", "lifecycle_outbox_publish_failed",
				"module", "verification/submission-lifecycle",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("lifecycle outbox mark published failed",
				"event", "lifecycle_outbox_mark_published_failed",
				"module", "verification/submission-lifecycle",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("lifecycle outbox relay cycle completed",
		"event", "lifecycle_outbox_relay_completed",
		"module", "verification/submission-lifecycle",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
