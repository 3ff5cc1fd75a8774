package commands

import (
	"context"
	"encoding/json"
	"time"

	"bountyfi/contexts/verification/submission-lifecycle/ports"
	"bountyfi/internal/shared/events"
)

// appendSubmissionEvent persists one lifecycle event to the outbox. A nil
// outbox is a no-op so read-only and test wirings stay light.
func appendSubmissionEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	submissionID string,
	occurredAt time.Time,
	payload map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope := events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "verification/submission-lifecycle",
		OccurredAtUTC:  occurredAt,
		CorrelationID:  submissionID,
		EntityType:     "submission",
		EntityID:       submissionID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:  outboxID,
		EventType: eventType,
		Payload:   raw,
		CreatedAt: occurredAt,
	})
}
