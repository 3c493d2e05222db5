package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "oversight/contexts/committee-review/election-engine/application"
	"oversight/contexts/committee-review/election-engine/ports"
)

func newReviewEnvelope(
	eventID string,
	eventType string,
	referenceID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by the reviewed reference so consumers see a
	// stable order per DAR/consent.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "election-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "reference_id",
		PartitionKey:     referenceID,
		Data:             payload,
	}, nil
}

// emitEvent writes a notification request to the outbox on a best-effort
// basis. Election and vote state is the durable source of truth; a failed
// notification write is logged and never fails the caller.
func emitEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	logger *slog.Logger,
	eventType string,
	referenceID string,
	occurredAt time.Time,
	data map[string]any,
) {
	if outbox == nil {
		return
	}
	log := application.ResolveLogger(logger)
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		log.Error("notification id generation failed",
			"event", "election_notification_id_failed",
			"module", "committee-review/election-engine",
			"layer", "application",
			"event_type", eventType,
			"reference_id", referenceID,
			"error", err.Error(),
		)
		return
	}
	envelope, err := newReviewEnvelope(eventID, eventType, referenceID, occurredAt, data)
	if err != nil {
		log.Error("notification envelope build failed",
			"event", "election_notification_envelope_failed",
			"module", "committee-review/election-engine",
			"layer", "application",
			"event_type", eventType,
			"reference_id", referenceID,
			"error", err.Error(),
		)
		return
	}
	if err := outbox.AppendOutbox(ctx, envelope); err != nil {
		log.Error("notification outbox append failed",
			"event", "election_notification_append_failed",
			"module", "committee-review/election-engine",
			"layer", "application",
			"event_type", eventType,
			"reference_id", referenceID,
			"error", err.Error(),
		)
	}
}
