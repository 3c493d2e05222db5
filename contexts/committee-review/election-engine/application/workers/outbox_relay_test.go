package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"oversight/contexts/committee-review/election-engine/adapters/memory"
	"oversight/contexts/committee-review/election-engine/ports"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, eventID string, eventType string, occurredAt time.Time) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt,
		SourceService: "election-engine",
		PartitionKey:  "dar-1",
		SchemaVersion: 1,
	})
	if err != nil {
		t.Fatalf("append outbox %s: %v", eventID, err)
	}
}

func TestRunOncePublishesAndMarksBatch(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	appendEnvelope(t, store, "evt-1", "election.opened", base)
	appendEnvelope(t, store, "evt-2", "election.resolved", base.Add(time.Second))

	publisher := &capturingPublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "committee-review.elections",
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.events))
	}
	for _, topic := range publisher.topics {
		if topic != "committee-review.elections" {
			t.Fatalf("expected configured topic, got %q", topic)
		}
	}
	if publisher.events[0].EventID != "evt-1" || publisher.events[1].EventID != "evt-2" {
		t.Fatalf("expected oldest-first publish order, got %s then %s",
			publisher.events[0].EventID, publisher.events[1].EventID)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after publish, got %d", len(pending))
	}
}

func TestRunOnceStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	appendEnvelope(t, store, "evt-1", "election.opened", time.Now().UTC())

	publisher := &capturingPublisher{err: errors.New("broker unavailable")}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish failure to propagate")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected the failed row to stay pending, got %d", len(pending))
	}
}

func TestRunOnceFallsBackToEventTypeTopic(t *testing.T) {
	store := memory.NewStore()
	appendEnvelope(t, store, "evt-1", "election.collect_ready", time.Now().UTC())

	publisher := &capturingPublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "election.collect_ready" {
		t.Fatalf("expected event-type topic fallback, got %v", publisher.topics)
	}
}
