package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"
)

func testEnvelope(eventID string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     "election.opened",
		OccurredAt:    time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		SourceService: "election-engine",
		PartitionKey:  "dar-1",
		SchemaVersion: 1,
	}
}

func TestInsertElectionEnforcesSingleOpenPerTypeAndReference(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "e1",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "e2",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusOpen,
	})
	if !errors.Is(err, domainerrors.ErrOpenElectionExists) {
		t.Fatalf("expected ErrOpenElectionExists, got %v", err)
	}

	// Closed rows and other types are not constrained.
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "e3",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusClosed,
	}); err != nil {
		t.Fatalf("closed insert: %v", err)
	}
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "e4",
		Type:        entities.ElectionTypeResearchPurpose,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("other type insert: %v", err)
	}
}

func TestListLastDatasetElectionsKeepsLatestPerDataset(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	insert := func(id string, datasetID string, status entities.ElectionStatus) {
		if _, err := store.InsertElection(ctx, entities.Election{
			ElectionID:  id,
			Type:        entities.ElectionTypeDatasetOwner,
			ReferenceID: "dar-1",
			DatasetID:   datasetID,
			Status:      status,
		}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	insert("old-a", "dataset-a", entities.ElectionStatusCanceled)
	insert("new-a", "dataset-a", entities.ElectionStatusClosed)
	insert("only-b", "dataset-b", entities.ElectionStatusOpen)

	latest, err := store.ListLastDatasetElections(ctx, "dar-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected one election per dataset, got %d", len(latest))
	}
	seen := map[string]string{}
	for _, election := range latest {
		seen[election.DatasetID] = election.ElectionID
	}
	if seen["dataset-a"] != "new-a" {
		t.Fatalf("expected the newest election for dataset-a, got %s", seen["dataset-a"])
	}
	if seen["dataset-b"] != "only-b" {
		t.Fatalf("expected only-b for dataset-b, got %s", seen["dataset-b"])
	}
}

func TestGetVoteByReferenceUserAndTypePicksNewestElection(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, id := range []string{"older", "newer"} {
		if _, err := store.InsertElection(ctx, entities.Election{
			ElectionID:  id,
			Type:        entities.ElectionTypeDataAccess,
			ReferenceID: "dar-1",
			Status:      entities.ElectionStatusClosed,
		}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
		if _, err := store.InsertVote(ctx, entities.Vote{
			VoteID:     id + "-vote",
			ElectionID: id,
			UserID:     "chair-1",
			Type:       entities.VoteTypeChairperson,
		}); err != nil {
			t.Fatalf("insert vote: %v", err)
		}
	}

	vote, found, err := store.GetVoteByReferenceUserAndType(ctx, "dar-1", "chair-1", entities.VoteTypeChairperson)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if vote.VoteID != "newer-vote" {
		t.Fatalf("expected the vote from the newest election, got %s", vote.VoteID)
	}
}

func TestInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTransaction(ctx, func(txCtx context.Context) error {
		if _, err := store.InsertElection(txCtx, entities.Election{
			ElectionID:  "e1",
			Type:        entities.ElectionTypeDataAccess,
			ReferenceID: "dar-1",
			Status:      entities.ElectionStatusOpen,
		}); err != nil {
			return err
		}
		if _, err := store.InsertVote(txCtx, entities.Vote{
			VoteID:     "v1",
			ElectionID: "e1",
			UserID:     "chair-1",
			Type:       entities.VoteTypeChairperson,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the inner error, got %v", err)
	}

	if _, err := store.GetElection(ctx, "e1"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected the election rolled back, got %v", err)
	}
	if _, err := store.GetVote(ctx, "v1"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected the vote rolled back, got %v", err)
	}
}

func TestOutboxAppendIsIdempotentPerEventID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	envelope := testEnvelope("evt-1")
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("duplicate append: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending row for duplicate appends, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(ctx, "evt-1", store.Now()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending after publish: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after publish, got %d", len(pending))
	}
}
