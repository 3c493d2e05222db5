package queries

import (
	"context"
	"errors"
	"testing"

	"oversight/contexts/committee-review/election-engine/adapters/memory"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
)

func newStatusFixture() (*memory.Store, ElectionStatusUseCase) {
	store := memory.NewStore()
	return store, ElectionStatusUseCase{
		Elections:  store,
		Votes:      store,
		References: store,
	}
}

func seedDar(store *memory.Store, needsApproval bool) {
	store.SeedDataset(entities.Dataset{
		DatasetID:     "dataset-1",
		ConsentID:     "consent-1",
		Active:        true,
		NeedsApproval: needsApproval,
		OwnerUserIDs:  []string{"owner-1"},
	})
	store.SeedDataAccessRequest(entities.DataAccessRequest{
		ReferenceID: "dar-1",
		DarCode:     "DAR-7",
		DatasetIDs:  []string{"dataset-1"},
	})
}

func insertOwnerElection(t *testing.T, store *memory.Store, id string, status entities.ElectionStatus, finalVote *bool) {
	t.Helper()
	if _, err := store.InsertElection(context.Background(), entities.Election{
		ElectionID:  id,
		Type:        entities.ElectionTypeDatasetOwner,
		ReferenceID: "dar-1",
		DatasetID:   "dataset-1",
		Status:      status,
		FinalVote:   finalVote,
	}); err != nil {
		t.Fatalf("insert owner election: %v", err)
	}
}

func TestDarDatasetElectionStatusNotNeeded(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, false)

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalNotNeeded {
		t.Fatalf("expected APPROVAL_NOT_NEEDED, got %s", got)
	}
}

func TestDarDatasetElectionStatusPendingWithoutElections(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalPending {
		t.Fatalf("expected DS_PENDING, got %s", got)
	}
}

func TestDarDatasetElectionStatusDeniedOnAnyDenial(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)
	denied := false
	insertOwnerElection(t, store, "owner-election-1", entities.ElectionStatusClosed, &denied)

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalDenied {
		t.Fatalf("expected DS_DENIED, got %s", got)
	}
}

func TestDarDatasetElectionStatusApproved(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)
	approved := true
	insertOwnerElection(t, store, "owner-election-1", entities.ElectionStatusClosed, &approved)

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalApproved {
		t.Fatalf("expected DS_APPROVED, got %s", got)
	}
}

func TestDarDatasetElectionStatusPendingWhileOpen(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)
	insertOwnerElection(t, store, "owner-election-1", entities.ElectionStatusOpen, nil)

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalPending {
		t.Fatalf("expected DS_PENDING while an election is open, got %s", got)
	}
}

func TestDarDatasetElectionStatusPendingWhileAccessElectionOpen(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)
	approved := true
	insertOwnerElection(t, store, "owner-election-1", entities.ElectionStatusClosed, &approved)
	if _, err := store.InsertElection(context.Background(), entities.Election{
		ElectionID:  "access-election-1",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("insert access election: %v", err)
	}

	got, err := status.DarDatasetElectionStatus(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("derive status: %v", err)
	}
	if got != entities.DatasetApprovalPending {
		t.Fatalf("expected DS_PENDING while the access election is open, got %s", got)
	}
}

func TestOpenElectionNotFound(t *testing.T) {
	_, status := newStatusFixture()

	_, err := status.OpenElection(context.Background(), "dar-1", entities.ElectionTypeDataAccess)
	if !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}
}

func TestLastElectionPicksNewest(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)
	if _, err := store.InsertElection(context.Background(), entities.Election{
		ElectionID:  "older",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusCanceled,
	}); err != nil {
		t.Fatalf("insert older: %v", err)
	}
	if _, err := store.InsertElection(context.Background(), entities.Election{
		ElectionID:  "newer",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusClosed,
	}); err != nil {
		t.Fatalf("insert newer: %v", err)
	}

	last, err := status.LastElection(context.Background(), "dar-1", entities.ElectionTypeDataAccess)
	if err != nil {
		t.Fatalf("last election: %v", err)
	}
	if last.ElectionID != "newer" {
		t.Fatalf("expected newest election, got %s", last.ElectionID)
	}
}

func TestConsentElectionRequiresKnownConsent(t *testing.T) {
	_, status := newStatusFixture()

	_, err := status.ConsentElection(context.Background(), "consent-x")
	if !errors.Is(err, domainerrors.ErrConsentNotFound) {
		t.Fatalf("expected ErrConsentNotFound, got %v", err)
	}
}

func TestIsDatasetElectionOpen(t *testing.T) {
	store, status := newStatusFixture()
	seedDar(store, true)

	open, err := status.IsDatasetElectionOpen(context.Background())
	if err != nil || open {
		t.Fatalf("expected no open dataset elections, open=%v err=%v", open, err)
	}
	insertOwnerElection(t, store, "owner-election-1", entities.ElectionStatusOpen, nil)
	open, err = status.IsDatasetElectionOpen(context.Background())
	if err != nil || !open {
		t.Fatalf("expected an open dataset election, open=%v err=%v", open, err)
	}
}
