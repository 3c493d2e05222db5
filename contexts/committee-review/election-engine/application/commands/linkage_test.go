package commands

import (
	"context"
	"errors"
	"testing"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
)

func TestProvisionDatasetOwnerElectionsIsIdempotent(t *testing.T) {
	store, _, _, linkage := newFixture()
	seedCommittee(store)

	first, err := linkage.ProvisionDatasetOwnerElections(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one owner election, got %d", len(first))
	}
	if first[0].Type != entities.ElectionTypeDatasetOwner || first[0].DatasetID != "dataset-1" {
		t.Fatalf("unexpected owner election %+v", first[0])
	}

	second, err := linkage.ProvisionDatasetOwnerElections(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no new elections while one is open, got %d", len(second))
	}
}

func TestProvisionDatasetOwnerElectionsSkipsDatasetsWithoutApproval(t *testing.T) {
	store, _, _, linkage := newFixture()
	seedCommittee(store)
	store.SeedDataset(entities.Dataset{
		DatasetID:    "dataset-1",
		ConsentID:    "consent-1",
		CommitteeID:  "committee-1",
		Active:       true,
		OwnerUserIDs: []string{"owner-1"},
	})

	opened, err := linkage.ProvisionDatasetOwnerElections(context.Background(), "dar-1")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(opened) != 0 {
		t.Fatalf("expected no elections for datasets not requiring approval, got %d", len(opened))
	}
}

func TestPairedLookupsReportNotFound(t *testing.T) {
	_, _, _, linkage := newFixture()

	if _, err := linkage.PairedRPElection(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound for missing pair, got %v", err)
	}
	if _, err := linkage.PairedAccessElection(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound for missing pair, got %v", err)
	}
}

func TestConsentGateOpenTracksOpenConsentElections(t *testing.T) {
	store, elections, _, linkage := newFixture()
	seedCommittee(store)

	open, err := linkage.ConsentGateOpen(context.Background(), "dataset-1")
	if err != nil {
		t.Fatalf("gate check: %v", err)
	}
	if open {
		t.Fatal("expected no open consent election initially")
	}

	if _, err := elections.Create(context.Background(), entities.ElectionTypeTranslateConsent, "consent-1"); err != nil {
		t.Fatalf("open consent election: %v", err)
	}
	open, err = linkage.ConsentGateOpen(context.Background(), "dataset-1")
	if err != nil {
		t.Fatalf("gate check after open: %v", err)
	}
	if !open {
		t.Fatal("expected gate to report the open consent election")
	}
}
