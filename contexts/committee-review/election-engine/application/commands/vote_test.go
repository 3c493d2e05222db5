package commands

import (
	"context"
	"errors"
	"testing"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
)

// castAllNonChairVotes fills every slot on the election except the
// CHAIRPERSON ones, the state collect readiness waits for.
func castAllNonChairVotes(t *testing.T, votes VoteUseCase, electionID string) {
	t.Helper()
	slots, err := votes.ListVotes(context.Background(), electionID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	yes := true
	for _, slot := range slots {
		if slot.Type == entities.VoteTypeChairperson {
			continue
		}
		if _, err := votes.CastVote(context.Background(), CastVoteCommand{
			VoteID: slot.VoteID,
			Value:  &yes,
		}); err != nil {
			t.Fatalf("cast vote %s: %v", slot.VoteID, err)
		}
	}
}

func TestCastVoteStampsCreateDateThenUpdateDate(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	memberVotes, err := store.ListVotesByElectionAndType(context.Background(),
		result.Election.ElectionID, entities.VoteTypeCommitteeMember)
	if err != nil || len(memberVotes) == 0 {
		t.Fatalf("expected member slots, err=%v", err)
	}
	slot := memberVotes[0]

	yes := true
	first, err := votes.CastVote(context.Background(), CastVoteCommand{
		VoteID:    slot.VoteID,
		Value:     &yes,
		Rationale: "  looks fine  ",
	})
	if err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if first.CreateDate == nil || first.UpdateDate != nil {
		t.Fatalf("expected create date only on first cast, got %+v", first)
	}
	if first.Rationale != "looks fine" {
		t.Fatalf("expected trimmed rationale, got %q", first.Rationale)
	}

	no := false
	recast, err := votes.CastVote(context.Background(), CastVoteCommand{
		VoteID: slot.VoteID,
		Value:  &no,
	})
	if err != nil {
		t.Fatalf("recast: %v", err)
	}
	if recast.UpdateDate == nil {
		t.Fatal("expected update date stamped on recast")
	}
	if recast.Value == nil || *recast.Value {
		t.Fatal("expected recast value stored")
	}
}

func TestCastVoteRejectsMissingValue(t *testing.T) {
	_, _, votes, _ := newFixture()

	_, err := votes.CastVote(context.Background(), CastVoteCommand{VoteID: "vote-1"})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected ErrInvalidVoteInput, got %v", err)
	}
}

func TestCastVoteRejectsUserMismatch(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	slots, _ := store.ListVotesByElection(context.Background(), result.Election.ElectionID)

	yes := true
	_, err = votes.CastVote(context.Background(), CastVoteCommand{
		VoteID: slots[0].VoteID,
		UserID: "someone-else",
		Value:  &yes,
	})
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound on user mismatch, got %v", err)
	}
}

func TestCastVoteRejectsClosedElection(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := elections.Transition(context.Background(), TransitionCommand{
		ElectionID: result.Election.ElectionID,
		Status:     "CANCELED",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	slots, _ := store.ListVotesByElection(context.Background(), result.Election.ElectionID)

	yes := true
	_, err = votes.CastVote(context.Background(), CastVoteCommand{
		VoteID: slots[0].VoteID,
		Value:  &yes,
	})
	if !errors.Is(err, domainerrors.ErrElectionNotOpen) {
		t.Fatalf("expected ErrElectionNotOpen, got %v", err)
	}
}

func TestClearVoteResetsSlot(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	slots, _ := store.ListVotesByElection(context.Background(), result.Election.ElectionID)
	yes := true
	cast, err := votes.CastVote(context.Background(), CastVoteCommand{
		VoteID:      slots[0].VoteID,
		Value:       &yes,
		Rationale:   "approve",
		HasConcerns: true,
	})
	if err != nil {
		t.Fatalf("cast: %v", err)
	}

	cleared, err := votes.ClearVote(context.Background(), cast.VoteID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !cleared.Pending() || cleared.Rationale != "" || cleared.HasConcerns {
		t.Fatalf("expected slot reset to pending, got %+v", cleared)
	}
}

func TestCollectReadinessSpansAccessRPPair(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ready, err := votes.CollectReadiness(context.Background(), result.Election.ElectionID)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if ready {
		t.Fatal("expected not ready while slots are pending")
	}

	castAllNonChairVotes(t, votes, result.Election.ElectionID)
	ready, err = votes.CollectReadiness(context.Background(), result.Election.ElectionID)
	if err != nil {
		t.Fatalf("readiness after access votes: %v", err)
	}
	if ready {
		t.Fatal("expected not ready while the paired election still has pending slots")
	}

	castAllNonChairVotes(t, votes, result.RPElection.ElectionID)
	ready, err = votes.CollectReadiness(context.Background(), result.Election.ElectionID)
	if err != nil {
		t.Fatalf("readiness after both sides: %v", err)
	}
	if !ready {
		t.Fatal("expected readiness once every non-chair slot across the pair is filled")
	}
}

func TestCollectReadinessUndefinedForDatasetOwner(t *testing.T) {
	store, _, votes, linkage := newFixture()
	seedCommittee(store)
	opened, err := linkage.ProvisionDatasetOwnerElections(context.Background(), "dar-1")
	if err != nil || len(opened) != 1 {
		t.Fatalf("provision owner elections: %v", err)
	}

	_, err = votes.CollectReadiness(context.Background(), opened[0].ElectionID)
	if !errors.Is(err, domainerrors.ErrCollectConditionUnmetType) {
		t.Fatalf("expected ErrCollectConditionUnmetType, got %v", err)
	}
}

func TestDescribeDataOwnerVoteFindsNewestOwnerSlot(t *testing.T) {
	store, _, votes, linkage := newFixture()
	seedCommittee(store)
	opened, err := linkage.ProvisionDatasetOwnerElections(context.Background(), "dar-1")
	if err != nil || len(opened) != 1 {
		t.Fatalf("provision owner elections: %v", err)
	}

	vote, err := votes.DescribeDataOwnerVote(context.Background(), "dar-1", "owner-1")
	if err != nil {
		t.Fatalf("describe owner vote: %v", err)
	}
	if vote.Type != entities.VoteTypeDataOwner || vote.ElectionID != opened[0].ElectionID {
		t.Fatalf("unexpected owner vote %+v", vote)
	}

	_, err = votes.DescribeDataOwnerVote(context.Background(), "dar-1", "stranger")
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound for non-owners, got %v", err)
	}
}

func TestCollectNotificationFiresOncePerPair(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	castAllNonChairVotes(t, votes, result.Election.ElectionID)
	castAllNonChairVotes(t, votes, result.RPElection.ElectionID)
	// Recasting after readiness runs the check again; the notification log
	// must keep it to a single emission.
	castAllNonChairVotes(t, votes, result.Election.ElectionID)

	pending, err := store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	collectReady := 0
	for _, row := range pending {
		if row.EventType == "election.collect_ready" {
			collectReady++
		}
	}
	if collectReady != 1 {
		t.Fatalf("expected exactly one collect-ready notification, got %d", collectReady)
	}
}

func TestSendReminderFlagsVote(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	slots, _ := store.ListVotesByElection(context.Background(), result.Election.ElectionID)

	reminded, err := votes.SendReminder(context.Background(), slots[0].VoteID)
	if err != nil {
		t.Fatalf("send reminder: %v", err)
	}
	if !reminded.ReminderSent {
		t.Fatal("expected reminder flag set")
	}
}

func TestFinalAccessVoteFallsBackToChairperson(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	if _, err := elections.Create(context.Background(), entities.ElectionTypeTranslateConsent, "consent-1"); err != nil {
		t.Fatalf("create consent election: %v", err)
	}
	open, _, err := store.GetOpenElection(context.Background(), "consent-1", entities.ElectionTypeTranslateConsent)
	if err != nil {
		t.Fatalf("load open consent election: %v", err)
	}
	chairVotes, err := store.ListVotesByElectionAndType(context.Background(),
		open.ElectionID, entities.VoteTypeChairperson)
	if err != nil || len(chairVotes) != 1 {
		t.Fatalf("expected one chair slot, got %d err=%v", len(chairVotes), err)
	}
	yes := true
	if _, err := votes.CastVote(context.Background(), CastVoteCommand{
		VoteID: chairVotes[0].VoteID,
		Value:  &yes,
	}); err != nil {
		t.Fatalf("cast chair vote: %v", err)
	}

	// No FINAL slot exists outside DATA_ACCESS, so the chair vote decides.
	approved, err := votes.FinalAccessVote(context.Background(), open.ElectionID)
	if err != nil {
		t.Fatalf("final access vote: %v", err)
	}
	if !approved {
		t.Fatal("expected chairperson approval to decide the access vote")
	}
}

func TestDeleteVotesPurgesElectionSlots(t *testing.T) {
	store, elections, votes, _ := newFixture()
	seedCommittee(store)
	approveConsentGate(t, store)
	result, err := elections.Create(context.Background(), entities.ElectionTypeDataAccess, "dar-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := votes.DeleteVotes(context.Background(), result.Election.ElectionID); err != nil {
		t.Fatalf("delete votes: %v", err)
	}
	remaining, err := store.ListVotesByElection(context.Background(), result.Election.ElectionID)
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected no slots left, got %d err=%v", len(remaining), err)
	}
}
