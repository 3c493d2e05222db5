package queries

import (
	"context"
	"testing"

	"oversight/contexts/committee-review/election-engine/adapters/memory"
	"oversight/contexts/committee-review/election-engine/domain/entities"
)

func newQueueFixture() (*memory.Store, PendingCaseUseCase) {
	store := memory.NewStore()
	return store, PendingCaseUseCase{
		Elections:   store,
		Votes:       store,
		Linkage:     store,
		References:  store,
		Eligibility: store,
	}
}

func seedQueueReviewers(store *memory.Store) {
	store.SeedReviewer(entities.Reviewer{
		UserID:  "chair-1",
		Role:    entities.ReviewerRoleChairperson,
		Enabled: true,
	})
	store.SeedReviewer(entities.Reviewer{
		UserID:  "member-1",
		Role:    entities.ReviewerRoleMember,
		Enabled: true,
	})
}

// seedAccessElection inserts one open DATA_ACCESS election with a chair slot,
// a member slot, and loggedMembers of totalMembers member votes filled.
func seedAccessElection(t *testing.T, store *memory.Store, id string, totalMembers int, loggedMembers int) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  id,
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-" + id,
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("insert election %s: %v", id, err)
	}
	store.SeedDataAccessRequest(entities.DataAccessRequest{
		ReferenceID: "dar-" + id,
		DarCode:     "DAR-" + id,
	})
	if _, err := store.InsertVote(ctx, entities.Vote{
		VoteID:     id + "-chair",
		ElectionID: id,
		UserID:     "chair-1",
		Type:       entities.VoteTypeChairperson,
	}); err != nil {
		t.Fatalf("insert chair slot: %v", err)
	}
	yes := true
	for i := 0; i < totalMembers; i++ {
		vote := entities.Vote{
			VoteID:     id + "-member-" + string(rune('a'+i)),
			ElectionID: id,
			UserID:     "member-1",
			Type:       entities.VoteTypeCommitteeMember,
		}
		if i < loggedMembers {
			vote.Value = &yes
		}
		if _, err := store.InsertVote(ctx, vote); err != nil {
			t.Fatalf("insert member slot: %v", err)
		}
	}
}

func TestDataRequestQueueRanksChairByProgress(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	seedAccessElection(t, store, "low", 3, 1)
	seedAccessElection(t, store, "full", 2, 2)
	seedAccessElection(t, store, "mid", 3, 2)

	cases, err := queue.DataRequestPendingCases(context.Background(), "chair-1")
	if err != nil {
		t.Fatalf("chair queue: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}
	order := []string{cases[0].ElectionID, cases[1].ElectionID, cases[2].ElectionID}
	want := []string{"full", "mid", "low"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected chair order %v, got %v", want, order)
		}
	}
	if !cases[0].ReadyToCollect() {
		t.Fatal("expected the fully logged case to report collect readiness")
	}
	if cases[0].FrontEndID != "DAR-full" {
		t.Fatalf("expected DAR code as front-end id, got %q", cases[0].FrontEndID)
	}
}

func TestChairQueueFullyLoggedOutranksHigherAbsoluteProgress(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	seedAccessElection(t, store, "part", 4, 3)
	seedAccessElection(t, store, "full", 2, 2)

	cases, err := queue.DataRequestPendingCases(context.Background(), "chair-1")
	if err != nil {
		t.Fatalf("chair queue: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ElectionID != "full" || cases[1].ElectionID != "part" {
		t.Fatalf("expected fully logged election first, got [%s %s]",
			cases[0].ElectionID, cases[1].ElectionID)
	}
}

func TestChairQueueVotedPrecedesUnvotedWithinBucket(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	ctx := context.Background()
	seedAccessElection(t, store, "quiet", 3, 2)
	seedAccessElection(t, store, "voted", 3, 2)
	chairVote, err := store.GetVote(ctx, "voted-chair")
	if err != nil {
		t.Fatalf("load chair vote: %v", err)
	}
	yes := true
	chairVote.Value = &yes
	if err := store.UpdateVote(ctx, chairVote); err != nil {
		t.Fatalf("cast chair vote: %v", err)
	}

	cases, err := queue.DataRequestPendingCases(ctx, "chair-1")
	if err != nil {
		t.Fatalf("chair queue: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ElectionID != "voted" || cases[1].ElectionID != "quiet" {
		t.Fatalf("expected the already-voted election first within the bucket, got [%s %s]",
			cases[0].ElectionID, cases[1].ElectionID)
	}
}

func TestMemberQueueBucketsRemindersFirst(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	ctx := context.Background()

	seed := func(id string, voted bool, reminded bool) {
		if _, err := store.InsertElection(ctx, entities.Election{
			ElectionID:  id,
			Type:        entities.ElectionTypeTranslateConsent,
			ReferenceID: "consent-" + id,
			Status:      entities.ElectionStatusOpen,
		}); err != nil {
			t.Fatalf("insert election %s: %v", id, err)
		}
		store.SeedConsent(entities.Consent{ConsentID: "consent-" + id, Name: "Consent " + id})
		vote := entities.Vote{
			VoteID:       id + "-member",
			ElectionID:   id,
			UserID:       "member-1",
			Type:         entities.VoteTypeCommitteeMember,
			ReminderSent: reminded,
		}
		if voted {
			yes := true
			vote.Value = &yes
		}
		if _, err := store.InsertVote(ctx, vote); err != nil {
			t.Fatalf("insert vote: %v", err)
		}
	}
	seed("voted", true, false)
	seed("quiet", false, false)
	seed("reminded", false, true)

	cases, err := queue.ConsentPendingCases(context.Background(), "member-1")
	if err != nil {
		t.Fatalf("member queue: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}
	want := []string{"reminded", "quiet", "voted"}
	for i := range want {
		if cases[i].ElectionID != want[i] {
			t.Fatalf("expected member order %v, got [%s %s %s]",
				want, cases[0].ElectionID, cases[1].ElectionID, cases[2].ElectionID)
		}
	}
	if cases[2].Status != entities.VoteStatusEditable {
		t.Fatalf("expected voted case marked EDITABLE, got %s", cases[2].Status)
	}
	if cases[0].FrontEndID != "Consent reminded" {
		t.Fatalf("expected consent name as front-end id, got %q", cases[0].FrontEndID)
	}
}

func TestQueueSkipsElectionsWithoutSlot(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	if _, err := store.InsertElection(context.Background(), entities.Election{
		ElectionID:  "no-slot",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-x",
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("insert election: %v", err)
	}

	cases, err := queue.DataRequestPendingCases(context.Background(), "member-1")
	if err != nil {
		t.Fatalf("member queue: %v", err)
	}
	if len(cases) != 0 {
		t.Fatalf("expected no cases without a slot, got %d", len(cases))
	}
}

func TestChairQueueIncludesUnfinalizedClosedElections(t *testing.T) {
	store, queue := newQueueFixture()
	seedQueueReviewers(store)
	ctx := context.Background()
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "closed-unfinalized",
		Type:        entities.ElectionTypeDataAccess,
		ReferenceID: "dar-1",
		Status:      entities.ElectionStatusClosed,
	}); err != nil {
		t.Fatalf("insert election: %v", err)
	}
	store.SeedDataAccessRequest(entities.DataAccessRequest{ReferenceID: "dar-1", DarCode: "DAR-1"})
	if _, err := store.InsertVote(ctx, entities.Vote{
		VoteID:     "chair-slot",
		ElectionID: "closed-unfinalized",
		UserID:     "chair-1",
		Type:       entities.VoteTypeChairperson,
	}); err != nil {
		t.Fatalf("insert chair slot: %v", err)
	}

	chairCases, err := queue.DataRequestPendingCases(ctx, "chair-1")
	if err != nil {
		t.Fatalf("chair queue: %v", err)
	}
	if len(chairCases) != 1 || chairCases[0].ElectionID != "closed-unfinalized" {
		t.Fatalf("expected the unfinalized closed election in the chair queue, got %+v", chairCases)
	}
	if !chairCases[0].IsFinalVote {
		t.Fatal("expected chair case flagged as final vote")
	}

	memberCases, err := queue.DataRequestPendingCases(ctx, "member-1")
	if err != nil {
		t.Fatalf("member queue: %v", err)
	}
	if len(memberCases) != 0 {
		t.Fatalf("expected members not to see closed elections, got %d", len(memberCases))
	}
}

func TestDataOwnerQueueListsOwnedDatasets(t *testing.T) {
	store, queue := newQueueFixture()
	ctx := context.Background()
	store.SeedDataset(entities.Dataset{
		DatasetID:     "dataset-1",
		Name:          "Study Cohort",
		Active:        true,
		NeedsApproval: true,
		OwnerUserIDs:  []string{"owner-1"},
	})
	store.SeedDataAccessRequest(entities.DataAccessRequest{
		ReferenceID: "dar-1",
		DarCode:     "DAR-9",
		DatasetIDs:  []string{"dataset-1"},
	})
	if _, err := store.InsertElection(ctx, entities.Election{
		ElectionID:  "owner-election",
		Type:        entities.ElectionTypeDatasetOwner,
		ReferenceID: "dar-1",
		DatasetID:   "dataset-1",
		Status:      entities.ElectionStatusOpen,
	}); err != nil {
		t.Fatalf("insert owner election: %v", err)
	}
	if _, err := store.InsertVote(ctx, entities.Vote{
		VoteID:     "owner-slot",
		ElectionID: "owner-election",
		UserID:     "owner-1",
		Type:       entities.VoteTypeDataOwner,
	}); err != nil {
		t.Fatalf("insert owner slot: %v", err)
	}

	cases, err := queue.DataOwnerPendingCases(ctx, "owner-1")
	if err != nil {
		t.Fatalf("owner queue: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected one owner case, got %d", len(cases))
	}
	if cases[0].DarCode != "DAR-9" || cases[0].DatasetName != "Study Cohort" || cases[0].AlreadyVoted {
		t.Fatalf("unexpected owner case %+v", cases[0])
	}

	other, err := queue.DataOwnerPendingCases(ctx, "someone-else")
	if err != nil {
		t.Fatalf("other owner queue: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty queue for non-owners, got %d", len(other))
	}
}
