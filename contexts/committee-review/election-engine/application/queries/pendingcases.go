package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	application "oversight/contexts/committee-review/election-engine/application"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	"oversight/contexts/committee-review/election-engine/ports"
)

// PendingCaseUseCase builds the per-reviewer work queues over the open
// elections and ranks them. Chairpersons see progress-ordered queues so the
// closest-to-collect case surfaces first; members see reminder-flagged cases
// first.
type PendingCaseUseCase struct {
	Elections   ports.ElectionRepository
	Votes       ports.VoteRepository
	Linkage     ports.LinkageRepository
	References  ports.ReferenceRepository
	Eligibility ports.EligibilityProvider
	Logger      *slog.Logger
}

// ConsentPendingCases returns the reviewer's queue over open
// TRANSLATE_CONSENT elections.
func (uc PendingCaseUseCase) ConsentPendingCases(ctx context.Context, userID string) ([]entities.PendingCase, error) {
	userID = strings.TrimSpace(userID)
	reviewer, err := uc.Eligibility.GetReviewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	open, err := uc.Elections.ListElectionsByTypeAndStatus(ctx,
		entities.ElectionTypeTranslateConsent, entities.ElectionStatusOpen)
	if err != nil {
		return nil, err
	}

	var cases []entities.PendingCase
	for _, election := range open {
		pending, ok, err := uc.buildCase(ctx, election, reviewer)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		consent, err := uc.References.GetConsent(ctx, election.ReferenceID)
		if err == nil {
			pending.FrontEndID = consent.Name
		}
		cases = append(cases, pending)
	}
	uc.rank(cases, reviewer)
	uc.logQueue(userID, "consent", len(cases))
	return cases, nil
}

// DataRequestPendingCases returns the reviewer's queue over DATA_ACCESS
// elections, each joined with its research-purpose sibling. Chairpersons
// additionally see closed-but-unfinalized access elections awaiting their
// final vote.
func (uc PendingCaseUseCase) DataRequestPendingCases(ctx context.Context, userID string) ([]entities.PendingCase, error) {
	userID = strings.TrimSpace(userID)
	reviewer, err := uc.Eligibility.GetReviewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	elections, err := uc.Elections.ListElectionsByTypeAndStatus(ctx,
		entities.ElectionTypeDataAccess, entities.ElectionStatusOpen)
	if err != nil {
		return nil, err
	}
	if reviewer.Chairperson() {
		unfinalized, err := uc.Elections.ListUnfinalizedAccessElections(ctx)
		if err != nil {
			return nil, err
		}
		elections = mergeElections(elections, unfinalized)
	}

	var cases []entities.PendingCase
	for _, election := range elections {
		pending, ok, err := uc.buildCase(ctx, election, reviewer)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := uc.attachRPSide(ctx, election, reviewer, &pending); err != nil {
			return nil, err
		}
		dar, err := uc.References.GetDataAccessRequest(ctx, election.ReferenceID)
		if err == nil {
			pending.FrontEndID = dar.DarCode
		}
		cases = append(cases, pending)
	}
	uc.rank(cases, reviewer)
	uc.logQueue(userID, "data_request", len(cases))
	return cases, nil
}

// DataOwnerPendingCases returns the owner's queue over open DATASET_OWNER
// elections for datasets they own.
func (uc PendingCaseUseCase) DataOwnerPendingCases(ctx context.Context, userID string) ([]entities.DataOwnerCase, error) {
	userID = strings.TrimSpace(userID)
	open, err := uc.Elections.ListElectionsByTypeAndStatus(ctx,
		entities.ElectionTypeDatasetOwner, entities.ElectionStatusOpen)
	if err != nil {
		return nil, err
	}

	var cases []entities.DataOwnerCase
	for _, election := range open {
		vote, found, err := uc.Votes.GetVoteByElectionUserAndType(ctx,
			election.ElectionID, userID, entities.VoteTypeDataOwner)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		ownerCase := entities.DataOwnerCase{
			ReferenceID:  election.ReferenceID,
			DatasetID:    election.DatasetID,
			VoteID:       vote.VoteID,
			AlreadyVoted: !vote.Pending(),
			HasConcerns:  vote.HasConcerns,
		}
		if dar, err := uc.References.GetDataAccessRequest(ctx, election.ReferenceID); err == nil {
			ownerCase.DarCode = dar.DarCode
		}
		if dataset, err := uc.References.GetDataset(ctx, election.DatasetID); err == nil {
			ownerCase.DatasetName = dataset.Name
		}
		cases = append(cases, ownerCase)
	}
	uc.logQueue(userID, "data_owner", len(cases))
	return cases, nil
}

// buildCase assembles one queue entry, or reports ok=false when the reviewer
// holds no slot on the election.
func (uc PendingCaseUseCase) buildCase(
	ctx context.Context,
	election entities.Election,
	reviewer entities.Reviewer,
) (entities.PendingCase, bool, error) {
	slotType := entities.VoteTypeCommitteeMember
	isFinal := false
	if reviewer.Chairperson() {
		slotType = entities.VoteTypeChairperson
		isFinal = true
	}
	vote, found, err := uc.Votes.GetVoteByElectionUserAndType(ctx, election.ElectionID, reviewer.UserID, slotType)
	if err != nil {
		return entities.PendingCase{}, false, err
	}
	if !found {
		return entities.PendingCase{}, false, nil
	}
	memberVotes, err := uc.Votes.ListVotesByElectionAndType(ctx,
		election.ElectionID, entities.VoteTypeCommitteeMember)
	if err != nil {
		return entities.PendingCase{}, false, err
	}
	logged := 0
	for _, memberVote := range memberVotes {
		if !memberVote.Pending() {
			logged++
		}
	}

	pending := entities.PendingCase{
		ElectionID:     election.ElectionID,
		ReferenceID:    election.ReferenceID,
		ElectionType:   election.Type,
		ElectionStatus: election.Status,
		VoteID:         vote.VoteID,
		TotalVotes:     len(memberVotes),
		VotesLogged:    logged,
		Logged:         fmt.Sprintf("%d/%d", logged, len(memberVotes)),
		AlreadyVoted:   !vote.Pending(),
		IsFinalVote:    isFinal,
		ReminderSent:   vote.ReminderSent,
		Status:         entities.VoteStatusPending,
		CreateDate:     election.CreateDate,
	}
	if pending.AlreadyVoted {
		pending.Status = entities.VoteStatusEditable
	}
	return pending, true, nil
}

func (uc PendingCaseUseCase) attachRPSide(
	ctx context.Context,
	election entities.Election,
	reviewer entities.Reviewer,
	pending *entities.PendingCase,
) error {
	rpID, found, err := uc.Linkage.RPElectionForAccess(ctx, election.ElectionID)
	if err != nil || !found {
		return err
	}
	pending.RPElectionID = rpID
	slotType := entities.VoteTypeCommitteeMember
	if reviewer.Chairperson() {
		slotType = entities.VoteTypeChairperson
	}
	rpVote, found, err := uc.Votes.GetVoteByElectionUserAndType(ctx, rpID, reviewer.UserID, slotType)
	if err != nil {
		return err
	}
	if found {
		pending.RPVoteID = rpVote.VoteID
	}
	return nil
}

func (uc PendingCaseUseCase) rank(cases []entities.PendingCase, reviewer entities.Reviewer) {
	if reviewer.Chairperson() {
		rankForChairperson(cases)
		return
	}
	rankForMember(cases)
}

// rankForChairperson puts fully logged cases (every member vote recorded,
// ready to finalize) first, then orders the rest by (votesLogged, totalVotes)
// descending so closer-to-complete cases surface sooner. Within a progress
// bucket, cases the chair has already voted on precede ones they have not.
// Ties keep repository order.
func rankForChairperson(cases []entities.PendingCase) {
	sort.SliceStable(cases, func(i, j int) bool {
		li, ti := cases[i].Progress()
		lj, tj := cases[j].Progress()
		fullI := li == ti
		fullJ := lj == tj
		if fullI != fullJ {
			return fullI
		}
		if li != lj {
			return li > lj
		}
		if ti != tj {
			return ti > tj
		}
		if cases[i].AlreadyVoted != cases[j].AlreadyVoted {
			return cases[i].AlreadyVoted
		}
		return false
	})
}

// rankForMember orders reminder-flagged pending cases first, then pending
// cases without a reminder, then already-voted cases.
func rankForMember(cases []entities.PendingCase) {
	bucket := func(c entities.PendingCase) int {
		switch {
		case !c.AlreadyVoted && c.ReminderSent:
			return 0
		case !c.AlreadyVoted:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(cases, func(i, j int) bool {
		return bucket(cases[i]) < bucket(cases[j])
	})
}

func mergeElections(base []entities.Election, extra []entities.Election) []entities.Election {
	seen := make(map[string]struct{}, len(base))
	for _, election := range base {
		seen[election.ElectionID] = struct{}{}
	}
	for _, election := range extra {
		if _, ok := seen[election.ElectionID]; ok {
			continue
		}
		seen[election.ElectionID] = struct{}{}
		base = append(base, election)
	}
	return base
}

func (uc PendingCaseUseCase) logQueue(userID string, queue string, count int) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Debug("pending case queue built",
		"event", "pending_cases_built",
		"module", "committee-review/election-engine",
		"layer", "application",
		"user_id", userID,
		"queue", queue,
		"case_count", count,
	)
}
