package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "oversight/contexts/committee-review/election-engine/application"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"
)

// CastVoteCommand records a reviewer's decision on one of their vote slots.
type CastVoteCommand struct {
	VoteID      string
	ElectionID  string
	UserID      string
	Value       *bool
	Rationale   string
	HasConcerns bool
}

// VoteUseCase owns vote slot provisioning, vote casting, reminders, and the
// collect-readiness check that fires when every non-chair slot is filled.
type VoteUseCase struct {
	Votes         ports.VoteRepository
	Elections     ports.ElectionRepository
	Linkage       ports.LinkageRepository
	References    ports.ReferenceRepository
	Eligibility   ports.EligibilityProvider
	Notifications ports.NotificationLog
	Outbox        ports.OutboxWriter
	UnitOfWork    ports.UnitOfWork
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

var _ VoteProvisioner = VoteUseCase{}

// CastVote stores a reviewer's decision. The first cast stamps the create
// date, recasts stamp the update date, and the election must still be open.
// After the write the paired collect-readiness check runs on a best-effort
// basis.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Value == nil {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(cmd.VoteID))
	if err != nil {
		return entities.Vote{}, err
	}
	if electionID := strings.TrimSpace(cmd.ElectionID); electionID != "" && vote.ElectionID != electionID {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	if userID := strings.TrimSpace(cmd.UserID); userID != "" && vote.UserID != userID {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	election, err := uc.Elections.GetElection(ctx, vote.ElectionID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !election.Open() {
		return entities.Vote{}, domainerrors.ErrElectionNotOpen
	}

	now := uc.now()
	firstCast := vote.Pending()
	vote.Value = cmd.Value
	vote.Rationale = strings.TrimSpace(cmd.Rationale)
	vote.HasConcerns = cmd.HasConcerns
	if firstCast {
		createDate := now
		vote.CreateDate = &createDate
	} else {
		updateDate := now
		vote.UpdateDate = &updateDate
	}
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		return uc.Votes.UpdateVote(txCtx, vote)
	})
	if err != nil {
		return entities.Vote{}, err
	}

	logger.Info("vote cast",
		"event", "vote_cast",
		"module", "committee-review/election-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"election_id", vote.ElectionID,
		"vote_type", string(vote.Type),
		"first_cast", firstCast,
	)
	uc.NotifyCollectIfReady(ctx, vote.ElectionID)
	return vote, nil
}

// DescribeVote returns a single vote slot.
func (uc VoteUseCase) DescribeVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
}

// DescribeDataOwnerVote returns an owner's DATA_OWNER vote on the newest
// owner election of a DAR.
func (uc VoteUseCase) DescribeDataOwnerVote(ctx context.Context, referenceID string, userID string) (entities.Vote, error) {
	vote, found, err := uc.Votes.GetVoteByReferenceUserAndType(ctx,
		strings.TrimSpace(referenceID), strings.TrimSpace(userID), entities.VoteTypeDataOwner)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

// ListVotes returns every vote slot on an election.
func (uc VoteUseCase) ListVotes(ctx context.Context, electionID string) ([]entities.Vote, error) {
	if _, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID)); err != nil {
		return nil, err
	}
	return uc.Votes.ListVotesByElection(ctx, strings.TrimSpace(electionID))
}

// ClearVote resets a slot back to pending without deleting it, keeping the
// reviewer's seat on the election.
func (uc VoteUseCase) ClearVote(ctx context.Context, voteID string) (entities.Vote, error) {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return entities.Vote{}, err
	}
	election, err := uc.Elections.GetElection(ctx, vote.ElectionID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !election.Open() {
		return entities.Vote{}, domainerrors.ErrElectionNotOpen
	}
	now := uc.now()
	vote.Value = nil
	vote.Rationale = ""
	vote.HasConcerns = false
	vote.UpdateDate = &now
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		return uc.Votes.UpdateVote(txCtx, vote)
	})
	if err != nil {
		return entities.Vote{}, err
	}
	return vote, nil
}

// DeleteVote removes one slot from an election.
func (uc VoteUseCase) DeleteVote(ctx context.Context, electionID string, voteID string) error {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return err
	}
	if vote.ElectionID != strings.TrimSpace(electionID) {
		return domainerrors.ErrVoteNotFound
	}
	return uc.inTransaction(ctx, func(txCtx context.Context) error {
		return uc.Votes.DeleteVote(txCtx, vote.VoteID)
	})
}

// DeleteVotes removes every slot on an election.
func (uc VoteUseCase) DeleteVotes(ctx context.Context, electionID string) error {
	if _, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID)); err != nil {
		return err
	}
	return uc.inTransaction(ctx, func(txCtx context.Context) error {
		return uc.Votes.DeleteVotesByElection(txCtx, strings.TrimSpace(electionID))
	})
}

// SendReminder flags a pending slot as reminded and emits the reminder
// notification for the reviewer.
func (uc VoteUseCase) SendReminder(ctx context.Context, voteID string) (entities.Vote, error) {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return entities.Vote{}, err
	}
	election, err := uc.Elections.GetElection(ctx, vote.ElectionID)
	if err != nil {
		return entities.Vote{}, err
	}
	now := uc.now()
	vote.ReminderSent = true
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		return uc.Votes.UpdateVote(txCtx, vote)
	})
	if err != nil {
		return entities.Vote{}, err
	}
	emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "vote.reminder", election.ReferenceID, now, map[string]any{
		"vote_id":     vote.VoteID,
		"election_id": vote.ElectionID,
		"user_id":     vote.UserID,
	})
	return vote, nil
}

// FinalAccessVote aggregates the derived access decision for an election:
// true when any FINAL vote approves, falling back to the chairperson votes
// when no FINAL slot exists.
func (uc VoteUseCase) FinalAccessVote(ctx context.Context, electionID string) (bool, error) {
	if _, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID)); err != nil {
		return false, err
	}
	votes, err := uc.Votes.ListVotesByElectionAndType(ctx, strings.TrimSpace(electionID), entities.VoteTypeFinal)
	if err != nil {
		return false, err
	}
	if len(votes) == 0 {
		votes, err = uc.Votes.ListVotesByElectionAndType(ctx, strings.TrimSpace(electionID), entities.VoteTypeChairperson)
		if err != nil {
			return false, err
		}
	}
	for _, vote := range votes {
		if vote.Value != nil && *vote.Value {
			return true, nil
		}
	}
	return false, nil
}

// ProvisionVotes creates the pending slots for a fresh election. Every
// enabled committee member gets a COMMITTEE_MEMBER slot; chairpersons also
// get a CHAIRPERSON slot, and on DATA_ACCESS elections a FINAL slot plus,
// when the restriction matched automatically, an AGREEMENT slot.
func (uc VoteUseCase) ProvisionVotes(
	ctx context.Context,
	election entities.Election,
	manualReview bool,
) ([]entities.Vote, error) {
	if election.Type == entities.ElectionTypeDatasetOwner {
		return uc.ProvisionDataOwnerVotes(ctx, election)
	}
	scope, err := resolveCommitteeScope(ctx, uc.References, election.Type, election.ReferenceID)
	if err != nil {
		return nil, err
	}
	voters, err := uc.Eligibility.EnabledVoters(ctx, scope)
	if err != nil {
		return nil, err
	}

	var votes []entities.Vote
	for _, voter := range voters {
		if !voter.Enabled {
			continue
		}
		slotTypes := []entities.VoteType{entities.VoteTypeCommitteeMember}
		if voter.Chairperson() {
			slotTypes = append(slotTypes, entities.VoteTypeChairperson)
			if election.Type == entities.ElectionTypeDataAccess {
				slotTypes = append(slotTypes, entities.VoteTypeFinal)
				if !manualReview {
					slotTypes = append(slotTypes, entities.VoteTypeAgreement)
				}
			}
		}
		for _, slotType := range slotTypes {
			vote, err := uc.insertSlot(ctx, election.ElectionID, voter.UserID, slotType)
			if err != nil {
				return nil, err
			}
			votes = append(votes, vote)
		}
	}
	if len(votes) == 0 {
		return nil, domainerrors.ErrNoEligibleVoters
	}
	return votes, nil
}

// ProvisionDataOwnerVotes creates one DATA_OWNER slot per owner of the
// election's dataset.
func (uc VoteUseCase) ProvisionDataOwnerVotes(
	ctx context.Context,
	election entities.Election,
) ([]entities.Vote, error) {
	dataset, err := uc.References.GetDataset(ctx, election.DatasetID)
	if err != nil {
		return nil, err
	}
	var votes []entities.Vote
	for _, ownerID := range dataset.OwnerUserIDs {
		vote, err := uc.insertSlot(ctx, election.ElectionID, ownerID, entities.VoteTypeDataOwner)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	if len(votes) == 0 {
		return nil, domainerrors.ErrNoEligibleVoters
	}
	return votes, nil
}

// CollectReadiness reports whether every non-chairperson slot is filled. For
// DATA_ACCESS and RESEARCH_PURPOSE elections readiness spans the full pair;
// for TRANSLATE_CONSENT it covers the single election. DATASET_OWNER
// elections have no collect step.
func (uc VoteUseCase) CollectReadiness(ctx context.Context, electionID string) (bool, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return false, err
	}
	elections, err := uc.readinessScope(ctx, election)
	if err != nil {
		return false, err
	}
	for _, member := range elections {
		votes, err := uc.Votes.ListVotesByElection(ctx, member.ElectionID)
		if err != nil {
			return false, err
		}
		for _, vote := range votes {
			if vote.Pending() && vote.Type != entities.VoteTypeChairperson {
				return false, nil
			}
		}
	}
	return true, nil
}

// NotifyCollectIfReady runs the readiness check and emits the collect-ready
// notification at most once per election pair. Failures are logged; vote
// state is never rolled back over a notification problem.
func (uc VoteUseCase) NotifyCollectIfReady(ctx context.Context, electionID string) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		uc.logReadinessFailure(logger, electionID, err)
		return
	}
	if election.Type == entities.ElectionTypeDatasetOwner {
		return
	}
	ready, err := uc.CollectReadiness(ctx, election.ElectionID)
	if err != nil {
		uc.logReadinessFailure(logger, electionID, err)
		return
	}
	if !ready {
		return
	}

	accessID, rpID, err := uc.pairIDs(ctx, election)
	if err != nil {
		uc.logReadinessFailure(logger, electionID, err)
		return
	}
	if uc.Notifications != nil {
		exists, err := uc.Notifications.CollectNotificationExists(ctx, accessID, rpID)
		if err != nil {
			uc.logReadinessFailure(logger, electionID, err)
			return
		}
		if exists {
			return
		}
	}

	now := uc.now()
	if uc.Notifications != nil {
		if err := uc.Notifications.RecordCollectNotification(ctx, accessID, rpID, now); err != nil {
			uc.logReadinessFailure(logger, electionID, err)
			return
		}
	}
	emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.collect_ready", election.ReferenceID, now, map[string]any{
		"election_id":    accessID,
		"rp_election_id": rpID,
		"election_type":  string(election.Type),
	})
	logger.Info("collect readiness reached",
		"event", "vote_collect_ready",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", accessID,
		"rp_election_id", rpID,
	)
}

func (uc VoteUseCase) insertSlot(
	ctx context.Context,
	electionID string,
	userID string,
	voteType entities.VoteType,
) (entities.Vote, error) {
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	return uc.Votes.InsertVote(ctx, entities.Vote{
		VoteID:     voteID,
		ElectionID: electionID,
		UserID:     userID,
		Type:       voteType,
	})
}

// readinessScope resolves which elections a readiness check must cover.
func (uc VoteUseCase) readinessScope(
	ctx context.Context,
	election entities.Election,
) ([]entities.Election, error) {
	switch election.Type {
	case entities.ElectionTypeTranslateConsent:
		return []entities.Election{election}, nil
	case entities.ElectionTypeDataAccess, entities.ElectionTypeResearchPurpose:
		accessID, rpID, err := uc.pairIDs(ctx, election)
		if err != nil {
			return nil, err
		}
		scope := []entities.Election{election}
		for _, id := range []string{accessID, rpID} {
			if id == election.ElectionID || id == "" {
				continue
			}
			paired, err := uc.Elections.GetElection(ctx, id)
			if err != nil {
				return nil, err
			}
			scope = append(scope, paired)
		}
		return scope, nil
	default:
		return nil, domainerrors.ErrCollectConditionUnmetType
	}
}

// pairIDs returns the (access, rp) election IDs for either side of a pair.
// Unpaired elections report themselves as the access side.
func (uc VoteUseCase) pairIDs(ctx context.Context, election entities.Election) (string, string, error) {
	switch election.Type {
	case entities.ElectionTypeDataAccess:
		rpID, found, err := uc.Linkage.RPElectionForAccess(ctx, election.ElectionID)
		if err != nil {
			return "", "", err
		}
		if !found {
			return election.ElectionID, "", nil
		}
		return election.ElectionID, rpID, nil
	case entities.ElectionTypeResearchPurpose:
		accessID, found, err := uc.Linkage.AccessElectionForRP(ctx, election.ElectionID)
		if err != nil {
			return "", "", err
		}
		if !found {
			return election.ElectionID, "", nil
		}
		return accessID, election.ElectionID, nil
	default:
		return election.ElectionID, "", nil
	}
}

func (uc VoteUseCase) logReadinessFailure(logger *slog.Logger, electionID string, err error) {
	logger.Error("collect readiness check failed",
		"event", "vote_collect_readiness_failed",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", electionID,
		"error", err.Error(),
	)
}

func (uc VoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc VoteUseCase) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.UnitOfWork == nil {
		return fn(ctx)
	}
	return uc.UnitOfWork.InTransaction(ctx, fn)
}

// resolveCommitteeScope maps an election to the committee whose reviewers
// vote on it: the consent's committee for TRANSLATE_CONSENT, the first
// referenced dataset's committee otherwise.
func resolveCommitteeScope(
	ctx context.Context,
	references ports.ReferenceRepository,
	electionType entities.ElectionType,
	referenceID string,
) (string, error) {
	if electionType == entities.ElectionTypeTranslateConsent {
		consent, err := references.GetConsent(ctx, referenceID)
		if err != nil {
			return "", err
		}
		return consent.CommitteeID, nil
	}
	dar, err := references.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return "", err
	}
	if len(dar.DatasetIDs) == 0 {
		return "", nil
	}
	dataset, err := references.GetDataset(ctx, dar.DatasetIDs[0])
	if err != nil {
		return "", err
	}
	return dataset.CommitteeID, nil
}
