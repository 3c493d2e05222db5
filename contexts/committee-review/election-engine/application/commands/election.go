package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "oversight/contexts/committee-review/election-engine/application"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"
)

// VoteProvisioner creates the pending vote rows for a freshly opened
// election. VoteUseCase is the in-process implementation.
type VoteProvisioner interface {
	ProvisionVotes(ctx context.Context, election entities.Election, manualReview bool) ([]entities.Vote, error)
	ProvisionDataOwnerVotes(ctx context.Context, election entities.Election) ([]entities.Vote, error)
}

// TransitionCommand carries a status transition request. FinalVote, when
// supplied, is copied onto the chairperson vote as the manual override
// carrier. Archived is only honored while or after CLOSED.
type TransitionCommand struct {
	ElectionID     string
	Status         string
	FinalVote      *bool
	FinalRationale string
	Archived       *bool
}

// CreateElectionResult reports the opened election, the paired
// research-purpose election for DATA_ACCESS creates, and the provisioned
// pending votes across both.
type CreateElectionResult struct {
	Election   entities.Election
	RPElection *entities.Election
	Votes      []entities.Vote
}

// ElectionUseCase orchestrates election creation, eligibility validation, and
// status transitions, cascading terminal statuses across paired elections.
type ElectionUseCase struct {
	Elections   ports.ElectionRepository
	Linkage     ports.LinkageRepository
	Votes       ports.VoteRepository
	References  ports.ReferenceRepository
	Eligibility ports.EligibilityProvider
	Match       ports.MatchProvider
	Provisioner VoteProvisioner
	Outbox      ports.OutboxWriter
	UnitOfWork  ports.UnitOfWork
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// electionTypeSpec is the per-type behavior table: creation precondition,
// snapshot source, and pairing rule. Adding an election type is one entry
// here instead of edits across every method.
type electionTypeSpec struct {
	precondition func(ctx context.Context, uc ElectionUseCase, referenceID string) error
	snapshot     func(ctx context.Context, uc ElectionUseCase, referenceID string, election *entities.Election) error
	pairedWithRP bool
	needsVoters  bool
}

var electionTypeSpecs = map[entities.ElectionType]electionTypeSpec{
	entities.ElectionTypeDataAccess: {
		precondition: validateDataAccessCreation,
		snapshot:     snapshotFromDar,
		pairedWithRP: true,
		needsVoters:  true,
	},
	entities.ElectionTypeResearchPurpose: {
		precondition: validateDarExists,
		snapshot:     snapshotFromDar,
		needsVoters:  true,
	},
	entities.ElectionTypeTranslateConsent: {
		precondition: validateConsentExists,
		snapshot:     snapshotFromConsent,
		needsVoters:  true,
	},
}

// Create opens a new election for the given reference, enforcing the
// duplicate-open guard, the consent gate for DATA_ACCESS, dataset health,
// and reviewer eligibility before any row is written. DATA_ACCESS creates
// also open the paired RESEARCH_PURPOSE election in the same transaction.
func (uc ElectionUseCase) Create(
	ctx context.Context,
	electionType entities.ElectionType,
	referenceID string,
) (CreateElectionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	referenceID = strings.TrimSpace(referenceID)
	logger.Info("election create started",
		"event", "election_create_started",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_type", string(electionType),
		"reference_id", referenceID,
	)
	if !electionType.Valid() {
		return CreateElectionResult{}, domainerrors.ErrInvalidElectionType
	}
	if electionType == entities.ElectionTypeDatasetOwner {
		// Owner elections carry a dataset id and are opened one per dataset
		// by LinkageUseCase.ProvisionDatasetOwnerElections.
		return CreateElectionResult{}, domainerrors.ErrDatasetOwnerDirectCreate
	}
	if referenceID == "" {
		return CreateElectionResult{}, domainerrors.ErrReferenceNotFound
	}
	spec := electionTypeSpecs[electionType]

	if _, exists, err := uc.Elections.GetOpenElection(ctx, referenceID, electionType); err != nil {
		return CreateElectionResult{}, err
	} else if exists {
		logger.Warn("election create rejected, open election exists",
			"event", "election_create_duplicate_open",
			"module", "committee-review/election-engine",
			"layer", "application",
			"election_type", string(electionType),
			"reference_id", referenceID,
		)
		return CreateElectionResult{}, domainerrors.ErrOpenElectionExists
	}
	if err := spec.precondition(ctx, uc, referenceID); err != nil {
		return CreateElectionResult{}, err
	}
	if spec.needsVoters {
		if err := uc.validateAvailableVoters(ctx, electionType, referenceID); err != nil {
			return CreateElectionResult{}, err
		}
	}

	manualReview := false
	if electionType == entities.ElectionTypeDataAccess {
		var err error
		manualReview, err = uc.resolveManualReview(ctx, referenceID)
		if err != nil {
			return CreateElectionResult{}, err
		}
	}

	now := uc.now()
	election := entities.Election{
		Type:        electionType,
		ReferenceID: referenceID,
		Status:      entities.ElectionStatusOpen,
		CreateDate:  now,
		LastUpdate:  now,
	}
	if err := spec.snapshot(ctx, uc, referenceID, &election); err != nil {
		return CreateElectionResult{}, err
	}

	result := CreateElectionResult{}
	err := uc.inTransaction(ctx, func(txCtx context.Context) error {
		electionID, err := uc.IDGen.NewID(txCtx)
		if err != nil {
			return err
		}
		election.ElectionID = electionID
		inserted, err := uc.Elections.InsertElection(txCtx, election)
		if err != nil {
			return err
		}
		result.Election = inserted

		votes, err := uc.provisionVotes(txCtx, inserted, manualReview)
		if err != nil {
			return err
		}
		result.Votes = votes

		if spec.pairedWithRP {
			rpID, err := uc.IDGen.NewID(txCtx)
			if err != nil {
				return err
			}
			rp := inserted
			rp.ElectionID = rpID
			rp.Type = entities.ElectionTypeResearchPurpose
			rpInserted, err := uc.Elections.InsertElection(txCtx, rp)
			if err != nil {
				return err
			}
			if err := uc.Linkage.InsertAccessRPPair(txCtx, inserted.ElectionID, rpInserted.ElectionID); err != nil {
				return err
			}
			rpVotes, err := uc.provisionVotes(txCtx, rpInserted, manualReview)
			if err != nil {
				return err
			}
			result.RPElection = &rpInserted
			result.Votes = append(result.Votes, rpVotes...)
		}
		return uc.References.TouchSortDate(txCtx, referenceID, now)
	})
	if err != nil {
		return CreateElectionResult{}, err
	}

	emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.opened", referenceID, now, map[string]any{
		"election_id":   result.Election.ElectionID,
		"election_type": string(electionType),
		"manual_review": manualReview,
		"vote_count":    len(result.Votes),
	})
	logger.Info("election created",
		"event", "election_created",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", result.Election.ElectionID,
		"election_type", string(electionType),
		"reference_id", referenceID,
		"vote_count", len(result.Votes),
	)
	return result, nil
}

// Transition moves an election between statuses. Terminal statuses stamp the
// final-vote date and cascade to the paired access/RP sibling; a supplied
// final vote is copied onto the chairperson vote.
func (uc ElectionUseCase) Transition(ctx context.Context, cmd TransitionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	status, ok := entities.ParseElectionStatus(cmd.Status)
	if !ok {
		return entities.Election{}, domainerrors.ErrInvalidStatus
	}
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Election{}, err
	}
	if status != election.Status && election.Status.Terminal() {
		return entities.Election{}, domainerrors.ErrUnsupportedTransition
	}
	if cmd.Archived != nil && *cmd.Archived &&
		status != entities.ElectionStatusClosed && election.Status != entities.ElectionStatusClosed {
		return entities.Election{}, domainerrors.ErrUnsupportedTransition
	}

	now := uc.now()
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		if status.Terminal() && !election.Status.Terminal() {
			finalVoteDate := now
			election.FinalVoteDate = &finalVoteDate
			if err := uc.cascadeToPaired(txCtx, election, status, now); err != nil {
				return err
			}
		}
		if cmd.FinalVote != nil {
			election.FinalVote = cmd.FinalVote
			election.FinalRationale = cmd.FinalRationale
			if err := uc.copyFinalVoteToChair(txCtx, election, cmd.FinalVote, cmd.FinalRationale, now); err != nil {
				return err
			}
		}
		if cmd.Archived != nil && *cmd.Archived {
			archivedAt := now
			election.Archived = true
			election.ArchivedAt = &archivedAt
		}
		election.Status = status
		election.LastUpdate = now
		if err := uc.Elections.UpdateElection(txCtx, election); err != nil {
			return err
		}
		return uc.References.TouchSortDate(txCtx, election.ReferenceID, now)
	})
	if err != nil {
		return entities.Election{}, err
	}

	if status.Terminal() {
		emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.resolved", election.ReferenceID, now, map[string]any{
			"election_id":   election.ElectionID,
			"election_type": string(election.Type),
			"status":        string(status),
			"final_vote":    election.FinalVote,
		})
	}
	logger.Info("election transitioned",
		"event", "election_transitioned",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", election.ElectionID,
		"status", string(status),
		"archived", election.Archived,
	)
	return election, nil
}

// CloseDataOwnerApproval closes a DATASET_OWNER election, deriving its final
// vote from the data-owner votes: approved only when no owner voted no or
// flagged concerns. Closing the last open sibling emits the
// datasets-reviewed notification for the DAR.
func (uc ElectionUseCase) CloseDataOwnerApproval(ctx context.Context, electionID string) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	if election.Type != entities.ElectionTypeDatasetOwner {
		return entities.Election{}, domainerrors.ErrNotDatasetOwnerElection
	}
	ownerVotes, err := uc.Votes.ListVotesByElectionAndType(ctx, election.ElectionID, entities.VoteTypeDataOwner)
	if err != nil {
		return entities.Election{}, err
	}
	approved := true
	for _, vote := range ownerVotes {
		if vote.Rejecting() {
			approved = false
			break
		}
	}

	now := uc.now()
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		finalVoteDate := now
		election.FinalVote = &approved
		election.FinalVoteDate = &finalVoteDate
		election.Status = entities.ElectionStatusClosed
		election.LastUpdate = now
		return uc.Elections.UpdateElection(txCtx, election)
	})
	if err != nil {
		return entities.Election{}, err
	}

	siblings, err := uc.Elections.ListLastDatasetElections(ctx, election.ReferenceID)
	if err != nil {
		logger.Error("sibling dataset election lookup failed",
			"event", "election_dataset_sibling_lookup_failed",
			"module", "committee-review/election-engine",
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return election, nil
	}
	if allClosed(siblings) {
		emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.datasets_reviewed", election.ReferenceID, now, map[string]any{
			"reference_id": election.ReferenceID,
		})
	}
	logger.Info("data owner election closed",
		"event", "election_data_owner_closed",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", election.ElectionID,
		"approved", approved,
	)
	return election, nil
}

// FinalizeDataAccessElection derives the final access vote from the FINAL
// votes (any single approval approves) and stores it on the election.
// Approval emits the researcher/custodian notification request.
func (uc ElectionUseCase) FinalizeDataAccessElection(ctx context.Context, electionID string) (entities.Election, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	finalVotes, err := uc.Votes.ListVotesByElectionAndType(ctx, election.ElectionID, entities.VoteTypeFinal)
	if err != nil {
		return entities.Election{}, err
	}
	if len(finalVotes) == 0 {
		finalVotes, err = uc.Votes.ListVotesByElectionAndType(ctx, election.ElectionID, entities.VoteTypeChairperson)
		if err != nil {
			return entities.Election{}, err
		}
	}
	approved := false
	for _, vote := range finalVotes {
		if vote.Value != nil && *vote.Value {
			approved = true
			break
		}
	}

	now := uc.now()
	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		election.FinalVote = &approved
		election.LastUpdate = now
		return uc.Elections.UpdateElection(txCtx, election)
	})
	if err != nil {
		return entities.Election{}, err
	}

	if approved {
		emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.access_approved", election.ReferenceID, now, map[string]any{
			"election_id":  election.ElectionID,
			"reference_id": election.ReferenceID,
		})
	}
	return election, nil
}

// Delete is the administrative purge of an election, its votes, and the
// paired research-purpose election.
func (uc ElectionUseCase) Delete(ctx context.Context, referenceID string, electionID string) error {
	logger := application.ResolveLogger(uc.Logger)
	elections, err := uc.Elections.ListElectionsByReference(ctx, strings.TrimSpace(referenceID))
	if err != nil {
		return err
	}
	if len(elections) == 0 {
		return domainerrors.ErrElectionNotFound
	}
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return err
	}

	err = uc.inTransaction(ctx, func(txCtx context.Context) error {
		if election.Type == entities.ElectionTypeDataAccess {
			rpID, found, err := uc.Linkage.RPElectionForAccess(txCtx, election.ElectionID)
			if err != nil {
				return err
			}
			if found {
				if err := uc.Linkage.DeleteAccessRPPair(txCtx, election.ElectionID); err != nil {
					return err
				}
				if err := uc.Votes.DeleteVotesByElection(txCtx, rpID); err != nil {
					return err
				}
				if err := uc.Elections.DeleteElection(txCtx, rpID); err != nil {
					return err
				}
			}
		}
		if err := uc.Votes.DeleteVotesByElection(txCtx, election.ElectionID); err != nil {
			return err
		}
		return uc.Elections.DeleteElection(txCtx, election.ElectionID)
	})
	if err != nil {
		return err
	}
	logger.Info("election deleted",
		"event", "election_deleted",
		"module", "committee-review/election-engine",
		"layer", "application",
		"election_id", election.ElectionID,
		"reference_id", election.ReferenceID,
	)
	return nil
}

// CancelAndReopenConsentElections cancels every open TRANSLATE_CONSENT
// election and opens a fresh one per reference, used when the translation
// rules change and pending consent reviews must restart.
func (uc ElectionUseCase) CancelAndReopenConsentElections(ctx context.Context) ([]entities.Election, error) {
	open, err := uc.Elections.ListElectionsByTypeAndStatus(ctx,
		entities.ElectionTypeTranslateConsent, entities.ElectionStatusOpen)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	for _, election := range open {
		election.Status = entities.ElectionStatusCanceled
		finalVoteDate := now
		election.FinalVoteDate = &finalVoteDate
		election.LastUpdate = now
		err := uc.inTransaction(ctx, func(txCtx context.Context) error {
			if err := uc.Elections.UpdateElection(txCtx, election); err != nil {
				return err
			}
			return uc.References.TouchSortDate(txCtx, election.ReferenceID, now)
		})
		if err != nil {
			return nil, err
		}
	}

	reopened := make([]entities.Election, 0, len(open))
	for _, election := range open {
		result, err := uc.Create(ctx, entities.ElectionTypeTranslateConsent, election.ReferenceID)
		if err != nil {
			return nil, err
		}
		reopened = append(reopened, result.Election)
	}
	return reopened, nil
}

func (uc ElectionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc ElectionUseCase) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.UnitOfWork == nil {
		return fn(ctx)
	}
	if err := uc.UnitOfWork.InTransaction(ctx, fn); err != nil {
		if domainerrors.KindOf(err) != domainerrors.KindUnknown {
			return err
		}
		return fmt.Errorf("%w: %v", domainerrors.ErrTransactionFailed, err)
	}
	return nil
}

func (uc ElectionUseCase) provisionVotes(
	ctx context.Context,
	election entities.Election,
	manualReview bool,
) ([]entities.Vote, error) {
	if uc.Provisioner == nil {
		return nil, nil
	}
	return uc.Provisioner.ProvisionVotes(ctx, election, manualReview)
}

func (uc ElectionUseCase) cascadeToPaired(
	ctx context.Context,
	election entities.Election,
	status entities.ElectionStatus,
	now time.Time,
) error {
	var (
		pairedID string
		found    bool
		err      error
	)
	switch election.Type {
	case entities.ElectionTypeDataAccess:
		pairedID, found, err = uc.Linkage.RPElectionForAccess(ctx, election.ElectionID)
	case entities.ElectionTypeResearchPurpose:
		pairedID, found, err = uc.Linkage.AccessElectionForRP(ctx, election.ElectionID)
	default:
		return nil
	}
	if err != nil || !found {
		return err
	}
	paired, err := uc.Elections.GetElection(ctx, pairedID)
	if err != nil {
		return err
	}
	if paired.Status.Terminal() {
		return nil
	}
	finalVoteDate := now
	paired.Status = status
	paired.FinalVoteDate = &finalVoteDate
	paired.LastUpdate = now
	return uc.Elections.UpdateElection(ctx, paired)
}

func (uc ElectionUseCase) copyFinalVoteToChair(
	ctx context.Context,
	election entities.Election,
	value *bool,
	rationale string,
	now time.Time,
) error {
	chairVotes, err := uc.Votes.ListVotesByElectionAndType(ctx, election.ElectionID, entities.VoteTypeChairperson)
	if err != nil {
		return err
	}
	for _, chairVote := range chairVotes {
		chairVote.Value = value
		chairVote.Rationale = rationale
		stamp := now
		if chairVote.CreateDate == nil {
			chairVote.CreateDate = &stamp
		}
		chairVote.UpdateDate = &stamp
		if err := uc.Votes.UpdateVote(ctx, chairVote); err != nil {
			return err
		}
	}
	return nil
}

func (uc ElectionUseCase) validateAvailableVoters(
	ctx context.Context,
	electionType entities.ElectionType,
	referenceID string,
) error {
	scope, err := resolveCommitteeScope(ctx, uc.References, electionType, referenceID)
	if err != nil {
		return err
	}
	voters, err := uc.Eligibility.EnabledVoters(ctx, scope)
	if err != nil {
		return err
	}
	hasChair, hasMember := false, false
	for _, voter := range voters {
		if !voter.Enabled {
			continue
		}
		if voter.Chairperson() {
			hasChair = true
		} else {
			hasMember = true
		}
	}
	if !hasChair || !hasMember {
		return domainerrors.ErrNoEligibleVoters
	}
	return nil
}

func (uc ElectionUseCase) resolveManualReview(ctx context.Context, referenceID string) (bool, error) {
	dar, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return false, err
	}
	if !dar.HasStructuredRestriction() {
		return true, nil
	}
	if uc.Match == nil {
		return false, nil
	}
	result, err := uc.Match.Match(ctx, dar.UseRestriction, referenceID)
	if err != nil || result.Failed {
		// A match-service outage falls back to manual review rather than
		// blocking election creation.
		logger := application.ResolveLogger(uc.Logger)
		logger.Warn("use-restriction match unavailable, requiring manual review",
			"event", "election_match_unavailable",
			"module", "committee-review/election-engine",
			"layer", "application",
			"reference_id", referenceID,
		)
		return true, nil
	}
	return !result.Matched, nil
}

func allClosed(elections []entities.Election) bool {
	for _, election := range elections {
		if election.Status != entities.ElectionStatusClosed {
			return false
		}
	}
	return true
}

// validateDataAccessCreation enforces the DATA_ACCESS creation gates:
// referenced datasets must be active (fully disabled DARs are rejected,
// partially disabled ones are trimmed), and the consent behind the datasets
// must hold a closed, chair-approved TRANSLATE_CONSENT election.
func validateDataAccessCreation(ctx context.Context, uc ElectionUseCase, referenceID string) error {
	dar, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return err
	}
	datasets, err := uc.References.ListDatasets(ctx, dar.DatasetIDs)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		return domainerrors.ErrDatasetNotFound
	}
	active, err := uc.dropDisabledDatasets(ctx, dar, datasets)
	if err != nil {
		return err
	}
	return uc.validateConsentGate(ctx, active[0])
}

func validateDarExists(ctx context.Context, uc ElectionUseCase, referenceID string) error {
	_, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	return err
}

func validateConsentExists(ctx context.Context, uc ElectionUseCase, referenceID string) error {
	_, err := uc.References.GetConsent(ctx, referenceID)
	return err
}

func (uc ElectionUseCase) dropDisabledDatasets(
	ctx context.Context,
	dar entities.DataAccessRequest,
	datasets []entities.Dataset,
) ([]entities.Dataset, error) {
	var active []entities.Dataset
	var disabledIDs []string
	for _, dataset := range datasets {
		if dataset.Active {
			active = append(active, dataset)
		} else {
			disabledIDs = append(disabledIDs, dataset.DatasetID)
		}
	}
	if len(disabledIDs) == 0 {
		return active, nil
	}

	now := uc.now()
	emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.disabled_datasets", dar.ReferenceID, now, map[string]any{
		"dar_code":    dar.DarCode,
		"researcher":  dar.ResearcherID,
		"dataset_ids": disabledIDs,
	})
	if len(active) == 0 {
		return nil, domainerrors.ErrInactiveDatasets
	}

	activeIDs := make([]string, 0, len(active))
	for _, dataset := range active {
		activeIDs = append(activeIDs, dataset.DatasetID)
	}
	dar.DatasetIDs = activeIDs
	if err := uc.References.SaveDataAccessRequest(ctx, dar); err != nil {
		return nil, err
	}
	return active, nil
}

func (uc ElectionUseCase) validateConsentGate(ctx context.Context, dataset entities.Dataset) error {
	consent, err := uc.References.ConsentForDataset(ctx, dataset.DatasetID)
	if err != nil {
		return err
	}
	gate, found, err := uc.Elections.GetLastElectionByStatus(ctx,
		consent.ConsentID, entities.ElectionTypeTranslateConsent, entities.ElectionStatusClosed)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrUseLimitationNotApproved
	}
	openCount, err := uc.Elections.CountOpenElectionsByReference(ctx, consent.ConsentID)
	if err != nil {
		return err
	}
	if openCount > 0 {
		return domainerrors.ErrUseLimitationNotApproved
	}
	chairVotes, err := uc.Votes.ListVotesByElectionAndType(ctx, gate.ElectionID, entities.VoteTypeChairperson)
	if err != nil {
		return err
	}
	for _, chairVote := range chairVotes {
		if chairVote.Value != nil && *chairVote.Value {
			return nil
		}
	}
	return domainerrors.ErrUseLimitationNotApproved
}

func snapshotFromDar(ctx context.Context, uc ElectionUseCase, referenceID string, election *entities.Election) error {
	dar, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return err
	}
	election.UseRestriction = dar.UseRestriction
	election.TranslatedUseRestriction = dar.TranslatedUseRestriction
	return nil
}

func snapshotFromConsent(ctx context.Context, uc ElectionUseCase, referenceID string, election *entities.Election) error {
	consent, err := uc.References.GetConsent(ctx, referenceID)
	if err != nil {
		return err
	}
	election.UseRestriction = consent.UseRestriction
	election.TranslatedUseRestriction = consent.TranslatedUseRestriction
	return nil
}
