package queries

import (
	"context"
	"log/slog"
	"strings"

	application "oversight/contexts/committee-review/election-engine/application"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"
)

// ElectionStatusUseCase serves the read-only election lookups and the derived
// dataset-approval status of a DAR.
type ElectionStatusUseCase struct {
	Elections  ports.ElectionRepository
	Votes      ports.VoteRepository
	References ports.ReferenceRepository
	Logger     *slog.Logger
}

// DescribeElection returns one election by ID.
func (uc ElectionStatusUseCase) DescribeElection(ctx context.Context, electionID string) (entities.Election, error) {
	return uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
}

// OpenElection returns the open election of the given type for a reference.
func (uc ElectionStatusUseCase) OpenElection(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, error) {
	if !electionType.Valid() {
		return entities.Election{}, domainerrors.ErrInvalidElectionType
	}
	election, found, err := uc.Elections.GetOpenElection(ctx, strings.TrimSpace(referenceID), electionType)
	if err != nil {
		return entities.Election{}, err
	}
	if !found {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

// LastElection returns the most recent election of the given type for a
// reference, regardless of status.
func (uc ElectionStatusUseCase) LastElection(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, error) {
	if !electionType.Valid() {
		return entities.Election{}, domainerrors.ErrInvalidElectionType
	}
	election, found, err := uc.Elections.GetLastElection(ctx, strings.TrimSpace(referenceID), electionType)
	if err != nil {
		return entities.Election{}, err
	}
	if !found {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

// ConsentElection returns the latest TRANSLATE_CONSENT election for a
// consent, the record the DATA_ACCESS consent gate inspects.
func (uc ElectionStatusUseCase) ConsentElection(ctx context.Context, consentID string) (entities.Election, error) {
	if _, err := uc.References.GetConsent(ctx, strings.TrimSpace(consentID)); err != nil {
		return entities.Election{}, err
	}
	return uc.LastElection(ctx, consentID, entities.ElectionTypeTranslateConsent)
}

// DescribeElectionsByReference returns every election recorded for a DAR or
// consent, newest first per the repository ordering.
func (uc ElectionStatusUseCase) DescribeElectionsByReference(
	ctx context.Context,
	referenceID string,
) ([]entities.Election, error) {
	elections, err := uc.Elections.ListElectionsByReference(ctx, strings.TrimSpace(referenceID))
	if err != nil {
		return nil, err
	}
	if len(elections) == 0 {
		return nil, domainerrors.ErrElectionNotFound
	}
	return elections, nil
}

// IsDatasetElectionOpen reports whether any DATASET_OWNER election is still
// open anywhere, the signal admin consoles use to show the review badge.
func (uc ElectionStatusUseCase) IsDatasetElectionOpen(ctx context.Context) (bool, error) {
	open, err := uc.Elections.ListElectionsByTypeAndStatus(ctx,
		entities.ElectionTypeDatasetOwner, entities.ElectionStatusOpen)
	if err != nil {
		return false, err
	}
	return len(open) > 0, nil
}

// DarDatasetElectionStatus derives the owner-approval state of a DAR from
// the latest DATASET_OWNER election per dataset. No dataset requiring
// approval yields APPROVAL_NOT_NEEDED; a still-open DATA_ACCESS election or
// a missing or open owner election yields DS_PENDING; any denial yields
// DS_DENIED; otherwise DS_APPROVED.
func (uc ElectionStatusUseCase) DarDatasetElectionStatus(
	ctx context.Context,
	referenceID string,
) (entities.DatasetApprovalStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	referenceID = strings.TrimSpace(referenceID)
	dar, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return "", err
	}
	datasets, err := uc.References.ListDatasets(ctx, dar.DatasetIDs)
	if err != nil {
		return "", err
	}
	needing := 0
	for _, dataset := range datasets {
		if dataset.NeedsApproval {
			needing++
		}
	}
	if needing == 0 {
		return entities.DatasetApprovalNotNeeded, nil
	}

	// Owner approval is unsettled while the DAR's own access election is open.
	_, accessOpen, err := uc.Elections.GetOpenElection(ctx, referenceID, entities.ElectionTypeDataAccess)
	if err != nil {
		return "", err
	}
	if accessOpen {
		return entities.DatasetApprovalPending, nil
	}

	elections, err := uc.Elections.ListLastDatasetElections(ctx, referenceID)
	if err != nil {
		return "", err
	}
	if len(elections) < needing {
		return entities.DatasetApprovalPending, nil
	}
	status := entities.DatasetApprovalApproved
	for _, election := range elections {
		if election.Status != entities.ElectionStatusClosed || election.FinalVote == nil {
			return entities.DatasetApprovalPending, nil
		}
		if !*election.FinalVote {
			status = entities.DatasetApprovalDenied
		}
	}
	logger.Debug("dataset approval status derived",
		"event", "status_dataset_approval_derived",
		"module", "committee-review/election-engine",
		"layer", "application",
		"reference_id", referenceID,
		"status", string(status),
	)
	return status, nil
}
