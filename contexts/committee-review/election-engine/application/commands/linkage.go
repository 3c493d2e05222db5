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

// LinkageUseCase serves the access/RP pair lookups and opens the per-dataset
// owner-approval elections a DAR needs before its access review concludes.
type LinkageUseCase struct {
	Elections   ports.ElectionRepository
	Linkage     ports.LinkageRepository
	References  ports.ReferenceRepository
	Provisioner VoteProvisioner
	Outbox      ports.OutboxWriter
	UnitOfWork  ports.UnitOfWork
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// PairedRPElection returns the research-purpose election linked to a
// DATA_ACCESS election.
func (uc LinkageUseCase) PairedRPElection(ctx context.Context, accessElectionID string) (entities.Election, error) {
	rpID, found, err := uc.Linkage.RPElectionForAccess(ctx, strings.TrimSpace(accessElectionID))
	if err != nil {
		return entities.Election{}, err
	}
	if !found {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return uc.Elections.GetElection(ctx, rpID)
}

// PairedAccessElection returns the DATA_ACCESS election linked to a
// research-purpose election.
func (uc LinkageUseCase) PairedAccessElection(ctx context.Context, rpElectionID string) (entities.Election, error) {
	accessID, found, err := uc.Linkage.AccessElectionForRP(ctx, strings.TrimSpace(rpElectionID))
	if err != nil {
		return entities.Election{}, err
	}
	if !found {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return uc.Elections.GetElection(ctx, accessID)
}

// ProvisionDatasetOwnerElections opens one DATASET_OWNER election per
// approval-requiring dataset on the DAR that does not already have one open.
// The call is idempotent per (reference, dataset) and returns only the
// elections it opened.
func (uc LinkageUseCase) ProvisionDatasetOwnerElections(
	ctx context.Context,
	referenceID string,
) ([]entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	referenceID = strings.TrimSpace(referenceID)
	dar, err := uc.References.GetDataAccessRequest(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	datasets, err := uc.References.ListDatasets(ctx, dar.DatasetIDs)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	var opened []entities.Election
	for _, dataset := range datasets {
		if !dataset.NeedsApproval || !dataset.Active {
			continue
		}
		if _, exists, err := uc.Elections.GetOpenElectionByDataset(ctx, referenceID, dataset.DatasetID); err != nil {
			return nil, err
		} else if exists {
			continue
		}
		election := entities.Election{
			Type:                     entities.ElectionTypeDatasetOwner,
			ReferenceID:              referenceID,
			Status:                   entities.ElectionStatusOpen,
			DatasetID:                dataset.DatasetID,
			UseRestriction:           dar.UseRestriction,
			TranslatedUseRestriction: dar.TranslatedUseRestriction,
			CreateDate:               now,
			LastUpdate:               now,
		}
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
			election = inserted
			if uc.Provisioner == nil {
				return nil
			}
			_, err = uc.Provisioner.ProvisionDataOwnerVotes(txCtx, inserted)
			return err
		})
		if err != nil {
			return nil, err
		}
		opened = append(opened, election)
		emitEvent(ctx, uc.Outbox, uc.IDGen, uc.Logger, "election.owner_review_opened", referenceID, now, map[string]any{
			"election_id": election.ElectionID,
			"dataset_id":  dataset.DatasetID,
			"dar_code":    dar.DarCode,
		})
	}
	logger.Info("dataset owner elections provisioned",
		"event", "linkage_owner_elections_provisioned",
		"module", "committee-review/election-engine",
		"layer", "application",
		"reference_id", referenceID,
		"opened_count", len(opened),
	)
	return opened, nil
}

// ConsentGateOpen reports whether the consent behind a dataset still has any
// open election, which blocks new DATA_ACCESS reviews over that dataset.
func (uc LinkageUseCase) ConsentGateOpen(ctx context.Context, datasetID string) (bool, error) {
	consent, err := uc.References.ConsentForDataset(ctx, strings.TrimSpace(datasetID))
	if err != nil {
		return false, err
	}
	count, err := uc.Elections.CountOpenElectionsByReference(ctx, consent.ConsentID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (uc LinkageUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc LinkageUseCase) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.UnitOfWork == nil {
		return fn(ctx)
	}
	return uc.UnitOfWork.InTransaction(ctx, fn)
}
