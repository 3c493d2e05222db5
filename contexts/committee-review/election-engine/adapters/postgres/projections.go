package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"

	"gorm.io/gorm"
)

// Reference projections are maintained by the intake and catalog services;
// this adapter only reads them, except for the disabled-dataset write-back
// and the sort-date touch.

func (r *Repository) GetDataAccessRequest(ctx context.Context, referenceID string) (entities.DataAccessRequest, error) {
	var row darProjectionModel
	err := r.conn(ctx).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DataAccessRequest{}, domainerrors.ErrReferenceNotFound
		}
		return entities.DataAccessRequest{}, r.logError("election_repo_get_dar_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
		)
	}
	return row.toEntity()
}

func (r *Repository) SaveDataAccessRequest(ctx context.Context, dar entities.DataAccessRequest) error {
	row, err := darProjectionFromEntity(dar)
	if err != nil {
		return r.logError("election_repo_save_dar_marshal_failed", err,
			"reference_id", strings.TrimSpace(dar.ReferenceID),
		)
	}
	result := r.conn(ctx).
		Model(&darProjectionModel{}).
		Where("reference_id = ?", row.ReferenceID).
		Updates(map[string]any{
			"dataset_ids": row.DatasetIDs,
			"sort_date":   row.SortDate,
		})
	if result.Error != nil {
		return r.logError("election_repo_save_dar_failed", result.Error, "reference_id", row.ReferenceID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReferenceNotFound
	}
	return nil
}

func (r *Repository) GetConsent(ctx context.Context, consentID string) (entities.Consent, error) {
	var row consentProjectionModel
	err := r.conn(ctx).
		Where("consent_id = ?", strings.TrimSpace(consentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Consent{}, domainerrors.ErrConsentNotFound
		}
		return entities.Consent{}, r.logError("election_repo_get_consent_failed", err,
			"consent_id", strings.TrimSpace(consentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ConsentForDataset(ctx context.Context, datasetID string) (entities.Consent, error) {
	var row consentProjectionModel
	err := r.conn(ctx).
		Table("consents AS c").
		Select("c.*").
		Joins("JOIN datasets AS d ON d.consent_id = c.consent_id").
		Where("d.dataset_id = ?", strings.TrimSpace(datasetID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Consent{}, domainerrors.ErrConsentNotFound
		}
		return entities.Consent{}, r.logError("election_repo_consent_for_dataset_failed", err,
			"dataset_id", strings.TrimSpace(datasetID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetDataset(ctx context.Context, datasetID string) (entities.Dataset, error) {
	var row datasetProjectionModel
	err := r.conn(ctx).
		Where("dataset_id = ?", strings.TrimSpace(datasetID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Dataset{}, domainerrors.ErrDatasetNotFound
		}
		return entities.Dataset{}, r.logError("election_repo_get_dataset_failed", err,
			"dataset_id", strings.TrimSpace(datasetID),
		)
	}
	return row.toEntity()
}

func (r *Repository) ListDatasets(ctx context.Context, datasetIDs []string) ([]entities.Dataset, error) {
	if len(datasetIDs) == 0 {
		return nil, nil
	}
	trimmed := make([]string, 0, len(datasetIDs))
	for _, id := range datasetIDs {
		trimmed = append(trimmed, strings.TrimSpace(id))
	}
	var rows []datasetProjectionModel
	if err := r.conn(ctx).
		Where("dataset_id IN ?", trimmed).
		Order("dataset_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_datasets_failed", err)
	}
	datasets := make([]entities.Dataset, 0, len(rows))
	for _, row := range rows {
		dataset, err := row.toEntity()
		if err != nil {
			return nil, r.logError("election_repo_dataset_decode_failed", err, "dataset_id", row.DatasetID)
		}
		datasets = append(datasets, dataset)
	}
	return datasets, nil
}

func (r *Repository) TouchSortDate(ctx context.Context, referenceID string, at time.Time) error {
	id := strings.TrimSpace(referenceID)
	darUpdate := r.conn(ctx).
		Model(&darProjectionModel{}).
		Where("reference_id = ?", id).
		Update("sort_date", at.UTC())
	if darUpdate.Error != nil {
		return r.logError("election_repo_touch_dar_sort_failed", darUpdate.Error, "reference_id", id)
	}
	if darUpdate.RowsAffected > 0 {
		return nil
	}
	consentUpdate := r.conn(ctx).
		Model(&consentProjectionModel{}).
		Where("consent_id = ?", id).
		Update("sort_date", at.UTC())
	if consentUpdate.Error != nil {
		return r.logError("election_repo_touch_consent_sort_failed", consentUpdate.Error, "reference_id", id)
	}
	if consentUpdate.RowsAffected == 0 {
		return domainerrors.ErrReferenceNotFound
	}
	return nil
}

func (r *Repository) EnabledVoters(ctx context.Context, committeeID string) ([]entities.Reviewer, error) {
	tx := r.conn(ctx).Model(&reviewerProjectionModel{}).
		Where("enabled = ?", true)
	if strings.TrimSpace(committeeID) == "" {
		tx = tx.Where("committee_id IS NULL OR committee_id = ''")
	} else {
		tx = tx.Where("committee_id = ?", strings.TrimSpace(committeeID))
	}
	var rows []reviewerProjectionModel
	if err := tx.Order("user_id ASC").Find(&rows).Error; err != nil {
		if isUndefinedTable(err) {
			// The reviewer projection is optional in local development.
			return nil, nil
		}
		return nil, r.logError("election_repo_enabled_voters_failed", err,
			"committee_id", strings.TrimSpace(committeeID),
		)
	}
	voters := make([]entities.Reviewer, 0, len(rows))
	for _, row := range rows {
		voters = append(voters, row.toEntity())
	}
	return voters, nil
}

func (r *Repository) GetReviewer(ctx context.Context, userID string) (entities.Reviewer, error) {
	var row reviewerProjectionModel
	err := r.conn(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Reviewer{}, domainerrors.ErrReferenceNotFound
		}
		return entities.Reviewer{}, r.logError("election_repo_get_reviewer_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) CollectNotificationExists(
	ctx context.Context,
	accessElectionID string,
	rpElectionID string,
) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&collectNotificationModel{}).
		Where("access_election_id = ?", strings.TrimSpace(accessElectionID)).
		Where("rp_election_id = ?", strings.TrimSpace(rpElectionID)).
		Count(&count).Error; err != nil {
		return false, r.logError("election_repo_collect_notification_lookup_failed", err,
			"access_election_id", strings.TrimSpace(accessElectionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) RecordCollectNotification(
	ctx context.Context,
	accessElectionID string,
	rpElectionID string,
	at time.Time,
) error {
	row := collectNotificationModel{
		AccessElectionID: strings.TrimSpace(accessElectionID),
		RPElectionID:     strings.TrimSpace(rpElectionID),
		NotifiedAt:       at.UTC(),
	}
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("election_repo_collect_notification_record_failed", err,
			"access_election_id", row.AccessElectionID,
		)
	}
	return nil
}

type darProjectionModel struct {
	ReferenceID              string    `gorm:"column:reference_id;primaryKey"`
	DarCode                  string    `gorm:"column:dar_code"`
	ResearcherID             string    `gorm:"column:researcher_id"`
	DatasetIDs               []byte    `gorm:"column:dataset_ids"`
	UseRestriction           string    `gorm:"column:use_restriction"`
	TranslatedUseRestriction string    `gorm:"column:translated_use_restriction"`
	SortDate                 time.Time `gorm:"column:sort_date"`
}

func (darProjectionModel) TableName() string {
	return "data_access_requests"
}

func darProjectionFromEntity(dar entities.DataAccessRequest) (darProjectionModel, error) {
	datasetIDs, err := json.Marshal(dar.DatasetIDs)
	if err != nil {
		return darProjectionModel{}, err
	}
	return darProjectionModel{
		ReferenceID:              strings.TrimSpace(dar.ReferenceID),
		DarCode:                  strings.TrimSpace(dar.DarCode),
		ResearcherID:             strings.TrimSpace(dar.ResearcherID),
		DatasetIDs:               datasetIDs,
		UseRestriction:           dar.UseRestriction,
		TranslatedUseRestriction: dar.TranslatedUseRestriction,
		SortDate:                 dar.SortDate.UTC(),
	}, nil
}

func (m darProjectionModel) toEntity() (entities.DataAccessRequest, error) {
	var datasetIDs []string
	if len(m.DatasetIDs) > 0 {
		if err := json.Unmarshal(m.DatasetIDs, &datasetIDs); err != nil {
			return entities.DataAccessRequest{}, err
		}
	}
	return entities.DataAccessRequest{
		ReferenceID:              m.ReferenceID,
		DarCode:                  m.DarCode,
		ResearcherID:             m.ResearcherID,
		DatasetIDs:               datasetIDs,
		UseRestriction:           m.UseRestriction,
		TranslatedUseRestriction: m.TranslatedUseRestriction,
		SortDate:                 m.SortDate.UTC(),
	}, nil
}

type consentProjectionModel struct {
	ConsentID                string    `gorm:"column:consent_id;primaryKey"`
	Name                     string    `gorm:"column:name"`
	CommitteeID              string    `gorm:"column:committee_id"`
	UseRestriction           string    `gorm:"column:use_restriction"`
	TranslatedUseRestriction string    `gorm:"column:translated_use_restriction"`
	SortDate                 time.Time `gorm:"column:sort_date"`
}

func (consentProjectionModel) TableName() string {
	return "consents"
}

func (m consentProjectionModel) toEntity() entities.Consent {
	return entities.Consent{
		ConsentID:                m.ConsentID,
		Name:                     m.Name,
		CommitteeID:              m.CommitteeID,
		UseRestriction:           m.UseRestriction,
		TranslatedUseRestriction: m.TranslatedUseRestriction,
		SortDate:                 m.SortDate.UTC(),
	}
}

type datasetProjectionModel struct {
	DatasetID     string `gorm:"column:dataset_id;primaryKey"`
	ConsentID     string `gorm:"column:consent_id"`
	CommitteeID   string `gorm:"column:committee_id"`
	Name          string `gorm:"column:name"`
	Active        bool   `gorm:"column:active"`
	NeedsApproval bool   `gorm:"column:needs_approval"`
	OwnerUserIDs  []byte `gorm:"column:owner_user_ids"`
}

func (datasetProjectionModel) TableName() string {
	return "datasets"
}

func (m datasetProjectionModel) toEntity() (entities.Dataset, error) {
	var ownerIDs []string
	if len(m.OwnerUserIDs) > 0 {
		if err := json.Unmarshal(m.OwnerUserIDs, &ownerIDs); err != nil {
			return entities.Dataset{}, err
		}
	}
	return entities.Dataset{
		DatasetID:     m.DatasetID,
		ConsentID:     m.ConsentID,
		CommitteeID:   m.CommitteeID,
		Name:          m.Name,
		Active:        m.Active,
		NeedsApproval: m.NeedsApproval,
		OwnerUserIDs:  ownerIDs,
	}, nil
}

type reviewerProjectionModel struct {
	UserID      string `gorm:"column:user_id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	CommitteeID string `gorm:"column:committee_id"`
	Role        string `gorm:"column:role"`
	Enabled     bool   `gorm:"column:enabled"`
}

func (reviewerProjectionModel) TableName() string {
	return "reviewers"
}

func (m reviewerProjectionModel) toEntity() entities.Reviewer {
	return entities.Reviewer{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		CommitteeID: m.CommitteeID,
		Role:        entities.ReviewerRole(m.Role),
		Enabled:     m.Enabled,
	}
}

type collectNotificationModel struct {
	AccessElectionID string    `gorm:"column:access_election_id;primaryKey"`
	RPElectionID     string    `gorm:"column:rp_election_id;primaryKey"`
	NotifiedAt       time.Time `gorm:"column:notified_at"`
}

func (collectNotificationModel) TableName() string {
	return "election_collect_notifications"
}

var _ ports.ReferenceRepository = (*Repository)(nil)
var _ ports.EligibilityProvider = (*Repository)(nil)
var _ ports.NotificationLog = (*Repository)(nil)
