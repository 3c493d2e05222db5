package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository is the gorm-backed adapter for the election engine. All methods
// resolve their connection through conn so calls made inside InTransaction
// share one transaction.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type txContextKey struct{}

// InTransaction opens a gorm transaction and threads it through the context
// so every repository call inside fn joins it.
func (r *Repository) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) InsertElection(ctx context.Context, election entities.Election) (entities.Election, error) {
	row := electionModelFromEntity(election)
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		// The partial unique index on (reference_id, election_type) for OPEN
		// rows turns a concurrent duplicate create into a clean conflict.
		if isUniqueViolation(err) {
			return entities.Election{}, domainerrors.ErrOpenElectionExists
		}
		return entities.Election{}, r.logError("election_repo_insert_failed", err,
			"election_id", row.ID,
			"reference_id", row.ReferenceID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.conn(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	result := r.conn(ctx).
		Model(&electionModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"status":          row.Status,
			"final_vote":      row.FinalVote,
			"final_rationale": row.FinalRationale,
			"archived":        row.Archived,
			"archived_at":     row.ArchivedAt,
			"final_vote_date": row.FinalVoteDate,
			"last_update":     row.LastUpdate,
		})
	if result.Error != nil {
		return r.logError("election_repo_update_failed", result.Error, "election_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrElectionNotFound
	}
	return nil
}

func (r *Repository) DeleteElection(ctx context.Context, electionID string) error {
	result := r.conn(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		Delete(&electionModel{})
	if result.Error != nil {
		return r.logError("election_repo_delete_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrElectionNotFound
	}
	return nil
}

func (r *Repository) GetOpenElection(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, bool, error) {
	var row electionModel
	err := r.conn(ctx).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		Where("election_type = ?", string(electionType)).
		Where("status = ?", string(entities.ElectionStatusOpen)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, false, nil
		}
		return entities.Election{}, false, r.logError("election_repo_get_open_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
			"election_type", string(electionType),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetOpenElectionByDataset(
	ctx context.Context,
	referenceID string,
	datasetID string,
) (entities.Election, bool, error) {
	var row electionModel
	err := r.conn(ctx).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		Where("dataset_id = ?", strings.TrimSpace(datasetID)).
		Where("status = ?", string(entities.ElectionStatusOpen)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, false, nil
		}
		return entities.Election{}, false, r.logError("election_repo_get_open_by_dataset_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
			"dataset_id", strings.TrimSpace(datasetID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetLastElection(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, bool, error) {
	return r.lastElection(ctx, referenceID, electionType, "")
}

func (r *Repository) GetLastElectionByStatus(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
	status entities.ElectionStatus,
) (entities.Election, bool, error) {
	return r.lastElection(ctx, referenceID, electionType, status)
}

func (r *Repository) lastElection(
	ctx context.Context,
	referenceID string,
	electionType entities.ElectionType,
	status entities.ElectionStatus,
) (entities.Election, bool, error) {
	tx := r.conn(ctx).Model(&electionModel{}).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		Where("election_type = ?", string(electionType))
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var row electionModel
	err := tx.Order("create_date DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, false, nil
		}
		return entities.Election{}, false, r.logError("election_repo_get_last_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
			"election_type", string(electionType),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListLastDatasetElections(ctx context.Context, referenceID string) ([]entities.Election, error) {
	var rows []electionModel
	err := r.conn(ctx).
		Raw(`SELECT DISTINCT ON (dataset_id) *
		       FROM elections
		      WHERE reference_id = ?
		        AND election_type = ?
		      ORDER BY dataset_id, create_date DESC`,
			strings.TrimSpace(referenceID),
			string(entities.ElectionTypeDatasetOwner),
		).
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("election_repo_list_last_dataset_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
		)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListElectionsByTypeAndStatus(
	ctx context.Context,
	electionType entities.ElectionType,
	status entities.ElectionStatus,
) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.conn(ctx).
		Where("election_type = ?", string(electionType)).
		Where("status = ?", string(status)).
		Order("create_date DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_by_type_status_failed", err,
			"election_type", string(electionType),
			"status", string(status),
		)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListElectionsByReference(ctx context.Context, referenceID string) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.conn(ctx).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		Order("create_date DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_by_reference_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
		)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListUnfinalizedAccessElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.conn(ctx).
		Where("election_type = ?", string(entities.ElectionTypeDataAccess)).
		Where("status <> ?", string(entities.ElectionStatusCanceled)).
		Where("final_vote IS NULL").
		Order("create_date DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_unfinalized_access_failed", err)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) CountOpenElectionsByReference(ctx context.Context, referenceID string) (int, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&electionModel{}).
		Where("reference_id = ?", strings.TrimSpace(referenceID)).
		Where("status = ?", string(entities.ElectionStatusOpen)).
		Count(&count).Error; err != nil {
		return 0, r.logError("election_repo_count_open_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
		)
	}
	return int(count), nil
}

func (r *Repository) InsertAccessRPPair(ctx context.Context, accessElectionID string, rpElectionID string) error {
	row := accessRPLinkModel{
		AccessElectionID: strings.TrimSpace(accessElectionID),
		RPElectionID:     strings.TrimSpace(rpElectionID),
	}
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrOpenElectionExists
		}
		return r.logError("election_repo_insert_link_failed", err,
			"access_election_id", row.AccessElectionID,
			"rp_election_id", row.RPElectionID,
		)
	}
	return nil
}

func (r *Repository) DeleteAccessRPPair(ctx context.Context, accessElectionID string) error {
	result := r.conn(ctx).
		Where("access_election_id = ?", strings.TrimSpace(accessElectionID)).
		Delete(&accessRPLinkModel{})
	if result.Error != nil {
		return r.logError("election_repo_delete_link_failed", result.Error,
			"access_election_id", strings.TrimSpace(accessElectionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrElectionNotFound
	}
	return nil
}

func (r *Repository) RPElectionForAccess(ctx context.Context, accessElectionID string) (string, bool, error) {
	var row accessRPLinkModel
	err := r.conn(ctx).
		Where("access_election_id = ?", strings.TrimSpace(accessElectionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, r.logError("election_repo_rp_for_access_failed", err,
			"access_election_id", strings.TrimSpace(accessElectionID),
		)
	}
	return row.RPElectionID, true, nil
}

func (r *Repository) AccessElectionForRP(ctx context.Context, rpElectionID string) (string, bool, error) {
	var row accessRPLinkModel
	err := r.conn(ctx).
		Where("rp_election_id = ?", strings.TrimSpace(rpElectionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, r.logError("election_repo_access_for_rp_failed", err,
			"rp_election_id", strings.TrimSpace(rpElectionID),
		)
	}
	return row.AccessElectionID, true, nil
}

func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	row := voteModelFromEntity(vote)
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Vote{}, domainerrors.ErrInvalidVoteInput
		}
		return entities.Vote{}, r.logError("election_repo_insert_vote_failed", err,
			"vote_id", row.ID,
			"election_id", row.ElectionID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.conn(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("election_repo_get_vote_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	result := r.conn(ctx).
		Model(&voteModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"value":         row.Value,
			"rationale":     row.Rationale,
			"has_concerns":  row.HasConcerns,
			"reminder_sent": row.ReminderSent,
			"create_date":   row.CreateDate,
			"update_date":   row.UpdateDate,
		})
	if result.Error != nil {
		return r.logError("election_repo_update_vote_failed", result.Error, "vote_id", row.ID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) DeleteVote(ctx context.Context, voteID string) error {
	result := r.conn(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		Delete(&voteModel{})
	if result.Error != nil {
		return r.logError("election_repo_delete_vote_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) DeleteVotesByElection(ctx context.Context, electionID string) error {
	if err := r.conn(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Delete(&voteModel{}).Error; err != nil {
		return r.logError("election_repo_delete_votes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return nil
}

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.conn(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_votes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesByElectionAndType(
	ctx context.Context,
	electionID string,
	voteType entities.VoteType,
) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.conn(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("vote_type = ?", string(voteType)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_votes_by_type_failed", err,
			"election_id", strings.TrimSpace(electionID),
			"vote_type", string(voteType),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) GetVoteByElectionUserAndType(
	ctx context.Context,
	electionID string,
	userID string,
	voteType entities.VoteType,
) (entities.Vote, bool, error) {
	var row voteModel
	err := r.conn(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("vote_type = ?", string(voteType)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("election_repo_get_vote_by_user_type_failed", err,
			"election_id", strings.TrimSpace(electionID),
			"user_id", strings.TrimSpace(userID),
			"vote_type", string(voteType),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetVoteByReferenceUserAndType(
	ctx context.Context,
	referenceID string,
	userID string,
	voteType entities.VoteType,
) (entities.Vote, bool, error) {
	var row voteModel
	err := r.conn(ctx).
		Table("votes AS v").
		Select("v.*").
		Joins("JOIN elections AS e ON e.id = v.election_id").
		Where("e.reference_id = ?", strings.TrimSpace(referenceID)).
		Where("v.user_id = ?", strings.TrimSpace(userID)).
		Where("v.vote_type = ?", string(voteType)).
		Order("e.create_date DESC").
		Limit(1).
		Scan(&row).
		Error
	if err != nil {
		return entities.Vote{}, false, r.logError("election_repo_get_vote_by_reference_failed", err,
			"reference_id", strings.TrimSpace(referenceID),
			"user_id", strings.TrimSpace(userID),
			"vote_type", string(voteType),
		)
	}
	if row.ID == "" {
		return entities.Vote{}, false, nil
	}
	return row.toEntity(), true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "committee-review/election-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

type electionModel struct {
	ID                       string     `gorm:"column:id;primaryKey"`
	ElectionType             string     `gorm:"column:election_type"`
	ReferenceID              string     `gorm:"column:reference_id"`
	Status                   string     `gorm:"column:status"`
	DatasetID                *string    `gorm:"column:dataset_id"`
	UseRestriction           string     `gorm:"column:use_restriction"`
	TranslatedUseRestriction string     `gorm:"column:translated_use_restriction"`
	FinalVote                *bool      `gorm:"column:final_vote"`
	FinalRationale           string     `gorm:"column:final_rationale"`
	Archived                 bool       `gorm:"column:archived"`
	ArchivedAt               *time.Time `gorm:"column:archived_at"`
	CreateDate               time.Time  `gorm:"column:create_date"`
	FinalVoteDate            *time.Time `gorm:"column:final_vote_date"`
	LastUpdate               time.Time  `gorm:"column:last_update"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:                       strings.TrimSpace(election.ElectionID),
		ElectionType:             string(election.Type),
		ReferenceID:              strings.TrimSpace(election.ReferenceID),
		Status:                   string(election.Status),
		UseRestriction:           election.UseRestriction,
		TranslatedUseRestriction: election.TranslatedUseRestriction,
		FinalVote:                election.FinalVote,
		FinalRationale:           strings.TrimSpace(election.FinalRationale),
		Archived:                 election.Archived,
		ArchivedAt:               normalizeOptionalTime(election.ArchivedAt),
		CreateDate:               election.CreateDate.UTC(),
		FinalVoteDate:            normalizeOptionalTime(election.FinalVoteDate),
		LastUpdate:               election.LastUpdate.UTC(),
	}
	if datasetID := strings.TrimSpace(election.DatasetID); datasetID != "" {
		row.DatasetID = &datasetID
	}
	if row.CreateDate.IsZero() {
		row.CreateDate = time.Now().UTC()
	}
	if row.LastUpdate.IsZero() {
		row.LastUpdate = row.CreateDate
	}
	return row
}

func (m electionModel) toEntity() entities.Election {
	datasetID := ""
	if m.DatasetID != nil {
		datasetID = strings.TrimSpace(*m.DatasetID)
	}
	return entities.Election{
		ElectionID:               m.ID,
		Type:                     entities.ElectionType(m.ElectionType),
		ReferenceID:              m.ReferenceID,
		Status:                   entities.ElectionStatus(m.Status),
		DatasetID:                datasetID,
		UseRestriction:           m.UseRestriction,
		TranslatedUseRestriction: m.TranslatedUseRestriction,
		FinalVote:                m.FinalVote,
		FinalRationale:           m.FinalRationale,
		Archived:                 m.Archived,
		ArchivedAt:               normalizeOptionalTime(m.ArchivedAt),
		CreateDate:               m.CreateDate.UTC(),
		FinalVoteDate:            normalizeOptionalTime(m.FinalVoteDate),
		LastUpdate:               m.LastUpdate.UTC(),
	}
}

func toElectionEntities(rows []electionModel) []entities.Election {
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type accessRPLinkModel struct {
	AccessElectionID string `gorm:"column:access_election_id;primaryKey"`
	RPElectionID     string `gorm:"column:rp_election_id"`
}

func (accessRPLinkModel) TableName() string {
	return "election_access_rp_links"
}

type voteModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	ElectionID   string     `gorm:"column:election_id"`
	UserID       string     `gorm:"column:user_id"`
	VoteType     string     `gorm:"column:vote_type"`
	Value        *bool      `gorm:"column:value"`
	Rationale    string     `gorm:"column:rationale"`
	HasConcerns  bool       `gorm:"column:has_concerns"`
	ReminderSent bool       `gorm:"column:reminder_sent"`
	CreateDate   *time.Time `gorm:"column:create_date"`
	UpdateDate   *time.Time `gorm:"column:update_date"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:           strings.TrimSpace(vote.VoteID),
		ElectionID:   strings.TrimSpace(vote.ElectionID),
		UserID:       strings.TrimSpace(vote.UserID),
		VoteType:     string(vote.Type),
		Value:        vote.Value,
		Rationale:    strings.TrimSpace(vote.Rationale),
		HasConcerns:  vote.HasConcerns,
		ReminderSent: vote.ReminderSent,
		CreateDate:   normalizeOptionalTime(vote.CreateDate),
		UpdateDate:   normalizeOptionalTime(vote.UpdateDate),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:       m.ID,
		ElectionID:   m.ElectionID,
		UserID:       m.UserID,
		Type:         entities.VoteType(m.VoteType),
		Value:        m.Value,
		Rationale:    m.Rationale,
		HasConcerns:  m.HasConcerns,
		ReminderSent: m.ReminderSent,
		CreateDate:   normalizeOptionalTime(m.CreateDate),
		UpdateDate:   normalizeOptionalTime(m.UpdateDate),
	}
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.LinkageRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.UnitOfWork = (*Repository)(nil)
