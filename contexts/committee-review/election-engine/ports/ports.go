package ports

import (
	"context"
	"encoding/json"
	"time"

	"oversight/contexts/committee-review/election-engine/domain/entities"
)

type ElectionRepository interface {
	InsertElection(ctx context.Context, election entities.Election) (entities.Election, error)
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	UpdateElection(ctx context.Context, election entities.Election) error
	DeleteElection(ctx context.Context, electionID string) error
	GetOpenElection(ctx context.Context, referenceID string, electionType entities.ElectionType) (entities.Election, bool, error)
	GetOpenElectionByDataset(ctx context.Context, referenceID string, datasetID string) (entities.Election, bool, error)
	GetLastElection(ctx context.Context, referenceID string, electionType entities.ElectionType) (entities.Election, bool, error)
	GetLastElectionByStatus(ctx context.Context, referenceID string, electionType entities.ElectionType, status entities.ElectionStatus) (entities.Election, bool, error)
	// ListLastDatasetElections returns the most recent DATASET_OWNER election
	// per dataset referenced by the DAR.
	ListLastDatasetElections(ctx context.Context, referenceID string) ([]entities.Election, error)
	ListElectionsByTypeAndStatus(ctx context.Context, electionType entities.ElectionType, status entities.ElectionStatus) ([]entities.Election, error)
	ListElectionsByReference(ctx context.Context, referenceID string) ([]entities.Election, error)
	// ListUnfinalizedAccessElections returns DATA_ACCESS elections with no
	// derived final vote yet, regardless of status. Chair queues use it to
	// surface collect-ready cases that still need finalization.
	ListUnfinalizedAccessElections(ctx context.Context) ([]entities.Election, error)
	CountOpenElectionsByReference(ctx context.Context, referenceID string) (int, error)
}

// LinkageRepository owns the 1:1 DATA_ACCESS <-> RESEARCH_PURPOSE join.
type LinkageRepository interface {
	InsertAccessRPPair(ctx context.Context, accessElectionID string, rpElectionID string) error
	DeleteAccessRPPair(ctx context.Context, accessElectionID string) error
	RPElectionForAccess(ctx context.Context, accessElectionID string) (string, bool, error)
	AccessElectionForRP(ctx context.Context, rpElectionID string) (string, bool, error)
}

type VoteRepository interface {
	InsertVote(ctx context.Context, vote entities.Vote) (entities.Vote, error)
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	UpdateVote(ctx context.Context, vote entities.Vote) error
	DeleteVote(ctx context.Context, voteID string) error
	DeleteVotesByElection(ctx context.Context, electionID string) error
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error)
	ListVotesByElectionAndType(ctx context.Context, electionID string, voteType entities.VoteType) ([]entities.Vote, error)
	GetVoteByElectionUserAndType(ctx context.Context, electionID string, userID string, voteType entities.VoteType) (entities.Vote, bool, error)
	// GetVoteByReferenceUserAndType resolves a user's vote of a type across
	// every election of a reference, newest election first. The data-owner
	// vote lookup depends on this ordering.
	GetVoteByReferenceUserAndType(ctx context.Context, referenceID string, userID string, voteType entities.VoteType) (entities.Vote, bool, error)
}

// ReferenceRepository reads the DAR/consent/dataset projections the engine
// validates against. SaveDataAccessRequest exists only for the
// disabled-dataset write-back at election creation time.
type ReferenceRepository interface {
	GetDataAccessRequest(ctx context.Context, referenceID string) (entities.DataAccessRequest, error)
	SaveDataAccessRequest(ctx context.Context, dar entities.DataAccessRequest) error
	GetConsent(ctx context.Context, consentID string) (entities.Consent, error)
	ConsentForDataset(ctx context.Context, datasetID string) (entities.Consent, error)
	GetDataset(ctx context.Context, datasetID string) (entities.Dataset, error)
	ListDatasets(ctx context.Context, datasetIDs []string) ([]entities.Dataset, error)
	TouchSortDate(ctx context.Context, referenceID string, at time.Time) error
}

// EligibilityProvider reports enabled reviewers. An empty committeeID scopes
// the lookup to reviewers with no committee assignment.
type EligibilityProvider interface {
	EnabledVoters(ctx context.Context, committeeID string) ([]entities.Reviewer, error)
	GetReviewer(ctx context.Context, userID string) (entities.Reviewer, error)
}

type MatchResult struct {
	Matched bool
	Failed  bool
}

// MatchProvider is the external use-restriction scoring service. Its result
// only feeds the manual-review flag at DATA_ACCESS election creation.
type MatchProvider interface {
	Match(ctx context.Context, useRestriction string, referenceID string) (MatchResult, error)
}

// NotificationLog records which paired elections already triggered a
// collect-ready notification, so readiness fires at most once per pair.
type NotificationLog interface {
	CollectNotificationExists(ctx context.Context, accessElectionID string, rpElectionID string) (bool, error)
	RecordCollectNotification(ctx context.Context, accessElectionID string, rpElectionID string, at time.Time) error
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// UnitOfWork scopes a function to one transactional boundary: every
// repository call made with the inner context commits or rolls back together.
type UnitOfWork interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
