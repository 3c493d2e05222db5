package memory

import (
	"context"
	"encoding/json"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"oversight/contexts/committee-review/election-engine/domain/entities"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	"oversight/contexts/committee-review/election-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every repository port. It is safe
// for concurrent use and exists for tests and the in-memory module wiring.
type Store struct {
	mu sync.RWMutex

	seq             int64
	elections       map[string]electionRecord
	votes           map[string]entities.Vote
	accessToRP      map[string]string
	rpToAccess      map[string]string
	dars            map[string]entities.DataAccessRequest
	consents        map[string]entities.Consent
	datasets        map[string]entities.Dataset
	reviewers       map[string]entities.Reviewer
	collectNotified map[string]time.Time
	outbox          map[string]outboxRecord
	matchResults    map[string]ports.MatchResult
	matchErr        error
}

type electionRecord struct {
	Election entities.Election
	Seq      int64
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		elections:       make(map[string]electionRecord),
		votes:           make(map[string]entities.Vote),
		accessToRP:      make(map[string]string),
		rpToAccess:      make(map[string]string),
		dars:            make(map[string]entities.DataAccessRequest),
		consents:        make(map[string]entities.Consent),
		datasets:        make(map[string]entities.Dataset),
		reviewers:       make(map[string]entities.Reviewer),
		collectNotified: make(map[string]time.Time),
		outbox:          make(map[string]outboxRecord),
		matchResults:    make(map[string]ports.MatchResult),
	}
}

var (
	_ ports.ElectionRepository  = (*Store)(nil)
	_ ports.LinkageRepository   = (*Store)(nil)
	_ ports.VoteRepository      = (*Store)(nil)
	_ ports.ReferenceRepository = (*Store)(nil)
	_ ports.EligibilityProvider = (*Store)(nil)
	_ ports.MatchProvider       = (*Store)(nil)
	_ ports.NotificationLog     = (*Store)(nil)
	_ ports.OutboxWriter        = (*Store)(nil)
	_ ports.OutboxRepository    = (*Store)(nil)
	_ ports.UnitOfWork          = (*Store)(nil)
	_ ports.Clock               = (*Store)(nil)
	_ ports.IDGenerator         = (*Store)(nil)
)

func (s *Store) InsertElection(_ context.Context, election entities.Election) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(election.ElectionID)
	if id == "" {
		return entities.Election{}, domainerrors.ErrInvalidVoteInput
	}
	if election.Status == entities.ElectionStatusOpen {
		for _, record := range s.elections {
			if record.Election.ReferenceID == election.ReferenceID &&
				record.Election.Type == election.Type &&
				record.Election.Open() {
				return entities.Election{}, domainerrors.ErrOpenElectionExists
			}
		}
	}
	s.seq++
	s.elections[id] = electionRecord{Election: election, Seq: s.seq}
	return election, nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return record.Election, nil
}

func (s *Store) UpdateElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.elections[election.ElectionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	record.Election = election
	s.elections[election.ElectionID] = record
	return nil
}

func (s *Store) DeleteElection(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(electionID)
	if _, ok := s.elections[id]; !ok {
		return domainerrors.ErrElectionNotFound
	}
	delete(s.elections, id)
	return nil
}

func (s *Store) GetOpenElection(
	_ context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.elections {
		if record.Election.ReferenceID == strings.TrimSpace(referenceID) &&
			record.Election.Type == electionType &&
			record.Election.Open() {
			return record.Election, true, nil
		}
	}
	return entities.Election{}, false, nil
}

func (s *Store) GetOpenElectionByDataset(
	_ context.Context,
	referenceID string,
	datasetID string,
) (entities.Election, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.elections {
		if record.Election.ReferenceID == strings.TrimSpace(referenceID) &&
			record.Election.DatasetID == strings.TrimSpace(datasetID) &&
			record.Election.Open() {
			return record.Election, true, nil
		}
	}
	return entities.Election{}, false, nil
}

func (s *Store) GetLastElection(
	_ context.Context,
	referenceID string,
	electionType entities.ElectionType,
) (entities.Election, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastElectionLocked(referenceID, electionType, nil)
}

func (s *Store) GetLastElectionByStatus(
	_ context.Context,
	referenceID string,
	electionType entities.ElectionType,
	status entities.ElectionStatus,
) (entities.Election, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastElectionLocked(referenceID, electionType, &status)
}

func (s *Store) lastElectionLocked(
	referenceID string,
	electionType entities.ElectionType,
	status *entities.ElectionStatus,
) (entities.Election, bool, error) {
	var best electionRecord
	found := false
	for _, record := range s.elections {
		if record.Election.ReferenceID != strings.TrimSpace(referenceID) ||
			record.Election.Type != electionType {
			continue
		}
		if status != nil && record.Election.Status != *status {
			continue
		}
		if !found || record.Seq > best.Seq {
			best = record
			found = true
		}
	}
	return best.Election, found, nil
}

func (s *Store) ListLastDatasetElections(_ context.Context, referenceID string) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]electionRecord)
	for _, record := range s.elections {
		if record.Election.ReferenceID != strings.TrimSpace(referenceID) ||
			record.Election.Type != entities.ElectionTypeDatasetOwner {
			continue
		}
		existing, ok := latest[record.Election.DatasetID]
		if !ok || record.Seq > existing.Seq {
			latest[record.Election.DatasetID] = record
		}
	}
	return sortedElections(latest), nil
}

func (s *Store) ListElectionsByTypeAndStatus(
	_ context.Context,
	electionType entities.ElectionType,
	status entities.ElectionStatus,
) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make(map[string]electionRecord)
	for id, record := range s.elections {
		if record.Election.Type == electionType && record.Election.Status == status {
			matches[id] = record
		}
	}
	return sortedElections(matches), nil
}

func (s *Store) ListElectionsByReference(_ context.Context, referenceID string) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make(map[string]electionRecord)
	for id, record := range s.elections {
		if record.Election.ReferenceID == strings.TrimSpace(referenceID) {
			matches[id] = record
		}
	}
	return sortedElections(matches), nil
}

func (s *Store) ListUnfinalizedAccessElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make(map[string]electionRecord)
	for id, record := range s.elections {
		if record.Election.Type == entities.ElectionTypeDataAccess &&
			record.Election.Status != entities.ElectionStatusCanceled &&
			record.Election.FinalVote == nil {
			matches[id] = record
		}
	}
	return sortedElections(matches), nil
}

func (s *Store) CountOpenElectionsByReference(_ context.Context, referenceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.elections {
		if record.Election.ReferenceID == strings.TrimSpace(referenceID) && record.Election.Open() {
			count++
		}
	}
	return count, nil
}

func sortedElections(records map[string]electionRecord) []entities.Election {
	items := make([]electionRecord, 0, len(records))
	for _, record := range records {
		items = append(items, record)
	}
	// Newest first, matching the SQL adapters' create-date ordering.
	sort.Slice(items, func(i, j int) bool {
		return items[i].Seq > items[j].Seq
	})
	elections := make([]entities.Election, 0, len(items))
	for _, item := range items {
		elections = append(elections, item.Election)
	}
	return elections
}

func (s *Store) InsertAccessRPPair(_ context.Context, accessElectionID string, rpElectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessID := strings.TrimSpace(accessElectionID)
	rpID := strings.TrimSpace(rpElectionID)
	if accessID == "" || rpID == "" {
		return domainerrors.ErrElectionNotFound
	}
	s.accessToRP[accessID] = rpID
	s.rpToAccess[rpID] = accessID
	return nil
}

func (s *Store) DeleteAccessRPPair(_ context.Context, accessElectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessID := strings.TrimSpace(accessElectionID)
	rpID, ok := s.accessToRP[accessID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	delete(s.accessToRP, accessID)
	delete(s.rpToAccess, rpID)
	return nil
}

func (s *Store) RPElectionForAccess(_ context.Context, accessElectionID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rpID, ok := s.accessToRP[strings.TrimSpace(accessElectionID)]
	return rpID, ok, nil
}

func (s *Store) AccessElectionForRP(_ context.Context, rpElectionID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accessID, ok := s.rpToAccess[strings.TrimSpace(rpElectionID)]
	return accessID, ok, nil
}

func (s *Store) InsertVote(_ context.Context, vote entities.Vote) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(vote.VoteID)
	if id == "" {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	s.votes[id] = vote
	return vote, nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) UpdateVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.votes[vote.VoteID]; !ok {
		return domainerrors.ErrVoteNotFound
	}
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) DeleteVote(_ context.Context, voteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(voteID)
	if _, ok := s.votes[id]; !ok {
		return domainerrors.ErrVoteNotFound
	}
	delete(s.votes, id)
	return nil
}

func (s *Store) DeleteVotesByElection(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, vote := range s.votes {
		if vote.ElectionID == strings.TrimSpace(electionID) {
			delete(s.votes, id)
		}
	}
	return nil
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ElectionID == strings.TrimSpace(electionID) {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].VoteID < votes[j].VoteID })
	return votes, nil
}

func (s *Store) ListVotesByElectionAndType(
	_ context.Context,
	electionID string,
	voteType entities.VoteType,
) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ElectionID == strings.TrimSpace(electionID) && vote.Type == voteType {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].VoteID < votes[j].VoteID })
	return votes, nil
}

func (s *Store) GetVoteByElectionUserAndType(
	_ context.Context,
	electionID string,
	userID string,
	voteType entities.VoteType,
) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vote := range s.votes {
		if vote.ElectionID == strings.TrimSpace(electionID) &&
			vote.UserID == strings.TrimSpace(userID) &&
			vote.Type == voteType {
			return vote, true, nil
		}
	}
	return entities.Vote{}, false, nil
}

func (s *Store) GetVoteByReferenceUserAndType(
	_ context.Context,
	referenceID string,
	userID string,
	voteType entities.VoteType,
) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best entities.Vote
	bestSeq := int64(-1)
	for _, vote := range s.votes {
		record, ok := s.elections[vote.ElectionID]
		if !ok || record.Election.ReferenceID != strings.TrimSpace(referenceID) {
			continue
		}
		if vote.UserID != strings.TrimSpace(userID) || vote.Type != voteType {
			continue
		}
		if record.Seq > bestSeq {
			best = vote
			bestSeq = record.Seq
		}
	}
	return best, bestSeq >= 0, nil
}

func (s *Store) GetDataAccessRequest(_ context.Context, referenceID string) (entities.DataAccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dar, ok := s.dars[strings.TrimSpace(referenceID)]
	if !ok {
		return entities.DataAccessRequest{}, domainerrors.ErrReferenceNotFound
	}
	return dar, nil
}

func (s *Store) SaveDataAccessRequest(_ context.Context, dar entities.DataAccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(dar.ReferenceID) == "" {
		return domainerrors.ErrReferenceNotFound
	}
	s.dars[dar.ReferenceID] = dar
	return nil
}

func (s *Store) GetConsent(_ context.Context, consentID string) (entities.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	consent, ok := s.consents[strings.TrimSpace(consentID)]
	if !ok {
		return entities.Consent{}, domainerrors.ErrConsentNotFound
	}
	return consent, nil
}

func (s *Store) ConsentForDataset(_ context.Context, datasetID string) (entities.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataset, ok := s.datasets[strings.TrimSpace(datasetID)]
	if !ok {
		return entities.Consent{}, domainerrors.ErrDatasetNotFound
	}
	consent, ok := s.consents[dataset.ConsentID]
	if !ok {
		return entities.Consent{}, domainerrors.ErrConsentNotFound
	}
	return consent, nil
}

func (s *Store) GetDataset(_ context.Context, datasetID string) (entities.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataset, ok := s.datasets[strings.TrimSpace(datasetID)]
	if !ok {
		return entities.Dataset{}, domainerrors.ErrDatasetNotFound
	}
	return dataset, nil
}

func (s *Store) ListDatasets(_ context.Context, datasetIDs []string) ([]entities.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	datasets := make([]entities.Dataset, 0, len(datasetIDs))
	for _, id := range datasetIDs {
		if dataset, ok := s.datasets[strings.TrimSpace(id)]; ok {
			datasets = append(datasets, dataset)
		}
	}
	return datasets, nil
}

func (s *Store) TouchSortDate(_ context.Context, referenceID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(referenceID)
	if dar, ok := s.dars[id]; ok {
		dar.SortDate = at.UTC()
		s.dars[id] = dar
		return nil
	}
	if consent, ok := s.consents[id]; ok {
		consent.SortDate = at.UTC()
		s.consents[id] = consent
		return nil
	}
	return domainerrors.ErrReferenceNotFound
}

func (s *Store) EnabledVoters(_ context.Context, committeeID string) ([]entities.Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voters := make([]entities.Reviewer, 0)
	for _, reviewer := range s.reviewers {
		if !reviewer.Enabled {
			continue
		}
		if reviewer.CommitteeID != strings.TrimSpace(committeeID) {
			continue
		}
		voters = append(voters, reviewer)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].UserID < voters[j].UserID })
	return voters, nil
}

func (s *Store) GetReviewer(_ context.Context, userID string) (entities.Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviewer, ok := s.reviewers[strings.TrimSpace(userID)]
	if !ok {
		return entities.Reviewer{}, domainerrors.ErrReferenceNotFound
	}
	return reviewer, nil
}

func (s *Store) Match(_ context.Context, _ string, referenceID string) (ports.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.matchErr != nil {
		return ports.MatchResult{Failed: true}, s.matchErr
	}
	if result, ok := s.matchResults[strings.TrimSpace(referenceID)]; ok {
		return result, nil
	}
	return ports.MatchResult{Matched: true}, nil
}

func (s *Store) CollectNotificationExists(
	_ context.Context,
	accessElectionID string,
	rpElectionID string,
) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collectNotified[collectKey(accessElectionID, rpElectionID)]
	return ok, nil
}

func (s *Store) RecordCollectNotification(
	_ context.Context,
	accessElectionID string,
	rpElectionID string,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collectNotified[collectKey(accessElectionID, rpElectionID)] = at.UTC()
	return nil
}

func collectKey(accessElectionID string, rpElectionID string) string {
	return strings.TrimSpace(accessElectionID) + "|" + strings.TrimSpace(rpElectionID)
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidVoteInput
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

type storeSnapshot struct {
	seq             int64
	elections       map[string]electionRecord
	votes           map[string]entities.Vote
	accessToRP      map[string]string
	rpToAccess      map[string]string
	dars            map[string]entities.DataAccessRequest
	collectNotified map[string]time.Time
	outbox          map[string]outboxRecord
}

// InTransaction snapshots the mutable state, runs fn, and restores the
// snapshot when fn fails, matching the commit-or-rollback contract of the
// SQL adapter. Concurrent writers are not isolated from each other; tests
// drive the store single-writer.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeSnapshot{
		seq:             s.seq,
		elections:       maps.Clone(s.elections),
		votes:           maps.Clone(s.votes),
		accessToRP:      maps.Clone(s.accessToRP),
		rpToAccess:      maps.Clone(s.rpToAccess),
		dars:            maps.Clone(s.dars),
		collectNotified: maps.Clone(s.collectNotified),
		outbox:          maps.Clone(s.outbox),
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.elections = snap.elections
	s.votes = snap.votes
	s.accessToRP = snap.accessToRP
	s.rpToAccess = snap.rpToAccess
	s.dars = snap.dars
	s.collectNotified = snap.collectNotified
	s.outbox = snap.outbox
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Seed helpers populate the reference projections the engine reads.

func (s *Store) SeedDataAccessRequest(dar entities.DataAccessRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dars[dar.ReferenceID] = dar
}

func (s *Store) SeedConsent(consent entities.Consent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[consent.ConsentID] = consent
}

func (s *Store) SeedDataset(dataset entities.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[dataset.DatasetID] = dataset
}

func (s *Store) SeedReviewer(reviewer entities.Reviewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewers[reviewer.UserID] = reviewer
}

func (s *Store) SeedMatchResult(referenceID string, result ports.MatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchResults[referenceID] = result
}

func (s *Store) SeedMatchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchErr = err
}
