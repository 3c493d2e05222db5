package entities

import "time"

type VoteStatus string

const (
	VoteStatusPending  VoteStatus = "PENDING"
	VoteStatusEditable VoteStatus = "EDITABLE"
)

// PendingCase is the queue entry a reviewer sees for one open election,
// denormalized with the vote counts the ranking rules need.
type PendingCase struct {
	ElectionID     string
	ReferenceID    string
	FrontEndID     string
	ElectionType   ElectionType
	ElectionStatus ElectionStatus
	VoteID         string
	RPElectionID   string
	RPVoteID       string
	TotalVotes     int
	VotesLogged    int
	Logged         string
	AlreadyVoted   bool
	IsFinalVote    bool
	ReminderSent   bool
	Status         VoteStatus
	CreateDate     time.Time
}

// Progress pairs (votesLogged, totalVotes) for chair-queue bucketing.
func (p PendingCase) Progress() (int, int) {
	return p.VotesLogged, p.TotalVotes
}

func (p PendingCase) ReadyToCollect() bool {
	return p.TotalVotes > 0 && p.VotesLogged == p.TotalVotes
}

// DataOwnerCase is the queue entry a data owner sees for one open
// DATASET_OWNER election on a dataset they own.
type DataOwnerCase struct {
	ReferenceID  string
	DarCode      string
	DatasetID    string
	DatasetName  string
	VoteID       string
	AlreadyVoted bool
	HasConcerns  bool
}
