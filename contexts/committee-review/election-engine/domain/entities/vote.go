package entities

import "time"

type VoteType string

const (
	VoteTypeCommitteeMember VoteType = "COMMITTEE_MEMBER"
	VoteTypeChairperson     VoteType = "CHAIRPERSON"
	VoteTypeFinal           VoteType = "FINAL"
	VoteTypeAgreement       VoteType = "AGREEMENT"
	VoteTypeDataOwner       VoteType = "DATA_OWNER"
)

// Vote is a single reviewer's slot on an election. Value stays nil until the
// reviewer casts; CreateDate is stamped on the first cast, UpdateDate on every
// cast after that.
type Vote struct {
	VoteID       string
	ElectionID   string
	UserID       string
	Type         VoteType
	Value        *bool
	Rationale    string
	HasConcerns  bool
	ReminderSent bool
	CreateDate   *time.Time
	UpdateDate   *time.Time
}

func (v Vote) Pending() bool {
	return v.Value == nil
}

// Rejecting reports whether a DATA_OWNER vote blocks dataset approval.
func (v Vote) Rejecting() bool {
	if v.Value != nil && !*v.Value {
		return true
	}
	return v.HasConcerns
}
