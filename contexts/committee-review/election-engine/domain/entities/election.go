package entities

import (
	"strings"
	"time"
)

type ElectionType string

const (
	ElectionTypeDataAccess       ElectionType = "DATA_ACCESS"
	ElectionTypeResearchPurpose  ElectionType = "RESEARCH_PURPOSE"
	ElectionTypeTranslateConsent ElectionType = "TRANSLATE_CONSENT"
	ElectionTypeDatasetOwner     ElectionType = "DATASET_OWNER"
)

func (t ElectionType) Valid() bool {
	switch t {
	case ElectionTypeDataAccess, ElectionTypeResearchPurpose,
		ElectionTypeTranslateConsent, ElectionTypeDatasetOwner:
		return true
	default:
		return false
	}
}

type ElectionStatus string

const (
	ElectionStatusOpen     ElectionStatus = "OPEN"
	ElectionStatusClosed   ElectionStatus = "CLOSED"
	ElectionStatusCanceled ElectionStatus = "CANCELED"
)

// ParseElectionStatus normalizes a caller-supplied status string. The bool
// result is false for anything outside the three known statuses.
func ParseElectionStatus(raw string) (ElectionStatus, bool) {
	switch ElectionStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case ElectionStatusOpen:
		return ElectionStatusOpen, true
	case ElectionStatusClosed:
		return ElectionStatusClosed, true
	case ElectionStatusCanceled:
		return ElectionStatusCanceled, true
	default:
		return "", false
	}
}

func (s ElectionStatus) Terminal() bool {
	return s == ElectionStatusClosed || s == ElectionStatusCanceled
}

// Election is one committee review round over a DAR or a consent. FinalVote
// is derived from the recorded votes and is nil until the election resolves.
type Election struct {
	ElectionID               string
	Type                     ElectionType
	ReferenceID              string
	Status                   ElectionStatus
	DatasetID                string
	UseRestriction           string
	TranslatedUseRestriction string
	FinalVote                *bool
	FinalRationale           string
	Archived                 bool
	ArchivedAt               *time.Time
	CreateDate               time.Time
	FinalVoteDate            *time.Time
	LastUpdate               time.Time
}

func (e Election) Open() bool {
	return e.Status == ElectionStatusOpen
}

// DatasetApprovalStatus is the derived four-valued owner-approval state of a
// DAR, aggregated over its DATASET_OWNER elections.
type DatasetApprovalStatus string

const (
	DatasetApprovalNotNeeded DatasetApprovalStatus = "APPROVAL_NOT_NEEDED"
	DatasetApprovalPending   DatasetApprovalStatus = "DS_PENDING"
	DatasetApprovalDenied    DatasetApprovalStatus = "DS_DENIED"
	DatasetApprovalApproved  DatasetApprovalStatus = "DS_APPROVED"
)
