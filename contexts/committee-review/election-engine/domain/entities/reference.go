package entities

import "time"

// DataAccessRequest is the engine's read model of a DAR. The full request
// document lives outside this context; the engine only needs the dataset
// references and the use-restriction snapshot material.
type DataAccessRequest struct {
	ReferenceID              string
	DarCode                  string
	ResearcherID             string
	DatasetIDs               []string
	UseRestriction           string
	TranslatedUseRestriction string
	SortDate                 time.Time
}

func (d DataAccessRequest) HasStructuredRestriction() bool {
	return d.UseRestriction != ""
}

type Consent struct {
	ConsentID                string
	Name                     string
	CommitteeID              string
	UseRestriction           string
	TranslatedUseRestriction string
	SortDate                 time.Time
}

type Dataset struct {
	DatasetID     string
	ConsentID     string
	CommitteeID   string
	Name          string
	Active        bool
	NeedsApproval bool
	OwnerUserIDs  []string
}

type ReviewerRole string

const (
	ReviewerRoleChairperson ReviewerRole = "CHAIRPERSON"
	ReviewerRoleMember      ReviewerRole = "MEMBER"
)

// Reviewer is an enabled committee participant as reported by the
// eligibility provider. CommitteeID is empty for unscoped reviewers.
type Reviewer struct {
	UserID      string
	DisplayName string
	CommitteeID string
	Role        ReviewerRole
	Enabled     bool
}

func (r Reviewer) Chairperson() bool {
	return r.Role == ReviewerRoleChairperson
}
