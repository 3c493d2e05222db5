package errors

import "errors"

var (
	ErrElectionNotFound  = errors.New("election not found")
	ErrVoteNotFound      = errors.New("vote not found")
	ErrReferenceNotFound = errors.New("referenced request or consent not found")
	ErrConsentNotFound   = errors.New("consent not found")
	ErrDatasetNotFound   = errors.New("dataset not found")

	ErrInvalidStatus       = errors.New("invalid election status value")
	ErrInvalidElectionType = errors.New("invalid election type")
	ErrInvalidVoteInput    = errors.New("invalid vote input")

	ErrOpenElectionExists        = errors.New("an open election already exists for the specified reference")
	ErrNoEligibleVoters          = errors.New("no enabled chairperson or voting member available")
	ErrUseLimitationNotApproved  = errors.New("use limitation election has not been approved")
	ErrInactiveDatasets          = errors.New("election was not created: all referenced datasets are disabled")
	ErrElectionNotOpen           = errors.New("election is not open")
	ErrTransactionFailed         = errors.New("transactional update failed")
	ErrUnsupportedTransition     = errors.New("election status transition is not allowed")
	ErrDatasetOwnerDirectCreate  = errors.New("dataset owner elections are opened per dataset through linkage provisioning")
	ErrNotDatasetOwnerElection   = errors.New("election is not a dataset owner election")
	ErrCollectConditionUnmetType = errors.New("collect readiness is undefined for this election type")
)

// Kind buckets the sentinel errors so callers and the transport layer can
// branch without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindIllegalArgument
	KindIllegalState
	KindUnsupported
)

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrElectionNotFound),
		errors.Is(err, ErrVoteNotFound),
		errors.Is(err, ErrReferenceNotFound),
		errors.Is(err, ErrConsentNotFound),
		errors.Is(err, ErrDatasetNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidElectionType),
		errors.Is(err, ErrInvalidVoteInput):
		return KindIllegalArgument
	case errors.Is(err, ErrOpenElectionExists),
		errors.Is(err, ErrNoEligibleVoters),
		errors.Is(err, ErrUseLimitationNotApproved),
		errors.Is(err, ErrInactiveDatasets),
		errors.Is(err, ErrElectionNotOpen),
		errors.Is(err, ErrTransactionFailed):
		return KindIllegalState
	case errors.Is(err, ErrUnsupportedTransition),
		errors.Is(err, ErrDatasetOwnerDirectCreate),
		errors.Is(err, ErrNotDatasetOwnerElection),
		errors.Is(err, ErrCollectConditionUnmetType):
		return KindUnsupported
	default:
		return KindUnknown
	}
}
