package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	ElectionType string `json:"election_type"`
}

type UpdateElectionRequest struct {
	Status         string `json:"status"`
	FinalVote      *bool  `json:"final_vote,omitempty"`
	FinalRationale string `json:"final_rationale,omitempty"`
	Archived       *bool  `json:"archived,omitempty"`
}

type ElectionResponse struct {
	ElectionID               string `json:"election_id"`
	ElectionType             string `json:"election_type"`
	ReferenceID              string `json:"reference_id"`
	Status                   string `json:"status"`
	DatasetID                string `json:"dataset_id,omitempty"`
	UseRestriction           string `json:"use_restriction,omitempty"`
	TranslatedUseRestriction string `json:"translated_use_restriction,omitempty"`
	FinalVote                *bool  `json:"final_vote,omitempty"`
	FinalRationale           string `json:"final_rationale,omitempty"`
	Archived                 bool   `json:"archived"`
	CreateDate               string `json:"create_date"`
	FinalVoteDate            string `json:"final_vote_date,omitempty"`
	LastUpdate               string `json:"last_update"`
}

type CreateElectionResponse struct {
	Election   ElectionResponse  `json:"election"`
	RPElection *ElectionResponse `json:"rp_election,omitempty"`
	VoteCount  int               `json:"vote_count"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type CastVoteRequest struct {
	Vote        *bool  `json:"vote"`
	Rationale   string `json:"rationale,omitempty"`
	HasConcerns bool   `json:"has_concerns,omitempty"`
}

type VoteResponse struct {
	VoteID       string `json:"vote_id"`
	ElectionID   string `json:"election_id"`
	UserID       string `json:"user_id"`
	VoteType     string `json:"vote_type"`
	Vote         *bool  `json:"vote,omitempty"`
	Rationale    string `json:"rationale,omitempty"`
	HasConcerns  bool   `json:"has_concerns"`
	ReminderSent bool   `json:"reminder_sent"`
	CreateDate   string `json:"create_date,omitempty"`
	UpdateDate   string `json:"update_date,omitempty"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type FinalAccessVoteResponse struct {
	ElectionID string `json:"election_id"`
	Approved   bool   `json:"approved"`
}

type CollectReadinessResponse struct {
	ElectionID string `json:"election_id"`
	Ready      bool   `json:"ready"`
}

type DatasetApprovalStatusResponse struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
}

type DatasetElectionOpenResponse struct {
	Open bool `json:"open"`
}

type PendingCaseResponse struct {
	ElectionID     string `json:"election_id"`
	ReferenceID    string `json:"reference_id"`
	FrontEndID     string `json:"front_end_id,omitempty"`
	ElectionType   string `json:"election_type"`
	ElectionStatus string `json:"election_status"`
	VoteID         string `json:"vote_id"`
	RPElectionID   string `json:"rp_election_id,omitempty"`
	RPVoteID       string `json:"rp_vote_id,omitempty"`
	TotalVotes     int    `json:"total_votes"`
	VotesLogged    int    `json:"votes_logged"`
	Logged         string `json:"logged"`
	AlreadyVoted   bool   `json:"already_voted"`
	IsFinalVote    bool   `json:"is_final_vote"`
	ReminderSent   bool   `json:"reminder_sent"`
	Status         string `json:"status"`
}

type PendingCaseListResponse struct {
	Items []PendingCaseResponse `json:"items"`
}

type DataOwnerCaseResponse struct {
	ReferenceID  string `json:"reference_id"`
	DarCode      string `json:"dar_code,omitempty"`
	DatasetID    string `json:"dataset_id"`
	DatasetName  string `json:"dataset_name,omitempty"`
	VoteID       string `json:"vote_id"`
	AlreadyVoted bool   `json:"already_voted"`
	HasConcerns  bool   `json:"has_concerns"`
}

type DataOwnerCaseListResponse struct {
	Items []DataOwnerCaseResponse `json:"items"`
}
