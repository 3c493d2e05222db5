package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"oversight/contexts/committee-review/election-engine/application/commands"
	"oversight/contexts/committee-review/election-engine/application/queries"
	"oversight/contexts/committee-review/election-engine/domain/entities"
	httptransport "oversight/contexts/committee-review/election-engine/transport/http"
)

type Handler struct {
	Elections    commands.ElectionUseCase
	Votes        commands.VoteUseCase
	Linkage      commands.LinkageUseCase
	Status       queries.ElectionStatusUseCase
	PendingCases queries.PendingCaseUseCase
	Logger       *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	referenceID string,
	req httptransport.CreateElectionRequest,
) (httptransport.CreateElectionResponse, error) {
	result, err := h.Elections.Create(ctx, entities.ElectionType(req.ElectionType), referenceID)
	if err != nil {
		return httptransport.CreateElectionResponse{}, err
	}
	resp := httptransport.CreateElectionResponse{
		Election:  mapElection(result.Election),
		VoteCount: len(result.Votes),
	}
	if result.RPElection != nil {
		rp := mapElection(*result.RPElection)
		resp.RPElection = &rp
	}
	return resp, nil
}

func (h Handler) UpdateElectionHandler(
	ctx context.Context,
	electionID string,
	req httptransport.UpdateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.Transition(ctx, commands.TransitionCommand{
		ElectionID:     electionID,
		Status:         req.Status,
		FinalVote:      req.FinalVote,
		FinalRationale: req.FinalRationale,
		Archived:       req.Archived,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) DescribeElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Status.DescribeElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) OpenElectionHandler(
	ctx context.Context,
	referenceID string,
	electionType string,
) (httptransport.ElectionResponse, error) {
	election, err := h.Status.OpenElection(ctx, referenceID, entities.ElectionType(electionType))
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) LastElectionHandler(
	ctx context.Context,
	referenceID string,
	electionType string,
) (httptransport.ElectionResponse, error) {
	election, err := h.Status.LastElection(ctx, referenceID, entities.ElectionType(electionType))
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ConsentElectionHandler(ctx context.Context, consentID string) (httptransport.ElectionResponse, error) {
	election, err := h.Status.ConsentElection(ctx, consentID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ElectionsByReferenceHandler(
	ctx context.Context,
	referenceID string,
) (httptransport.ElectionListResponse, error) {
	elections, err := h.Status.DescribeElectionsByReference(ctx, referenceID)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, mapElection(election))
	}
	return httptransport.ElectionListResponse{Items: items}, nil
}

func (h Handler) DeleteElectionHandler(ctx context.Context, referenceID string, electionID string) error {
	return h.Elections.Delete(ctx, referenceID, electionID)
}

func (h Handler) CloseDataOwnerElectionHandler(
	ctx context.Context,
	electionID string,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.CloseDataOwnerApproval(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) FinalizeAccessElectionHandler(
	ctx context.Context,
	electionID string,
) (httptransport.FinalAccessVoteResponse, error) {
	election, err := h.Elections.FinalizeDataAccessElection(ctx, electionID)
	if err != nil {
		return httptransport.FinalAccessVoteResponse{}, err
	}
	approved := election.FinalVote != nil && *election.FinalVote
	return httptransport.FinalAccessVoteResponse{
		ElectionID: election.ElectionID,
		Approved:   approved,
	}, nil
}

func (h Handler) ProvisionDatasetElectionsHandler(
	ctx context.Context,
	referenceID string,
) (httptransport.ElectionListResponse, error) {
	opened, err := h.Linkage.ProvisionDatasetOwnerElections(ctx, referenceID)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(opened))
	for _, election := range opened {
		items = append(items, mapElection(election))
	}
	return httptransport.ElectionListResponse{Items: items}, nil
}

func (h Handler) PairedRPElectionHandler(ctx context.Context, accessElectionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Linkage.PairedRPElection(ctx, accessElectionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	voteID string,
	electionID string,
	userID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		VoteID:      voteID,
		ElectionID:  electionID,
		UserID:      userID,
		Value:       req.Vote,
		Rationale:   req.Rationale,
		HasConcerns: req.HasConcerns,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) DescribeVoteHandler(ctx context.Context, voteID string) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.DescribeVote(ctx, voteID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) DataOwnerVoteHandler(ctx context.Context, referenceID string, userID string) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.DescribeDataOwnerVote(ctx, referenceID, userID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) ListVotesHandler(ctx context.Context, electionID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Votes.ListVotes(ctx, electionID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) DeleteVoteHandler(ctx context.Context, electionID string, voteID string) error {
	return h.Votes.DeleteVote(ctx, electionID, voteID)
}

func (h Handler) DeleteVotesHandler(ctx context.Context, electionID string) error {
	return h.Votes.DeleteVotes(ctx, electionID)
}

func (h Handler) SendReminderHandler(ctx context.Context, voteID string) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.SendReminder(ctx, voteID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) FinalAccessVoteHandler(ctx context.Context, electionID string) (httptransport.FinalAccessVoteResponse, error) {
	approved, err := h.Votes.FinalAccessVote(ctx, electionID)
	if err != nil {
		return httptransport.FinalAccessVoteResponse{}, err
	}
	return httptransport.FinalAccessVoteResponse{
		ElectionID: electionID,
		Approved:   approved,
	}, nil
}

func (h Handler) CollectReadinessHandler(ctx context.Context, electionID string) (httptransport.CollectReadinessResponse, error) {
	ready, err := h.Votes.CollectReadiness(ctx, electionID)
	if err != nil {
		return httptransport.CollectReadinessResponse{}, err
	}
	return httptransport.CollectReadinessResponse{
		ElectionID: electionID,
		Ready:      ready,
	}, nil
}

func (h Handler) DatasetApprovalStatusHandler(
	ctx context.Context,
	referenceID string,
) (httptransport.DatasetApprovalStatusResponse, error) {
	status, err := h.Status.DarDatasetElectionStatus(ctx, referenceID)
	if err != nil {
		return httptransport.DatasetApprovalStatusResponse{}, err
	}
	return httptransport.DatasetApprovalStatusResponse{
		ReferenceID: referenceID,
		Status:      string(status),
	}, nil
}

func (h Handler) DatasetElectionOpenHandler(ctx context.Context) (httptransport.DatasetElectionOpenResponse, error) {
	open, err := h.Status.IsDatasetElectionOpen(ctx)
	if err != nil {
		return httptransport.DatasetElectionOpenResponse{}, err
	}
	return httptransport.DatasetElectionOpenResponse{Open: open}, nil
}

func (h Handler) ConsentPendingCasesHandler(ctx context.Context, userID string) (httptransport.PendingCaseListResponse, error) {
	cases, err := h.PendingCases.ConsentPendingCases(ctx, userID)
	if err != nil {
		return httptransport.PendingCaseListResponse{}, err
	}
	return httptransport.PendingCaseListResponse{Items: mapPendingCases(cases)}, nil
}

func (h Handler) DataRequestPendingCasesHandler(ctx context.Context, userID string) (httptransport.PendingCaseListResponse, error) {
	cases, err := h.PendingCases.DataRequestPendingCases(ctx, userID)
	if err != nil {
		return httptransport.PendingCaseListResponse{}, err
	}
	return httptransport.PendingCaseListResponse{Items: mapPendingCases(cases)}, nil
}

func (h Handler) DataOwnerPendingCasesHandler(ctx context.Context, userID string) (httptransport.DataOwnerCaseListResponse, error) {
	cases, err := h.PendingCases.DataOwnerPendingCases(ctx, userID)
	if err != nil {
		return httptransport.DataOwnerCaseListResponse{}, err
	}
	items := make([]httptransport.DataOwnerCaseResponse, 0, len(cases))
	for _, ownerCase := range cases {
		items = append(items, httptransport.DataOwnerCaseResponse{
			ReferenceID:  ownerCase.ReferenceID,
			DarCode:      ownerCase.DarCode,
			DatasetID:    ownerCase.DatasetID,
			DatasetName:  ownerCase.DatasetName,
			VoteID:       ownerCase.VoteID,
			AlreadyVoted: ownerCase.AlreadyVoted,
			HasConcerns:  ownerCase.HasConcerns,
		})
	}
	return httptransport.DataOwnerCaseListResponse{Items: items}, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:               election.ElectionID,
		ElectionType:             string(election.Type),
		ReferenceID:              election.ReferenceID,
		Status:                   string(election.Status),
		DatasetID:                election.DatasetID,
		UseRestriction:           election.UseRestriction,
		TranslatedUseRestriction: election.TranslatedUseRestriction,
		FinalVote:                election.FinalVote,
		FinalRationale:           election.FinalRationale,
		Archived:                 election.Archived,
		CreateDate:               election.CreateDate.UTC().Format(time.RFC3339),
		FinalVoteDate:            formatOptionalTime(election.FinalVoteDate),
		LastUpdate:               election.LastUpdate.UTC().Format(time.RFC3339),
	}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:       vote.VoteID,
		ElectionID:   vote.ElectionID,
		UserID:       vote.UserID,
		VoteType:     string(vote.Type),
		Vote:         vote.Value,
		Rationale:    vote.Rationale,
		HasConcerns:  vote.HasConcerns,
		ReminderSent: vote.ReminderSent,
		CreateDate:   formatOptionalTime(vote.CreateDate),
		UpdateDate:   formatOptionalTime(vote.UpdateDate),
	}
}

func mapPendingCases(cases []entities.PendingCase) []httptransport.PendingCaseResponse {
	items := make([]httptransport.PendingCaseResponse, 0, len(cases))
	for _, pending := range cases {
		items = append(items, httptransport.PendingCaseResponse{
			ElectionID:     pending.ElectionID,
			ReferenceID:    pending.ReferenceID,
			FrontEndID:     pending.FrontEndID,
			ElectionType:   string(pending.ElectionType),
			ElectionStatus: string(pending.ElectionStatus),
			VoteID:         pending.VoteID,
			RPElectionID:   pending.RPElectionID,
			RPVoteID:       pending.RPVoteID,
			TotalVotes:     pending.TotalVotes,
			VotesLogged:    pending.VotesLogged,
			Logged:         pending.Logged,
			AlreadyVoted:   pending.AlreadyVoted,
			IsFinalVote:    pending.IsFinalVote,
			ReminderSent:   pending.ReminderSent,
			Status:         string(pending.Status),
		})
	}
	return items
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
