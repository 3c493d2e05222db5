package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	electionengine "oversight/contexts/committee-review/election-engine"
	domainerrors "oversight/contexts/committee-review/election-engine/domain/errors"
	electionhttp "oversight/contexts/committee-review/election-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "oversight/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	elections electionengine.Module
}

func New(elections electionengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/references/{reference_id}/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /api/references/{reference_id}/elections", s.handleElectionsByReference)
	s.mux.HandleFunc("GET /api/references/{reference_id}/elections/open", s.handleOpenElection)
	s.mux.HandleFunc("GET /api/references/{reference_id}/elections/last", s.handleLastElection)
	s.mux.HandleFunc("DELETE /api/references/{reference_id}/elections/{election_id}", s.handleDeleteElection)
	s.mux.HandleFunc("POST /api/references/{reference_id}/dataset-elections", s.handleProvisionDatasetElections)
	s.mux.HandleFunc("GET /api/references/{reference_id}/dataset-approval-status", s.handleDatasetApprovalStatus)
	s.mux.HandleFunc("GET /api/references/{reference_id}/data-owner-vote/{user_id}", s.handleDataOwnerVote)

	s.mux.HandleFunc("GET /api/elections/{election_id}", s.handleDescribeElection)
	s.mux.HandleFunc("PUT /api/elections/{election_id}", s.handleUpdateElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/close-data-owner", s.handleCloseDataOwnerElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/finalize", s.handleFinalizeAccessElection)
	s.mux.HandleFunc("GET /api/elections/{election_id}/rp-election", s.handlePairedRPElection)
	s.mux.HandleFunc("GET /api/elections/{election_id}/final-access-vote", s.handleFinalAccessVote)
	s.mux.HandleFunc("GET /api/elections/{election_id}/collect-readiness", s.handleCollectReadiness)
	s.mux.HandleFunc("GET /api/elections/{election_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("POST /api/elections/{election_id}/votes/{vote_id}", s.handleCastVote)
	s.mux.HandleFunc("DELETE /api/elections/{election_id}/votes/{vote_id}", s.handleDeleteVote)
	s.mux.HandleFunc("DELETE /api/elections/{election_id}/votes", s.handleDeleteVotes)

	s.mux.HandleFunc("GET /api/votes/{vote_id}", s.handleDescribeVote)
	s.mux.HandleFunc("POST /api/votes/{vote_id}/reminder", s.handleSendReminder)

	s.mux.HandleFunc("GET /api/consents/{consent_id}/election", s.handleConsentElection)
	s.mux.HandleFunc("GET /api/dataset-elections/open", s.handleDatasetElectionOpen)

	s.mux.HandleFunc("GET /api/users/{user_id}/pending-cases/consents", s.handleConsentPendingCases)
	s.mux.HandleFunc("GET /api/users/{user_id}/pending-cases/data-requests", s.handleDataRequestPendingCases)
	s.mux.HandleFunc("GET /api/users/{user_id}/pending-cases/data-owner", s.handleDataOwnerPendingCases)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), r.PathValue("reference_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleElectionsByReference(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ElectionsByReferenceHandler(r.Context(), r.PathValue("reference_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.OpenElectionHandler(
		r.Context(),
		r.PathValue("reference_id"),
		r.URL.Query().Get("type"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLastElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.LastElectionHandler(
		r.Context(),
		r.PathValue("reference_id"),
		r.URL.Query().Get("type"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	err := s.elections.Handler.DeleteElectionHandler(
		r.Context(),
		r.PathValue("reference_id"),
		r.PathValue("election_id"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProvisionDatasetElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ProvisionDatasetElectionsHandler(r.Context(), r.PathValue("reference_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDataOwnerVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DataOwnerVoteHandler(
		r.Context(),
		r.PathValue("reference_id"),
		r.PathValue("user_id"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDatasetApprovalStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DatasetApprovalStatusHandler(r.Context(), r.PathValue("reference_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDescribeElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DescribeElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.UpdateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.UpdateElectionHandler(r.Context(), r.PathValue("election_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseDataOwnerElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.CloseDataOwnerElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeAccessElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.FinalizeAccessElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePairedRPElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.PairedRPElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalAccessVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.FinalAccessVoteHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCollectReadiness(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.CollectReadinessHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListVotesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req electionhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.CastVoteHandler(
		r.Context(),
		r.PathValue("vote_id"),
		r.PathValue("election_id"),
		userID,
		req,
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	err := s.elections.Handler.DeleteVoteHandler(
		r.Context(),
		r.PathValue("election_id"),
		r.PathValue("vote_id"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteVotes(w http.ResponseWriter, r *http.Request) {
	if err := s.elections.Handler.DeleteVotesHandler(r.Context(), r.PathValue("election_id")); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDescribeVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DescribeVoteHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.SendReminderHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsentElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ConsentElectionHandler(r.Context(), r.PathValue("consent_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDatasetElectionOpen(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DatasetElectionOpenHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsentPendingCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ConsentPendingCasesHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDataRequestPendingCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DataRequestPendingCasesHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDataOwnerPendingCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.DataOwnerPendingCasesHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch domainerrors.KindOf(err) {
	case domainerrors.KindNotFound:
		writeElectionError(w, http.StatusNotFound, "not_found", err.Error())
	case domainerrors.KindIllegalArgument:
		writeElectionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case domainerrors.KindIllegalState:
		writeElectionError(w, http.StatusConflict, errorCode(err), err.Error())
	case domainerrors.KindUnsupported:
		writeElectionError(w, http.StatusUnprocessableEntity, errorCode(err), err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// errorCode gives the conflict and unsupported buckets stable codes clients
// can branch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrOpenElectionExists):
		return "open_election_exists"
	case errors.Is(err, domainerrors.ErrNoEligibleVoters):
		return "no_eligible_voters"
	case errors.Is(err, domainerrors.ErrUseLimitationNotApproved):
		return "use_limitation_not_approved"
	case errors.Is(err, domainerrors.ErrInactiveDatasets):
		return "inactive_datasets"
	case errors.Is(err, domainerrors.ErrElectionNotOpen):
		return "election_not_open"
	case errors.Is(err, domainerrors.ErrUnsupportedTransition):
		return "unsupported_transition"
	case errors.Is(err, domainerrors.ErrDatasetOwnerDirectCreate):
		return "dataset_owner_direct_create"
	case errors.Is(err, domainerrors.ErrNotDatasetOwnerElection):
		return "not_dataset_owner_election"
	case errors.Is(err, domainerrors.ErrCollectConditionUnmetType):
		return "collect_unsupported_type"
	default:
		return "conflict"
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
