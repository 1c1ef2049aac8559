package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	votingerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	votinghttp "agora/contexts/governance-core/voting-engine/transport/http"
)

func (s *Server) registerVotingEngineRoutes() {
	s.mux.HandleFunc("POST /governance/v1/votings", s.handleCreateVoting)
	s.mux.HandleFunc("GET /governance/v1/votings/{voting_id}", s.handleGetVoting)
	s.mux.HandleFunc("POST /governance/v1/votings/{voting_id}/vote", s.handleVote)
	s.mux.HandleFunc("POST /governance/v1/votings/{voting_id}/finish", s.handleFinishVoting)
	s.mux.HandleFunc("POST /governance/v1/votings/slash", s.handleSlashVoter)
}

func (s *Server) handleCreateVoting(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req votinghttp.CreateVotingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votings.Handler.CreateVotingHandler(r.Context(), caller, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetVoting(w http.ResponseWriter, r *http.Request) {
	votingID, ok := parseID(r.PathValue("voting_id"))
	if !ok {
		writeVotingError(w, http.StatusBadRequest, "invalid_voting_id", "voting_id must be an unsigned integer")
		return
	}
	resp, err := s.votings.Handler.VotingHandler(r.Context(), votingID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	votingID, ok := parseID(r.PathValue("voting_id"))
	if !ok {
		writeVotingError(w, http.StatusBadRequest, "invalid_voting_id", "voting_id must be an unsigned integer")
		return
	}
	var req votinghttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.votings.Handler.VoteHandler(r.Context(), votingID, caller, req); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishVoting(w http.ResponseWriter, r *http.Request) {
	votingID, ok := parseID(r.PathValue("voting_id"))
	if !ok {
		writeVotingError(w, http.StatusBadRequest, "invalid_voting_id", "voting_id must be an unsigned integer")
		return
	}
	var req votinghttp.FinishVotingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votings.Handler.FinishVotingHandler(r.Context(), votingID, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSlashVoter(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req votinghttp.SlashVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.votings.Handler.SlashVoterHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrVotingDoesNotExist),
		errors.Is(err, votingerrors.ErrBallotDoesNotExist):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, votingerrors.ErrNotOnboarded):
		writeVotingError(w, http.StatusForbidden, "not_onboarded", err.Error())
	case errors.Is(err, votingerrors.ErrCannotVoteTwice),
		errors.Is(err, votingerrors.ErrFinishingCompletedVotingNotAllowed),
		errors.Is(err, votingerrors.ErrVotingWithGivenTypeNotInProgress),
		errors.Is(err, votingerrors.ErrVoteOnCompletedVotingNotAllowed),
		errors.Is(err, votingerrors.ErrVotingAlreadyCanceled):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, votingerrors.ErrInformalVotingTimeNotReached),
		errors.Is(err, votingerrors.ErrFormalVotingTimeNotReached):
		writeVotingError(w, http.StatusUnprocessableEntity, "voting_time_not_reached", err.Error())
	case errors.Is(err, votingerrors.ErrZeroStake):
		writeVotingError(w, http.StatusUnprocessableEntity, "zero_stake", err.Error())
	case errors.Is(err, votingerrors.ErrConfigurationNotFound),
		errors.Is(err, votingerrors.ErrInvalidRequest):
		writeVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
