package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	escrowerrors "agora/contexts/governance-core/bid-escrow/domain/errors"
	escrowhttp "agora/contexts/governance-core/bid-escrow/transport/http"
)

func (s *Server) registerBidEscrowRoutes() {
	s.mux.HandleFunc("POST /governance/v1/job-offers", s.handlePostJobOffer)
	s.mux.HandleFunc("GET /governance/v1/job-offers/{job_offer_id}", s.handleGetJobOffer)
	s.mux.HandleFunc("POST /governance/v1/job-offers/{job_offer_id}/bids", s.handleSubmitBid)
	s.mux.HandleFunc("GET /governance/v1/job-offers/{job_offer_id}/bids", s.handleListBids)
	s.mux.HandleFunc("POST /governance/v1/job-offers/{job_offer_id}/pick-bid", s.handlePickBid)
	s.mux.HandleFunc("POST /governance/v1/job-offers/{job_offer_id}/cancel", s.handleCancelJobOffer)
	s.mux.HandleFunc("POST /governance/v1/bids/{bid_id}/cancel", s.handleCancelBid)
	s.mux.HandleFunc("GET /governance/v1/jobs/{job_id}", s.handleGetJob)
	s.mux.HandleFunc("POST /governance/v1/jobs/{job_id}/proof", s.handleSubmitJobProof)
	s.mux.HandleFunc("POST /governance/v1/jobs/{job_id}/grace-period-proof", s.handleGracePeriodProof)
	s.mux.HandleFunc("POST /governance/v1/jobs/{job_id}/vote", s.handleJobVote)
	s.mux.HandleFunc("POST /governance/v1/jobs/{job_id}/finish", s.handleJobFinishVoting)
	s.mux.HandleFunc("POST /governance/v1/jobs/{job_id}/cancel", s.handleCancelJob)
	s.mux.HandleFunc("POST /governance/v1/slash", s.handleEscrowSlashVoter)
}

func (s *Server) handlePostJobOffer(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req escrowhttp.PostJobOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.PostJobOfferHandler(r.Context(), caller, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetJobOffer(w http.ResponseWriter, r *http.Request) {
	offerID, ok := parseID(r.PathValue("job_offer_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_offer_id", "job_offer_id must be an unsigned integer")
		return
	}
	resp, err := s.escrow.Handler.JobOfferHandler(r.Context(), offerID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	offerID, ok := parseID(r.PathValue("job_offer_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_offer_id", "job_offer_id must be an unsigned integer")
		return
	}
	var req escrowhttp.SubmitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.SubmitBidHandler(r.Context(), offerID, caller, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	offerID, ok := parseID(r.PathValue("job_offer_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_offer_id", "job_offer_id must be an unsigned integer")
		return
	}
	resp, err := s.escrow.Handler.BidsHandler(r.Context(), offerID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePickBid(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	offerID, ok := parseID(r.PathValue("job_offer_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_offer_id", "job_offer_id must be an unsigned integer")
		return
	}
	var req escrowhttp.PickBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.PickBidHandler(r.Context(), offerID, caller, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCancelJobOffer(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	offerID, ok := parseID(r.PathValue("job_offer_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_offer_id", "job_offer_id must be an unsigned integer")
		return
	}
	if err := s.escrow.Handler.CancelJobOfferHandler(r.Context(), offerID, caller); err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelBid(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	bidID, ok := parseID(r.PathValue("bid_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_bid_id", "bid_id must be an unsigned integer")
		return
	}
	if err := s.escrow.Handler.CancelBidHandler(r.Context(), bidID, caller); err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	resp, err := s.escrow.Handler.JobHandler(r.Context(), jobID)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitJobProof(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	var req escrowhttp.SubmitJobProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.SubmitJobProofHandler(r.Context(), jobID, caller, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGracePeriodProof(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	var req escrowhttp.GracePeriodProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.GracePeriodProofHandler(r.Context(), jobID, caller, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobVote(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	var req escrowhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.escrow.Handler.VoteHandler(r.Context(), jobID, caller, req); err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJobFinishVoting(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	var req escrowhttp.FinishVotingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.FinishVotingHandler(r.Context(), jobID, req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	jobID, ok := parseID(r.PathValue("job_id"))
	if !ok {
		writeEscrowError(w, http.StatusBadRequest, "invalid_job_id", "job_id must be an unsigned integer")
		return
	}
	if err := s.escrow.Handler.CancelJobHandler(r.Context(), jobID, caller); err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEscrowSlashVoter(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeEscrowError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req escrowhttp.SlashVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEscrowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.escrow.Handler.SlashVoterHandler(r.Context(), req)
	if err != nil {
		writeEscrowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEscrowDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, escrowerrors.ErrJobOfferDoesNotExist),
		errors.Is(err, escrowerrors.ErrBidDoesNotExist),
		errors.Is(err, escrowerrors.ErrJobDoesNotExist):
		writeEscrowError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, escrowerrors.ErrNotKycd),
		errors.Is(err, escrowerrors.ErrPosterCannotBid),
		errors.Is(err, escrowerrors.ErrOnlyOnboardedWorkerCanBid),
		errors.Is(err, escrowerrors.ErrVACannotBidOnPublicAuction),
		errors.Is(err, escrowerrors.ErrCannotCancelNotOwnedBid),
		errors.Is(err, escrowerrors.ErrOnlyJobPosterCanPickABid),
		errors.Is(err, escrowerrors.ErrOnlyJobPosterCanCancelJobOffer),
		errors.Is(err, escrowerrors.ErrOnlyWorkerCanSubmitProof),
		errors.Is(err, escrowerrors.ErrOnlyJobPosterCanCancelJob),
		errors.Is(err, escrowerrors.ErrCannotVoteOnOwnJob):
		writeEscrowError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, escrowerrors.ErrAuctionNotRunning),
		errors.Is(err, escrowerrors.ErrWorkerAlreadyOnboarded),
		errors.Is(err, escrowerrors.ErrCannotCancelBidBeforeAcceptanceTimeout),
		errors.Is(err, escrowerrors.ErrCannotCancelBidOnCompletedJobOffer),
		errors.Is(err, escrowerrors.ErrJobOfferCannotBeYetCanceled),
		errors.Is(err, escrowerrors.ErrJobAlreadySubmitted),
		errors.Is(err, escrowerrors.ErrJobProofNotSubmitted),
		errors.Is(err, escrowerrors.ErrNotInGracePeriod),
		errors.Is(err, escrowerrors.ErrCannotCancelJob):
		writeEscrowError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, escrowerrors.ErrDOSFeeTooLow),
		errors.Is(err, escrowerrors.ErrPaymentExceedsMaxBudget),
		errors.Is(err, escrowerrors.ErrZeroStake),
		errors.Is(err, escrowerrors.ErrNotOnboardedWorkerMustStakeCurrency),
		errors.Is(err, escrowerrors.ErrOnboardedWorkerCannotStakeCurrency),
		errors.Is(err, escrowerrors.ErrCannotStakeBothCurrencyAndReputation),
		errors.Is(err, escrowerrors.ErrAttachedValueMismatch):
		writeEscrowError(w, http.StatusUnprocessableEntity, "unprocessable", err.Error())
	case errors.Is(err, escrowerrors.ErrInvalidRequest):
		writeEscrowError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeEscrowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEscrowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, escrowhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
