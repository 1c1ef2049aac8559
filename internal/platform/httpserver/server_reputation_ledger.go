package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	ledgererrors "agora/contexts/governance-core/reputation-ledger/domain/errors"
	ledgerhttp "agora/contexts/governance-core/reputation-ledger/transport/http"
)

func (s *Server) registerReputationLedgerRoutes() {
	s.mux.HandleFunc("POST /governance/v1/reputation/mint", s.handleLedgerMint)
	s.mux.HandleFunc("POST /governance/v1/reputation/burn", s.handleLedgerBurn)
	s.mux.HandleFunc("POST /governance/v1/reputation/stake", s.handleLedgerStake)
	s.mux.HandleFunc("POST /governance/v1/reputation/unstake", s.handleLedgerUnstake)
	s.mux.HandleFunc("GET /governance/v1/reputation/accounts/{address}", s.handleLedgerAccount)
	s.mux.HandleFunc("GET /governance/v1/reputation/supply", s.handleLedgerSupply)
	s.mux.HandleFunc("GET /governance/v1/reputation/owner", s.handleLedgerOwner)
	s.mux.HandleFunc("POST /governance/v1/reputation/owner", s.handleLedgerChangeOwnership)
	s.mux.HandleFunc("POST /governance/v1/reputation/whitelist/add", s.handleLedgerWhitelistAdd)
	s.mux.HandleFunc("POST /governance/v1/reputation/whitelist/remove", s.handleLedgerWhitelistRemove)
}

func (s *Server) handleLedgerMint(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.MintHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerBurn(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.BurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.BurnHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerStake(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.StakeHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerUnstake(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.UnstakeHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerAccount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.AccountHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerSupply(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SupplyHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerOwner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.OwnerHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerChangeOwnership(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.OwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.ChangeOwnershipHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerWhitelistAdd(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.WhitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.AddToWhitelistHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLedgerWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req ledgerhttp.WhitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.ledger.Handler.RemoveFromWhitelistHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrNotWhitelisted):
		writeLedgerError(w, http.StatusForbidden, "not_whitelisted", err.Error())
	case errors.Is(err, ledgererrors.ErrNotAnOwner):
		writeLedgerError(w, http.StatusForbidden, "not_an_owner", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeLedgerError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrTotalSupplyOverflow):
		writeLedgerError(w, http.StatusConflict, "total_supply_overflow", err.Error())
	case errors.Is(err, ledgererrors.ErrCannotUnstakeMoreThanStaked):
		writeLedgerError(w, http.StatusConflict, "cannot_unstake_more_than_staked", err.Error())
	case errors.Is(err, ledgererrors.ErrZeroStake):
		writeLedgerError(w, http.StatusUnprocessableEntity, "zero_stake", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidRequest):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
