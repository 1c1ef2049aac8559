package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	variableerrors "agora/contexts/governance-core/variable-repository/domain/errors"
	variablehttp "agora/contexts/governance-core/variable-repository/transport/http"
)

func (s *Server) registerVariableRepositoryRoutes() {
	s.mux.HandleFunc("GET /governance/v1/variables", s.handleListVariables)
	s.mux.HandleFunc("GET /governance/v1/variables/{key}", s.handleGetVariable)
	s.mux.HandleFunc("PUT /governance/v1/variables/{key}", s.handleUpdateVariable)
}

func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	resp, err := s.variables.Handler.ListVariablesHandler(r.Context())
	if err != nil {
		writeVariableDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVariable(w http.ResponseWriter, r *http.Request) {
	resp, err := s.variables.Handler.VariableHandler(r.Context(), r.PathValue("key"))
	if err != nil {
		writeVariableDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateVariable(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(r)
	if caller == "" {
		writeVariableError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	var req variablehttp.UpdateVariableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVariableError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.variables.Handler.UpdateVariableHandler(r.Context(), caller, r.PathValue("key"), req); err != nil {
		writeVariableDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeVariableDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, variableerrors.ErrVariableNotFound):
		writeVariableError(w, http.StatusNotFound, "variable_not_found", err.Error())
	case errors.Is(err, variableerrors.ErrNotWhitelisted):
		writeVariableError(w, http.StatusForbidden, "not_whitelisted", err.Error())
	case errors.Is(err, variableerrors.ErrActivationTimeInPast):
		writeVariableError(w, http.StatusUnprocessableEntity, "activation_time_in_past", err.Error())
	case errors.Is(err, variableerrors.ErrInvalidValue),
		errors.Is(err, variableerrors.ErrInvalidRequest):
		writeVariableError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeVariableError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVariableError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, variablehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
