package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	bidescrow "agora/contexts/governance-core/bid-escrow"
	reputationledger "agora/contexts/governance-core/reputation-ledger"
	variablerepository "agora/contexts/governance-core/variable-repository"
	votingengine "agora/contexts/governance-core/voting-engine"
)

func newTestServer() *Server {
	ledger := reputationledger.NewInMemoryModule(slog.Default())
	votings := votingengine.NewInMemoryModule(ledger.Service, slog.Default())
	escrow := bidescrow.NewInMemoryModule(votings.Service, ledger.Service, slog.Default())
	return New(
		ledger,
		votings,
		variablerepository.NewInMemoryModule(slog.Default()),
		escrow,
		slog.Default(),
		":0",
	)
}

func TestLedgerMintRequiresCaller(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/reputation/mint", bytes.NewReader([]byte(`{
		"account":"alice",
		"amount":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLedgerMintRequiresWhitelisting(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/reputation/mint", bytes.NewReader([]byte(`{
		"account":"alice",
		"amount":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Address", "stranger")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLedgerMintRejectsMalformedBody(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/reputation/mint", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Address", "deployer")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVotingCreateRequiresCaller(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/votings", bytes.NewReader([]byte(`{
		"stake":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVotingLookupUnknownIDReturnsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/governance/v1/votings/999", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVotingVoteRejectsNonNumericID(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/votings/abc/vote", bytes.NewReader([]byte(`{
		"voting_type":"informal",
		"choice":"in_favor",
		"stake":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Address", "alice")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVariableUpdateRequiresCaller(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPut, "/governance/v1/variables/post_job_dos_fee", bytes.NewReader([]byte(`{
		"value":"500"
	}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVariableLookupUnknownKeyReturnsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/governance/v1/variables/no_such_parameter", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPostJobOfferRequiresCaller(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/job-offers", bytes.NewReader([]byte(`{
		"max_budget":"1000",
		"expected_timeframe":"24h",
		"dos_fee":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPostJobOfferRequiresKyc(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/job-offers", bytes.NewReader([]byte(`{
		"max_budget":"1000",
		"expected_timeframe":"24h",
		"dos_fee":"100"
	}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Address", "stranger")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestJobOfferLookupUnknownIDReturnsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/governance/v1/job-offers/999", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSlashRequiresCaller(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/governance/v1/slash", bytes.NewReader([]byte(`{
		"voter":"mallory"
	}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}
