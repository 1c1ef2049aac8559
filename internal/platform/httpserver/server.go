package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	bidescrow "agora/contexts/governance-core/bid-escrow"
	reputationledger "agora/contexts/governance-core/reputation-ledger"
	variablerepository "agora/contexts/governance-core/variable-repository"
	votingengine "agora/contexts/governance-core/voting-engine"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	ledger    reputationledger.Module
	votings   votingengine.Module
	variables variablerepository.Module
	escrow    bidescrow.Module
}

func New(
	ledger reputationledger.Module,
	votings votingengine.Module,
	variables variablerepository.Module,
	escrow bidescrow.Module,
	logger *slog.Logger,
	addr string,
) *Server {
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
		ledger:    ledger,
		votings:   votings,
		variables: variables,
		escrow:    escrow,
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

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.registerReputationLedgerRoutes()
	s.registerVotingEngineRoutes()
	s.registerVariableRepositoryRoutes()
	s.registerBidEscrowRoutes()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// resolveCaller identifies the acting account. Signature verification lives
// at the gateway; this service trusts the forwarded address header.
func resolveCaller(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Caller-Address"))
}

func parseID(raw string) (uint32, bool) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(value), true
}
