package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	bidescrow "agora/contexts/governance-core/bid-escrow"
	escrowmemory "agora/contexts/governance-core/bid-escrow/adapters/memory"
	reputationledger "agora/contexts/governance-core/reputation-ledger"
	ledgerpostgres "agora/contexts/governance-core/reputation-ledger/adapters/postgres"
	ledgerworkers "agora/contexts/governance-core/reputation-ledger/application/workers"
	variablerepository "agora/contexts/governance-core/variable-repository"
	variablememory "agora/contexts/governance-core/variable-repository/adapters/memory"
	votingengine "agora/contexts/governance-core/voting-engine"
	votingmemory "agora/contexts/governance-core/voting-engine/adapters/memory"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	ledgerRelay  ledgerworkers.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := reputationledger.NewModule(reputationledger.Dependencies{
		Repo:   ledgerRepo,
		Access: ledgerRepo,
		Outbox: ledgerRepo,
		Clock:  ledgerpostgres.SystemClock{},
		IDGen:  ledgerpostgres.UUIDGenerator{},
		Logger: logger,
	})

	// The escrow store doubles as the membership, kyc, and treasury source
	// until those move behind their own persistence.
	escrowStore := escrowmemory.NewStore()

	variableModule := variablerepository.NewModule(variablerepository.Dependencies{
		Repo:       variablememory.NewStore(),
		Access:     ledgerRepo,
		Membership: escrowStore,
		Clock:      ledgerpostgres.SystemClock{},
		Logger:     logger,
	})

	votingStore := votingmemory.NewStore()
	votingModule := votingengine.NewModule(votingengine.Dependencies{
		Repo:       votingStore,
		Sequence:   votingStore,
		Ledger:     ledgerModule.Service,
		Membership: escrowStore,
		Config:     variableModule.Service,
		Outbox:     votingStore,
		Clock:      ledgerpostgres.SystemClock{},
		IDGen:      ledgerpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	escrowModule := bidescrow.NewModule(bidescrow.Dependencies{
		Repo:       escrowStore,
		Voting:     votingModule.Service,
		Ledger:     ledgerModule.Service,
		Membership: escrowStore,
		Kyc:        escrowStore,
		Treasury:   escrowStore,
		Config:     variableModule.Service,
		Sequence:   escrowStore,
		Outbox:     escrowStore,
		Clock:      ledgerpostgres.SystemClock{},
		IDGen:      ledgerpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	server := httpserver.New(ledgerModule, votingModule, variableModule, escrowModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		ledgerRelay: ledgerworkers.OutboxRelay{
			Outbox:    ledgerRepo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableLedgerOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.relayEnabled {
			if err := w.ledgerRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
