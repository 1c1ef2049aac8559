package reputationledger

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/reputation-ledger/adapters/http"
	"agora/contexts/governance-core/reputation-ledger/adapters/memory"
	"agora/contexts/governance-core/reputation-ledger/application"
	"agora/contexts/governance-core/reputation-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.BalanceRepository
	Access ports.AccessControl
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Access: deps.Access,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger: service,
			Logger: deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Access: store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
