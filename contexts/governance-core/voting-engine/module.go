package votingengine

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/voting-engine/adapters/http"
	"agora/contexts/governance-core/voting-engine/adapters/memory"
	"agora/contexts/governance-core/voting-engine/application"
	"agora/contexts/governance-core/voting-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo       ports.VotingRepository
	Sequence   ports.SequenceGenerator
	Ledger     ports.ReputationLedger
	Membership ports.MembershipToken
	Config     ports.ConfigurationSource
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:       deps.Repo,
		Sequence:   deps.Sequence,
		Ledger:     deps.Ledger,
		Membership: deps.Membership,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votings: service,
			Config:  deps.Config,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the engine against the in-memory store and the
// given ledger. The store stands in for membership and configuration too.
func NewInMemoryModule(ledger ports.ReputationLedger, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:       store,
		Sequence:   store,
		Ledger:     ledger,
		Membership: store,
		Config:     store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
