package bidescrow

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/bid-escrow/adapters/http"
	"agora/contexts/governance-core/bid-escrow/adapters/memory"
	"agora/contexts/governance-core/bid-escrow/application"
	"agora/contexts/governance-core/bid-escrow/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo       ports.EscrowRepository
	Voting     ports.VotingEngine
	Ledger     ports.ReputationLedger
	Membership ports.MembershipToken
	Kyc        ports.KycToken
	Treasury   ports.Treasury
	Config     ports.ConfigurationSource
	Sequence   ports.SequenceGenerator
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:       deps.Repo,
		Voting:     deps.Voting,
		Ledger:     deps.Ledger,
		Membership: deps.Membership,
		Kyc:        deps.Kyc,
		Treasury:   deps.Treasury,
		Config:     deps.Config,
		Sequence:   deps.Sequence,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Escrow: service,
			Logger: deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the escrow against the in-memory store and the
// given voting engine and ledger. The store stands in for membership, kyc,
// treasury, and configuration too.
func NewInMemoryModule(voting ports.VotingEngine, ledger ports.ReputationLedger, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:       store,
		Voting:     voting,
		Ledger:     ledger,
		Membership: store,
		Kyc:        store,
		Treasury:   store,
		Config:     store,
		Sequence:   store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
