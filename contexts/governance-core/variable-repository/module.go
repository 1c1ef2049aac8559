package variablerepository

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/variable-repository/adapters/http"
	"agora/contexts/governance-core/variable-repository/adapters/memory"
	"agora/contexts/governance-core/variable-repository/application"
	"agora/contexts/governance-core/variable-repository/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo       ports.RecordRepository
	Access     ports.Whitelist
	Membership ports.MembershipToken
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:       deps.Repo,
		Access:     deps.Access,
		Membership: deps.Membership,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Variables: service,
			Logger:    deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:       store,
		Access:     store,
		Membership: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
