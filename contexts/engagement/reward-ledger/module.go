package rewardledger

import (
	"log/slog"

	httpadapter "greenloop/contexts/engagement/reward-ledger/adapters/http"
	"greenloop/contexts/engagement/reward-ledger/adapters/memory"
	"greenloop/contexts/engagement/reward-ledger/application"
	"greenloop/contexts/engagement/reward-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seedUsers []ports.UserProjection, seedRewards []ports.Reward, logger *slog.Logger) Module {
	store := memory.NewStore(seedUsers, seedRewards)
	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
