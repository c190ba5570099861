package notificationservice

import (
	"log/slog"

	httpadapter "greenloop/contexts/engagement/notification-service/adapters/http"
	"greenloop/contexts/engagement/notification-service/adapters/memory"
	"greenloop/contexts/engagement/notification-service/application"
	"greenloop/contexts/engagement/notification-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Consumer application.Consumer
	Store    *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Consumer: application.Consumer{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
