package subscription

import (
	"github.com/finwiselabs/finwise/internal/subscription/repository"
	"github.com/finwiselabs/finwise/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
