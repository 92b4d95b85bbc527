package order

import (
	"github.com/finwiselabs/finwise/internal/order/repository"
	"github.com/finwiselabs/finwise/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
