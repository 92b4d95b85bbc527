package customer

import (
	"github.com/finwiselabs/finwise/internal/customer/repository"
	"github.com/finwiselabs/finwise/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
