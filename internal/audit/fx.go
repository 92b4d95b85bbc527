package audit

import (
	"github.com/finwiselabs/finwise/internal/audit/repository"
	"github.com/finwiselabs/finwise/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
