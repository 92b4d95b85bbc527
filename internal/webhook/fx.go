package webhook

import (
	"github.com/finwiselabs/finwise/internal/webhook/repository"
	"github.com/finwiselabs/finwise/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
