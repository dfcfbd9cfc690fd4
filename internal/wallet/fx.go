package wallet

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/repository"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
