package impression

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/impression/repository"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/impression/service"
	"go.uber.org/fx"
)

var Module = fx.Module("impression",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
