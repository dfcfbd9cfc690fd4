package ranking

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ranking",
	fx.Provide(
		domain.LoadFromEnv,
		service.NewService,
	),
)
