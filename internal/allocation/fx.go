package allocation

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation",
	fx.Provide(service.NewService),
)
