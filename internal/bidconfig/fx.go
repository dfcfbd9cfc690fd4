package bidconfig

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("bidconfig",
	fx.Provide(repository.Provide),
)
