package search

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/search/service"
	"go.uber.org/fx"
)

var Module = fx.Module("search",
	fx.Provide(service.NewService),
)
