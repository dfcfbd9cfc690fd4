package organic

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/organic/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organic",
	fx.Provide(service.NewRanker),
)
