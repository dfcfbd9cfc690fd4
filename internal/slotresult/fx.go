package slotresult

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("slotresult",
	fx.Provide(repository.Provide),
)
