package company

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/company/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("company",
	fx.Provide(repository.Provide),
)
