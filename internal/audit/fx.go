package audit

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/audit/repository"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(service.NewExportService),
)
