package clock

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(
		New,
		func(cfg config.Config) (*BusinessCalendar, error) {
			return NewBusinessCalendar(cfg.BusinessTimezone)
		},
	),
)
