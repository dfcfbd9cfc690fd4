package migration

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		m, err := Run(conn, cfg.DBDriver)
		if err != nil {
			return err
		}
		log.Named("migration").Info("schema active",
			zap.String("driver", cfg.DBDriver),
			zap.Uint("version", m.Version),
			zap.String("checksum", m.Checksum),
		)
		return nil
	}),
)
