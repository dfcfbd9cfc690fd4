package notification

import (
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/provider/logger"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/provider/slack"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/repository"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/service"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(
		domain.LoadFromEnv,
		repository.Provide,
		store.NewRedisStore,
		service.NewScheduler,
		service.NewDispatcher,
		func(cfg *domain.Config, log *zap.Logger) map[string]domain.Provider {
			providers := map[string]domain.Provider{
				"log": logger.NewProvider(log),
			}
			if cfg.SlackWebhookURL != "" {
				providers["slack"] = slack.NewProvider(cfg.SlackWebhookURL)
			}
			return providers
		},
	),
)
