package logger

import (
	"context"

	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"go.uber.org/zap"
)

// Provider writes messages to the application log. It is always registered
// so the outbox drains even without an external channel.
type Provider struct {
	log *zap.Logger
}

func NewProvider(log *zap.Logger) *Provider {
	return &Provider{log: log.Named("notification.provider.log")}
}

func (p *Provider) Send(_ context.Context, msg notificationdomain.Message) error {
	p.log.Info("advertiser notification",
		zap.String("notification_id", msg.NotificationID.String()),
		zap.String("company_id", msg.CompanyID),
		zap.String("kind", string(msg.Kind)),
		zap.String("text", msg.Text),
	)
	return nil
}
