package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DispatcherConsumerID = "advertiser_notification_dispatcher"

type DispatcherParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      notificationdomain.Repository
	Config    *notificationdomain.Config
	Providers map[string]notificationdomain.Provider
}

// Dispatcher drains the notification outbox into the configured providers.
type Dispatcher struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      notificationdomain.Repository
	batchSize int
	providers map[string]notificationdomain.Provider
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	batch := 50
	if p.Config != nil && p.Config.DispatchBatchSize > 0 {
		batch = p.Config.DispatchBatchSize
	}
	return &Dispatcher{
		db:        p.DB,
		log:       p.Log.Named("notification.dispatcher"),
		clock:     p.Clock,
		repo:      p.Repo,
		batchSize: batch,
		providers: p.Providers,
	}
}

// ProcessPending sends one batch and returns how many rows it consumed.
// Provider failures are logged; the offset still advances.
func (d *Dispatcher) ProcessPending(ctx context.Context) (int, error) {
	lastID, err := d.repo.GetOffset(ctx, d.db, DispatcherConsumerID)
	if err != nil {
		return 0, err
	}

	rows, err := d.repo.ListAfter(ctx, d.db, lastID, d.batchSize)
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		d.dispatch(ctx, row)

		// Advance after every row so a crash never resends a whole batch.
		if err := d.repo.SaveOffset(ctx, d.db, DispatcherConsumerID, row.ID, d.clock.Now(ctx)); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, row notificationdomain.Notification) {
	msg := notificationdomain.Message{
		NotificationID: row.ID,
		CompanyID:      row.CompanyID,
		Kind:           row.Kind,
		Text:           renderText(row),
		Data:           map[string]any(row.Payload),
	}

	for _, name := range d.providerNames() {
		if err := d.providers[name].Send(ctx, msg); err != nil {
			observability.NotificationsTotal.WithLabelValues(string(row.Kind), "delivery_failed").Inc()
			d.log.Warn("notification provider failed",
				zap.Error(err),
				zap.String("provider", name),
				zap.String("notification_id", row.ID.String()),
			)
			continue
		}
		observability.NotificationsTotal.WithLabelValues(string(row.Kind), "delivered").Inc()
	}
}

func (d *Dispatcher) providerNames() []string {
	names := make([]string, 0, len(d.providers))
	for name := range d.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderText(row notificationdomain.Notification) string {
	get := func(key string) string {
		if v, ok := row.Payload[key]; ok {
			return fmt.Sprint(v)
		}
		return "-"
	}

	var b strings.Builder
	switch row.Kind {
	case notificationdomain.KindDailyLimitReached:
		fmt.Fprintf(&b, "Daily budget reached for configuration %s (spent %s of %s)", row.ConfigID, get("spent_today"), get("daily_budget"))
	case notificationdomain.KindInsufficientBalance:
		fmt.Fprintf(&b, "Insufficient balance for configuration %s (bid %s, balance %s)", row.ConfigID, get("bid"), get("balance"))
	case notificationdomain.KindOutbid:
		fmt.Fprintf(&b, "Configuration %s was outbid at %s", row.ConfigID, get("bid"))
	default:
		fmt.Fprintf(&b, "Notification %s for configuration %s", row.Kind, row.ConfigID)
	}
	return b.String()
}
