package service

import (
	"context"
	"fmt"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// minorUnitExponent converts minor currency units (cents) to major units.
const minorUnitExponent = -2

type SchedulerParams struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Store  notificationdomain.DedupeStore
	Repo   notificationdomain.Repository
	Config *notificationdomain.Config
}

type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	store notificationdomain.DedupeStore
	repo  notificationdomain.Repository
	cfg   notificationdomain.Config
}

func NewScheduler(p SchedulerParams) notificationdomain.Scheduler {
	cfg := notificationdomain.Config{}
	if p.Config != nil {
		cfg = *p.Config
	}
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("notification.scheduler"),
		genID: p.GenID,
		clock: p.Clock,
		store: p.Store,
		repo:  p.Repo,
		cfg:   cfg,
	}
}

func (s *Scheduler) Schedule(ctx context.Context, alert notificationdomain.Alert) (bool, error) {
	key, err := alert.DedupeKey()
	if err != nil {
		return false, err
	}

	claimed, err := s.store.Claim(ctx, key, s.cfg.DedupeTTL)
	if err != nil {
		observability.NotificationsTotal.WithLabelValues(string(alert.Kind), "failed").Inc()
		return false, fmt.Errorf("claim dedupe key: %w", err)
	}
	if !claimed {
		observability.NotificationsTotal.WithLabelValues(string(alert.Kind), "deduplicated").Inc()
		return false, nil
	}

	n := &notificationdomain.Notification{
		ID:        s.genID.Generate(),
		CompanyID: alert.CompanyID,
		ConfigID:  alert.ConfigID,
		Kind:      alert.Kind,
		DedupeKey: key,
		Payload:   payloadFor(alert),
		CreatedAt: s.clock.Now(ctx),
	}
	if err := s.repo.Insert(ctx, s.db, n); err != nil {
		// Give the next allocation a chance to record it.
		if releaseErr := s.store.Release(ctx, key); releaseErr != nil {
			s.log.Warn("failed to release dedupe key", zap.String("key", key), zap.Error(releaseErr))
		}
		observability.NotificationsTotal.WithLabelValues(string(alert.Kind), "failed").Inc()
		return false, fmt.Errorf("insert notification: %w", err)
	}

	observability.NotificationsTotal.WithLabelValues(string(alert.Kind), "scheduled").Inc()
	s.log.Info("advertiser notification scheduled",
		zap.String("kind", string(alert.Kind)),
		zap.String("company_id", alert.CompanyID),
		zap.String("config_id", alert.ConfigID),
		zap.String("notification_id", n.ID.String()),
	)
	return true, nil
}

func payloadFor(alert notificationdomain.Alert) datatypes.JSONMap {
	payload := datatypes.JSONMap{
		"city_id":  alert.CityID,
		"niche_id": alert.NicheID,
	}
	if alert.SearchID != "" {
		payload["search_id"] = alert.SearchID
	}
	if alert.Position > 0 {
		payload["position"] = alert.Position
	}
	if alert.BusinessDay != "" {
		payload["business_day"] = alert.BusinessDay
	}

	switch alert.Kind {
	case notificationdomain.KindDailyLimitReached:
		payload["daily_budget"] = formatMinor(alert.DailyBudget)
		payload["spent_today"] = formatMinor(alert.SpentToday)
	case notificationdomain.KindInsufficientBalance:
		payload["bid"] = formatMinor(alert.Bid)
		payload["balance"] = formatMinor(alert.Balance)
	case notificationdomain.KindOutbid:
		payload["bid"] = formatMinor(alert.Bid)
	}
	return payload
}

func formatMinor(amount int64) string {
	return decimal.New(amount, minorUnitExponent).StringFixed(2)
}
