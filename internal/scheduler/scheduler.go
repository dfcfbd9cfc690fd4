package scheduler

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	notificationservice "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	TickInterval              time.Duration
	NotificationRetentionDays int
	// MaxDispatchBatches caps how many outbox batches one tick drains.
	MaxDispatchBatches int
}

func LoadFromEnv() *Config {
	return &Config{
		TickInterval:              getEnvDuration("SCHEDULER_TICK_INTERVAL", 30*time.Second),
		NotificationRetentionDays: getEnvInt("NOTIFICATION_RETENTION_DAYS", 30),
		MaxDispatchBatches:        getEnvInt("SCHEDULER_MAX_DISPATCH_BATCHES", 20),
	}
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     *Config
	Dispatcher *notificationservice.Dispatcher
}

// Scheduler runs the background jobs of the notification pipeline.
type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	cfg        Config
	dispatcher *notificationservice.Dispatcher
}

func New(p Params) *Scheduler {
	cfg := Config{}
	if p.Config != nil {
		cfg = *p.Config
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.MaxDispatchBatches <= 0 {
		cfg.MaxDispatchBatches = 20
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler"),
		clock:      p.Clock,
		cfg:        cfg,
		dispatcher: p.Dispatcher,
	}
}

// RunOnce executes every job a single time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.DispatchNotificationsJob(ctx); err != nil {
		return err
	}
	return s.CleanupNotificationsJob(ctx)
}

// Run ticks until ctx is cancelled. Job errors are logged and retried on the
// next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.TickInterval))
	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("scheduler tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchNotificationsJob drains the outbox until a batch comes back empty.
func (s *Scheduler) DispatchNotificationsJob(ctx context.Context) error {
	total := 0
	for i := 0; i < s.cfg.MaxDispatchBatches; i++ {
		n, err := s.dispatcher.ProcessPending(ctx)
		if err != nil {
			s.log.Error("dispatch notifications failed", zap.Int("dispatched", total), zap.Error(err))
			return err
		}
		total += n
		if n == 0 {
			break
		}
	}
	if total > 0 {
		s.log.Info("dispatched notifications", zap.Int("count", total))
	}
	return nil
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return i
}
