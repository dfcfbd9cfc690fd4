package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnknownKind    = errors.New("unknown_notification_kind")
	ErrMissingConfig  = errors.New("missing_config_id")
	ErrMissingWebhook = errors.New("missing_webhook_url")
)

type Kind string

const (
	KindDailyLimitReached   Kind = "daily_limit_reached"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindOutbid              Kind = "outbid"
)

// Alert is one advertiser-facing side effect of a slot allocation.
type Alert struct {
	Kind        Kind
	CompanyID   string
	ConfigID    string
	CityID      string
	NicheID     string
	SearchID    string
	Position    int
	Bid         int64
	Balance     int64
	DailyBudget int64
	SpentToday  int64
	// BusinessDay is the calendar key (YYYY-MM-DD) in the business timezone.
	BusinessDay string
}

// DedupeKey returns the key under which repeated alerts collapse. Daily limit
// and outbid alerts repeat at most once per business day; balance alerts
// once per configuration until the key expires.
func (a Alert) DedupeKey() (string, error) {
	if a.ConfigID == "" {
		return "", ErrMissingConfig
	}
	switch a.Kind {
	case KindDailyLimitReached, KindOutbid:
		return fmt.Sprintf("%s:%s:%s", a.Kind, a.ConfigID, a.BusinessDay), nil
	case KindInsufficientBalance:
		return fmt.Sprintf("%s:%s", a.Kind, a.ConfigID), nil
	default:
		return "", ErrUnknownKind
	}
}

// Notification is the outbox row consumed by the dispatcher.
type Notification struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	CompanyID string            `gorm:"type:text;not null;index"`
	ConfigID  string            `gorm:"type:text;not null"`
	Kind      Kind              `gorm:"type:text;not null"`
	DedupeKey string            `gorm:"type:text;not null"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null"`
}

func (Notification) TableName() string { return "advertiser_notifications" }

// ConsumerOffset tracks the last outbox row a consumer has processed.
type ConsumerOffset struct {
	ConsumerID         string       `gorm:"primaryKey;type:text"`
	LastNotificationID snowflake.ID `gorm:"not null"`
	UpdatedAt          time.Time    `gorm:"not null"`
}

func (ConsumerOffset) TableName() string { return "notification_consumer_offsets" }

// Scheduler records alerts. It returns false when the alert was collapsed
// into an earlier one with the same dedupe key.
type Scheduler interface {
	Schedule(ctx context.Context, alert Alert) (bool, error)
}

// DedupeStore claims keys for a bounded time.
type DedupeStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Message struct {
	NotificationID snowflake.ID
	CompanyID      string
	Kind           Kind
	Text           string
	Data           map[string]any
}

// Provider delivers a message to one external channel.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, n *Notification) error
	ListAfter(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Notification, error)
	GetOffset(ctx context.Context, db *gorm.DB, consumerID string) (snowflake.ID, error)
	SaveOffset(ctx context.Context, db *gorm.DB, consumerID string, id snowflake.ID, now time.Time) error
}
