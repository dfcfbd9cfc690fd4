package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActorType string

const (
	ActorTypeSystem ActorType = "system"
	ActorTypeUser   ActorType = "user"
)

const (
	ActionImpressionChargeFailed = "impression_charge_failed"
	ActionRechargeConfirmed      = "wallet.recharge_confirmed"
	ActionRechargeCancelled      = "wallet.recharge_cancelled"
)

type AuditLog struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ActorType  string       `gorm:"type:text;not null"`
	ActorID    *string      `gorm:"type:text"`
	Action     string       `gorm:"type:text;not null;index"`
	TargetType string       `gorm:"type:text;not null"`
	TargetID   *string      `gorm:"type:text"`
	// CompanyID is lifted from metadata so exports can filter by advertiser.
	CompanyID *string           `gorm:"type:text;index"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	AuditLog(ctx context.Context, actorType ActorType, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

type ListFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Actions   []string
	CompanyID string
	// TargetType and TargetID narrow to one audited object, e.g. a search.
	TargetType string
	TargetID   string
}
