package migration

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StateInitializing = "initializing"
	StateActive       = "active"
)

// BootstrapState is the single row recording which schema a database runs.
// Services refuse to start until it matches their embedded migrations.
type BootstrapState struct {
	ID            bool       `gorm:"primaryKey;column:id"`
	Status        string     `gorm:"type:text;not null"`
	SchemaVersion string     `gorm:"type:text;not null"`
	Checksum      *string    `gorm:"type:text"`
	ActivatedAt   *time.Time `gorm:""`
	CreatedAt     time.Time  `gorm:"not null"`
}

func (BootstrapState) TableName() string { return "system_bootstrap_state" }

// activateBootstrapState marks the schema described by m as active.
func activateBootstrapState(ctx context.Context, conn *gorm.DB, m Manifest) error {
	if conn == nil {
		return errors.New("bootstrap state requires database handle")
	}

	now := time.Now().UTC()
	checksum := m.Checksum
	state := BootstrapState{
		ID:            true,
		Status:        StateActive,
		SchemaVersion: m.SchemaVersion(),
		Checksum:      &checksum,
		ActivatedAt:   &now,
		CreatedAt:     now,
	}
	return conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "schema_version", "checksum", "activated_at"}),
		}).
		Create(&state).Error
}
