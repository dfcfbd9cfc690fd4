package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrInvalidPosition = errors.New("invalid_slot_position")

// MaxPosition is the number of placements shown per search.
const MaxPosition = 5

type Channel string

const (
	// ChannelWeb is synchronous: the result is rendered in the same request.
	ChannelWeb Channel = "web"
	// ChannelWhatsApp delivers results after ranking, so charging is deferred.
	ChannelWhatsApp Channel = "whatsapp"
)

// Deferred reports whether delivery happens after the ranking decision.
func (c Channel) Deferred() bool {
	return c == ChannelWhatsApp
}

type SlotResult struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	SearchID        string       `gorm:"type:text;not null;index:idx_slot_results_search"`
	CompanyID       string       `gorm:"type:text;not null"`
	ConfigID        string       `gorm:"type:text"`
	CityID          string       `gorm:"type:text"`
	NicheID         string       `gorm:"type:text"`
	Channel         Channel      `gorm:"type:text"`
	Position        int          `gorm:"not null"`
	IsPaid          bool         `gorm:"not null"`
	ChargedAmount   int64        `gorm:"not null"`
	ClickTrackingID *string      `gorm:"type:text"`
	CreatedAt       time.Time    `gorm:"not null"`
	UpdatedAt       time.Time    `gorm:"not null"`
}

func (SlotResult) TableName() string { return "search_slot_results" }

// Demote turns a paid placement into an unpaid one.
func (r *SlotResult) Demote() {
	r.IsPaid = false
	r.ChargedAmount = 0
}

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, results []SlotResult) error
	ListBySearch(ctx context.Context, db *gorm.DB, searchID string) ([]SlotResult, error)
	// Demote clears the paid flag and charge for one company in a search.
	Demote(ctx context.Context, db *gorm.DB, searchID, companyID string, now time.Time) error
}
