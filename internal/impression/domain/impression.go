package domain

import (
	"context"
	"time"

	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const TypeImpression = "impression"

// ChargeReason is the ledger reason written for delayed impression debits.
const ChargeReason = "search_impression"

// Event guards delayed charging: at most one row exists per
// (search, company, type), enforced by the unique index.
type Event struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SearchID  string       `gorm:"type:text;not null;uniqueIndex:ux_impression_events_search_company_type"`
	CompanyID string       `gorm:"type:text;not null;uniqueIndex:ux_impression_events_search_company_type"`
	Type      string       `gorm:"type:text;not null;uniqueIndex:ux_impression_events_search_company_type"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (Event) TableName() string { return "impression_events" }

type Service interface {
	// Settle charges each paid, billable result once. Results whose charge
	// fails are returned demoted.
	Settle(ctx context.Context, searchID string, results []slotresultdomain.SlotResult) ([]slotresultdomain.SlotResult, error)
}

type Repository interface {
	Exists(ctx context.Context, db *gorm.DB, searchID, companyID string) (bool, error)
	// Insert reports false when another writer already recorded the event.
	Insert(ctx context.Context, db *gorm.DB, event *Event) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, searchID, companyID string) error
}
