package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// ListActive returns every active configuration for a (city, niche) market.
	ListActive(ctx context.Context, db *gorm.DB, cityID, nicheID string) ([]BidConfiguration, error)
	FindByID(ctx context.Context, db *gorm.DB, id string) (*BidConfiguration, error)
	Upsert(ctx context.Context, db *gorm.DB, cfg *BidConfiguration) error
}
