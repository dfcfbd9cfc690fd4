package repository

import (
	"context"
	"strings"

	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() bidconfigdomain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, cityID, nicheID string) ([]bidconfigdomain.BidConfiguration, error) {
	var configs []bidconfigdomain.BidConfiguration
	err := db.WithContext(ctx).
		Where("city_id = ? AND niche_id = ? AND active = ?", cityID, nicheID, true).
		Order("id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*bidconfigdomain.BidConfiguration, error) {
	var cfg bidconfigdomain.BidConfiguration
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM bid_configurations WHERE id = ?`,
		id,
	).Scan(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		return nil, nil
	}
	return &cfg, nil
}

// Upsert is used by seeding tools and tests; the advertiser-facing
// configuration API owns the table in production.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, cfg *bidconfigdomain.BidConfiguration) error {
	if strings.TrimSpace(cfg.ID) == "" || strings.TrimSpace(cfg.CompanyID) == "" {
		return bidconfigdomain.ErrMissingIdentifier
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			// created_at is a ranking tie-breaker and stays fixed.
			DoUpdates: clause.AssignmentColumns([]string{
				"company_id", "city_id", "niche_id", "mode",
				"bid_position1", "bid_position2", "bid_position3",
				"target_position", "target_share", "daily_budget",
				"pause_on_limit", "active",
			}),
		}).
		Create(cfg).Error
}
