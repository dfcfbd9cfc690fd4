package repository

import (
	"context"
	"time"

	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() slotresultdomain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, results []slotresultdomain.SlotResult) error {
	if len(results) == 0 {
		return nil
	}
	for _, res := range results {
		if res.Position < 1 || res.Position > slotresultdomain.MaxPosition {
			return slotresultdomain.ErrInvalidPosition
		}
	}
	return db.WithContext(ctx).Create(&results).Error
}

func (r *repo) ListBySearch(ctx context.Context, db *gorm.DB, searchID string) ([]slotresultdomain.SlotResult, error) {
	var results []slotresultdomain.SlotResult
	err := db.WithContext(ctx).
		Where("search_id = ?", searchID).
		Order("position ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repo) Demote(ctx context.Context, db *gorm.DB, searchID, companyID string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&slotresultdomain.SlotResult{}).
		Where("search_id = ? AND company_id = ?", searchID, companyID).
		Updates(map[string]any{
			"is_paid":        false,
			"charged_amount": 0,
			"updated_at":     now,
		}).Error
}
