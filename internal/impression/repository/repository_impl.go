package repository

import (
	"context"
	"errors"
	"strings"

	impressiondomain "github.com/FelipeFraul/buscai-v2-sub000/internal/impression/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() impressiondomain.Repository {
	return &repo{}
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, searchID, companyID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&impressiondomain.Event{}).
		Where("search_id = ? AND company_id = ? AND type = ?", searchID, companyID, impressiondomain.TypeImpression).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *impressiondomain.Event) (bool, error) {
	if event.Type == "" {
		event.Type = impressiondomain.TypeImpression
	}
	err := db.WithContext(ctx).Create(event).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, searchID, companyID string) error {
	return db.WithContext(ctx).
		Where("search_id = ? AND company_id = ? AND type = ?", searchID, companyID, impressiondomain.TypeImpression).
		Delete(&impressiondomain.Event{}).Error
}

// isUniqueViolation accepts both the translated gorm error and the raw
// driver messages, since not every dialector translates constraint errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
