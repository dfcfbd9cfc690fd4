package repository

import (
	"context"

	auditdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() auditdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, log *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter auditdomain.ListFilter) ([]auditdomain.AuditLog, error) {
	query := db.WithContext(ctx).Model(&auditdomain.AuditLog{}).
		Where("created_at >= ? AND created_at < ?", filter.StartDate.UTC(), filter.EndDate.UTC())
	if len(filter.Actions) > 0 {
		query = query.Where("action IN ?", filter.Actions)
	}
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ? AND target_id = ?", filter.TargetType, filter.TargetID)
	}

	var logs []auditdomain.AuditLog
	if err := query.Order("created_at ASC").Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
