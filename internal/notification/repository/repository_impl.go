package repository

import (
	"context"
	"time"

	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() notificationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *notificationdomain.Notification) error {
	return db.WithContext(ctx).Create(n).Error
}

func (r *repo) ListAfter(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]notificationdomain.Notification, error) {
	var rows []notificationdomain.Notification
	err := db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) GetOffset(ctx context.Context, db *gorm.DB, consumerID string) (snowflake.ID, error) {
	var offset struct {
		LastNotificationID snowflake.ID
	}
	err := db.WithContext(ctx).Raw(
		`SELECT last_notification_id FROM notification_consumer_offsets WHERE consumer_id = ?`,
		consumerID,
	).Scan(&offset).Error
	if err != nil {
		return 0, err
	}
	return offset.LastNotificationID, nil
}

func (r *repo) SaveOffset(ctx context.Context, db *gorm.DB, consumerID string, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "consumer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_notification_id", "updated_at"}),
		}).
		Create(&notificationdomain.ConsumerOffset{
			ConsumerID:         consumerID,
			LastNotificationID: id,
			UpdatedAt:          now,
		}).Error
}
