package scheduler

import (
	"context"

	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	notificationservice "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/service"
	"go.uber.org/zap"
)

// CleanupNotificationsJob deletes outbox rows older than the retention window
// that the dispatcher has already consumed.
func (s *Scheduler) CleanupNotificationsJob(ctx context.Context) error {
	retentionDays := s.cfg.NotificationRetentionDays
	if retentionDays <= 0 {
		s.log.Debug("notification retention disabled", zap.Int("days", retentionDays))
		return nil
	}

	var offset notificationdomain.ConsumerOffset
	err := s.db.WithContext(ctx).
		Where("consumer_id = ?", notificationservice.DispatcherConsumerID).
		Limit(1).
		Find(&offset).Error
	if err != nil {
		return err
	}
	if offset.LastNotificationID == 0 {
		return nil
	}

	cutoff := s.clock.Now(ctx).AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("created_at < ? AND id <= ?", cutoff, offset.LastNotificationID).
		Delete(&notificationdomain.Notification{})
	if result.Error != nil {
		s.log.Error("cleanup notifications failed", zap.Time("cutoff", cutoff), zap.Error(result.Error))
		return result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Info("cleanup notifications completed",
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", result.RowsAffected),
		)
	}
	return nil
}
