package store

import (
	"context"

	"github.com/diewo77/bookbuddy/internal/models"
	"gorm.io/gorm"
)

// NotificationStore is the per-user inbox.
type NotificationStore interface {
	Get(ctx context.Context, id uint) (*models.Notification, error)
	Append(ctx context.Context, userID uint, message string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type gormNotifications struct {
	db *gorm.DB
}

func (s *gormNotifications) Get(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, notFound(err, ErrNotificationNotFound)
	}
	return &n, nil
}

func (s *gormNotifications) Append(ctx context.Context, userID uint, message string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Message: message}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (s *gormNotifications) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

// MarkRead fails with ErrNotificationNotFound when the notification does not
// exist or belongs to someone else.
func (s *gormNotifications) MarkRead(ctx context.Context, userID, id uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	if n.Read {
		return nil
	}
	return s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}

func (s *gormNotifications) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
