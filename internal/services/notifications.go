package services

import (
	"context"

	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/store"
)

type NotificationService struct {
	store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{store: st}
}

// List returns the inbox newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.store.Notifications().ListByUser(ctx, userID)
}

// Get loads a notification regardless of owner; callers authorize it.
func (s *NotificationService) Get(ctx context.Context, id uint) (*models.Notification, error) {
	return s.store.Notifications().Get(ctx, id)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.store.Notifications().MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.Notifications().MarkAllRead(ctx, userID)
}
