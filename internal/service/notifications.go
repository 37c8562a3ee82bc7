package service

import (
	"context"

	"classservice/internal/database/repo"
)

// NotificationService exposes a recipient's own notifications. Rows are
// created as side effects of request submission (see RequestService).
type NotificationService struct {
	notifications repo.NotificationRepository
}

func NewNotificationService(notifications repo.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]repo.Notification, error) {
	return s.notifications.ListNotifications(ctx, userID)
}

func (s *NotificationService) MarkSeen(ctx context.Context, id, userID string) error {
	return s.notifications.MarkSeen(ctx, id, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	return s.notifications.DeleteNotification(ctx, id, userID)
}
