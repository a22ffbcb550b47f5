package services

import (
	"context"
	"errors"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

var errNoEventBus = errors.New("live notifications are not available")

// NotificationService stores in-app notifications and pushes each new one
// to the recipient's live stream
type NotificationService struct {
	repo repositories.NotificationRepository
	bus  providers.EventBus
}

// NewNotificationService creates a new notification service. bus may be nil,
// in which case notifications are only stored.
func NewNotificationService(repo repositories.NotificationRepository, bus providers.EventBus) *NotificationService {
	return &NotificationService{repo: repo, bus: bus}
}

// Notify stores a notification for userID and publishes it. A publish
// failure is logged; the stored notification is still returned.
func (s *NotificationService) Notify(ctx context.Context, userID, message string, notificationType entities.NotificationType, link string) (*entities.Notification, error) {
	notification := &entities.Notification{
		UserID:    userID,
		Message:   message,
		Type:      notificationType,
		Link:      link,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, providers.GetNotificationChannel(userID), notification); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("notification_id", notification.ID).
				Msg("failed to publish notification")
		}
	}
	return notification, nil
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID string) ([]*entities.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the user's notifications read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// ClearRead deletes the user's read notifications
func (s *NotificationService) ClearRead(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteRead(ctx, userID)
}

// Subscribe streams the user's new notifications until ctx is done
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (<-chan *entities.Notification, error) {
	if s.bus == nil {
		return nil, errNoEventBus
	}
	return s.bus.Subscribe(ctx, providers.GetNotificationChannel(userID))
}
