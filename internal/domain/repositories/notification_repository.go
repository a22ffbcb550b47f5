package repositories

import (
	"context"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error

	// ListByUser returns the user's notifications, newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.Notification, error)

	// MarkRead flags a notification owned by userID as read
	MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error)

	// MarkAllRead flags every unread notification of userID and returns how many changed
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// DeleteRead removes the user's read notifications and returns how many were removed
	DeleteRead(ctx context.Context, userID string) (int, error)
}

// RatingRepository defines the interface for doctor ratings
type RatingRepository interface {
	Create(ctx context.Context, rating *entities.Rating) error

	// ListByDoctor returns a doctor's ratings, newest first
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error)
}
