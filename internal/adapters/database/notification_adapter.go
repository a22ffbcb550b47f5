package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

var (
	notificationColumns = columns("id", "user_id", "message", "type", "read", "link", "created_at")
	ratingColumns       = columns("id", "doctor_id", "patient_id", "appointment_id", "score", "comment", "created_at")
)

// NotificationAdapter implements the NotificationRepository interface
type NotificationAdapter struct {
	adapter
}

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(client *postgres.Client, metrics *observability.Metrics) *NotificationAdapter {
	return &NotificationAdapter{adapter: newAdapter(client, metrics)}
}

// Create stores a notification
func (a *NotificationAdapter) Create(ctx context.Context, notification *entities.Notification) error {
	ensureID(&notification.ID)
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if notification.Type == "" {
		notification.Type = entities.NotificationGeneral
	}

	query, args, err := a.db.Insert("notifications").Rows(goqu.Record{
		"id":         notification.ID,
		"user_id":    notification.UserID,
		"message":    notification.Message,
		"type":       string(notification.Type),
		"read":       notification.Read,
		"link":       notification.Link,
		"created_at": notification.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "notifications.create", query, args...); err != nil {
		return apperrors.NewInternalError("failed to create notification", err)
	}
	return nil
}

// ListByUser lists a user's notifications, newest first
func (a *NotificationAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Notification, error) {
	query, args, err := a.db.Select(notificationColumns...).
		From("notifications").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	notifications := []*entities.Notification{}
	if err := a.selectAll(ctx, "notifications.list", &notifications, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read
func (a *NotificationAdapter) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	query, args, err := a.db.Update("notifications").
		Set(goqu.Record{"read": true}).
		Where(goqu.Ex{"id": id, "user_id": userID}).
		Returning(notificationColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	var notification entities.Notification
	if err := a.get(ctx, "notifications.mark_read", &notification, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to mark notification read", err)
	}
	return &notification, nil
}

// MarkAllRead flags every unread notification of the user
func (a *NotificationAdapter) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query, args, err := a.db.Update("notifications").
		Set(goqu.Record{"read": true}).
		Where(goqu.Ex{"user_id": userID, "read": false}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build update query", err)
	}
	return a.affected(ctx, "notifications.mark_all_read", query, args...)
}

// DeleteRead removes the user's read notifications
func (a *NotificationAdapter) DeleteRead(ctx context.Context, userID string) (int, error) {
	query, args, err := a.db.Delete("notifications").
		Where(goqu.Ex{"user_id": userID, "read": true}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}
	return a.affected(ctx, "notifications.delete_read", query, args...)
}

func (a adapter) affected(ctx context.Context, op, query string, args ...any) (int, error) {
	result, err := a.exec(ctx, op, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("%s failed", op), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return int(n), nil
}

// RatingAdapter implements the RatingRepository interface
type RatingAdapter struct {
	adapter
}

// NewRatingAdapter creates a new rating adapter
func NewRatingAdapter(client *postgres.Client, metrics *observability.Metrics) *RatingAdapter {
	return &RatingAdapter{adapter: newAdapter(client, metrics)}
}

// Create stores a rating
func (a *RatingAdapter) Create(ctx context.Context, rating *entities.Rating) error {
	ensureID(&rating.ID)
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}

	query, args, err := a.db.Insert("ratings").Rows(goqu.Record{
		"id":             rating.ID,
		"doctor_id":      rating.DoctorID,
		"patient_id":     rating.PatientID,
		"appointment_id": rating.AppointmentID,
		"score":          rating.Score,
		"comment":        rating.Comment,
		"created_at":     rating.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "ratings.create", query, args...); err != nil {
		return apperrors.NewInternalError("failed to create rating", err)
	}
	return nil
}

// ListByDoctor lists a doctor's ratings, newest first
func (a *RatingAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error) {
	query, args, err := a.db.Select(ratingColumns...).
		From("ratings").
		Where(goqu.Ex{"doctor_id": doctorID}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	ratings := []*entities.Rating{}
	if err := a.selectAll(ctx, "ratings.list", &ratings, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list ratings", err)
	}
	return ratings, nil
}
