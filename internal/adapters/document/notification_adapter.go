package document

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationAdapter implements the NotificationRepository interface
type NotificationAdapter struct {
	adapter
}

// NewNotificationAdapter creates a new notification adapter
func NewNotificationAdapter(client *mongoclient.Client, metrics *observability.Metrics) *NotificationAdapter {
	return &NotificationAdapter{adapter: newAdapter(client, mongoclient.CollectionNotifications, metrics)}
}

func (a *NotificationAdapter) Create(ctx context.Context, notification *entities.Notification) error {
	ensureID(&notification.ID)
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if notification.Type == "" {
		notification.Type = entities.NotificationGeneral
	}

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, notification); err != nil {
		return apperrors.NewInternalError("failed to create notification", err)
	}
	return nil
}

func (a *NotificationAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	notifications := []*entities.Notification{}
	if err := a.findAll(ctx, "list", bson.M{"userId": userID}, &notifications, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list notifications", err)
	}
	return notifications, nil
}

func (a *NotificationAdapter) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	defer a.observe(ctx, "mark_read", time.Now())

	var notification entities.Notification
	err := a.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
		returnAfter(),
	).Decode(&notification)
	if err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to mark notification read", err)
	}
	return &notification, nil
}

func (a *NotificationAdapter) MarkAllRead(ctx context.Context, userID string) (int, error) {
	defer a.observe(ctx, "mark_all_read", time.Now())

	result, err := a.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to mark notifications read", err)
	}
	return int(result.ModifiedCount), nil
}

func (a *NotificationAdapter) DeleteRead(ctx context.Context, userID string) (int, error) {
	defer a.observe(ctx, "delete_read", time.Now())

	result, err := a.coll.DeleteMany(ctx, bson.M{"userId": userID, "read": true})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to delete notifications", err)
	}
	return int(result.DeletedCount), nil
}

// RatingAdapter implements the RatingRepository interface
type RatingAdapter struct {
	adapter
}

// NewRatingAdapter creates a new rating adapter
func NewRatingAdapter(client *mongoclient.Client, metrics *observability.Metrics) *RatingAdapter {
	return &RatingAdapter{adapter: newAdapter(client, mongoclient.CollectionRatings, metrics)}
}

func (a *RatingAdapter) Create(ctx context.Context, rating *entities.Rating) error {
	ensureID(&rating.ID)
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, rating); err != nil {
		return apperrors.NewInternalError("failed to create rating", err)
	}
	return nil
}

func (a *RatingAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	ratings := []*entities.Rating{}
	if err := a.findAll(ctx, "list", bson.M{"doctorId": doctorID}, &ratings, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list ratings", err)
	}
	return ratings, nil
}
