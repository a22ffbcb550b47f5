package providers

import (
	"context"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// notification events
type EventBus interface {
	// Publish publishes a notification to all subscribers of channel
	Publish(ctx context.Context, channel string, notification *entities.Notification) error

	// Subscribe subscribes to notifications on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelNotificationPrefix is the prefix of per-account channels
const EventChannelNotificationPrefix = "notifications:"

// GetNotificationChannel returns the channel carrying userID's notifications
func GetNotificationChannel(userID string) string {
	return EventChannelNotificationPrefix + userID
}
