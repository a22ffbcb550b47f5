package events

import (
	"context"
	"errors"
	"sync"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// LocalEventBus fans notifications out to subscribers of the same process.
// It is used when Redis is disabled.
type LocalEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.Notification]struct{}
	closed      bool
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() providers.EventBus {
	return &LocalEventBus{subscribers: make(map[string]map[chan *entities.Notification]struct{})}
}

func (b *LocalEventBus) Publish(ctx context.Context, channel string, notification *entities.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New("event bus closed")
	}
	for subscriber := range b.subscribers[channel] {
		n := *notification
		select {
		case subscriber <- &n:
		default:
			observability.LoggerFromContext(ctx).Warn().
				Str("channel", channel).
				Str("notification_id", n.ID).
				Msg("subscriber channel full, dropping notification")
		}
	}
	return nil
}

func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("event bus closed")
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.Notification]struct{})
	}
	notifications := make(chan *entities.Notification, subscriberBuffer)
	b.subscribers[channel][notifications] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(channel, notifications)
	}()
	return notifications, nil
}

func (b *LocalEventBus) remove(channel string, notifications chan *entities.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[notifications]; !ok {
		return
	}
	delete(subscribers, notifications)
	close(notifications)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

func (b *LocalEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	return nil
}
