package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	redisclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/redis"
)

func newRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redisclient.NewClientFromRedis(rdb)
}

func receive(t *testing.T, ch <-chan *entities.Notification) *entities.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return nil
	}
}

func TestEventBuses_DeliverToChannelSubscribers(t *testing.T) {
	buses := map[string]func(t *testing.T) providers.EventBus{
		"redis": func(t *testing.T) providers.EventBus { return events.NewRedisEventBus(newRedis(t)) },
		"local": func(t *testing.T) providers.EventBus { return events.NewLocalEventBus() },
	}

	for name, newBus := range buses {
		t.Run(name, func(t *testing.T) {
			bus := newBus(t)
			defer bus.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			channel := providers.GetNotificationChannel("user-1")
			ch, err := bus.Subscribe(ctx, channel)
			require.NoError(t, err)

			err = bus.Publish(ctx, channel, &entities.Notification{
				ID:      "n-1",
				UserID:  "user-1",
				Message: "New appointment booked",
				Type:    entities.NotificationAppointmentBooked,
			})
			require.NoError(t, err)

			got := receive(t, ch)
			assert.Equal(t, "n-1", got.ID)
			assert.Equal(t, entities.NotificationAppointmentBooked, got.Type)

			cancel()
			assert.Eventually(t, func() bool {
				_, open := <-ch
				return !open
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestTaskQueues_RoundTrip(t *testing.T) {
	queues := map[string]func(t *testing.T) providers.TaskQueue{
		"redis": func(t *testing.T) providers.TaskQueue { return events.NewRedisTaskQueue(newRedis(t), "") },
		"local": func(t *testing.T) providers.TaskQueue { return events.NewLocalTaskQueue(4) },
	}

	for name, newQueue := range queues {
		t.Run(name, func(t *testing.T) {
			queue := newQueue(t)
			ctx := context.Background()

			require.NoError(t, queue.Enqueue(ctx, &providers.Task{
				Type:          providers.TaskSendAcceptedEmail,
				AppointmentID: "APT-1",
				Payload:       []byte(`{"patientEmail":"jane@example.com"}`),
			}))

			task, err := queue.Dequeue(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, task.ID)
			assert.Equal(t, providers.TaskSendAcceptedEmail, task.Type)
			assert.Equal(t, "APT-1", task.AppointmentID)
			assert.JSONEq(t, `{"patientEmail":"jane@example.com"}`, string(task.Payload))

			require.NoError(t, queue.Close())
			_, err = queue.Dequeue(ctx)
			assert.ErrorIs(t, err, providers.ErrQueueClosed)
		})
	}
}

func TestLocalTaskQueue_FullAndCancelled(t *testing.T) {
	queue := events.NewLocalTaskQueue(1)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, &providers.Task{Type: providers.TaskSendAcceptedEmail}))
	assert.Error(t, queue.Enqueue(ctx, &providers.Task{Type: providers.TaskSendAcceptedEmail}))

	_, err := queue.Dequeue(ctx)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = queue.Dequeue(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
