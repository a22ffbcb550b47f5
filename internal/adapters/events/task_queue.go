package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	redisclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
)

// DefaultTaskQueueKey is the Redis list holding pending tasks
const DefaultTaskQueueKey = "tasks:pending"

const dequeuePoll = time.Second

// RedisTaskQueue implements TaskQueue on a Redis list: producers LPUSH and
// workers BRPOP, so tasks survive restarts of the process that enqueued them.
type RedisTaskQueue struct {
	client *redisclient.Client
	key    string
	done   chan struct{}
	once   sync.Once
}

// NewRedisTaskQueue creates a queue stored under key
func NewRedisTaskQueue(client *redisclient.Client, key string) *RedisTaskQueue {
	if key == "" {
		key = DefaultTaskQueueKey
	}
	return &RedisTaskQueue{client: client, key: key, done: make(chan struct{})}
}

func (q *RedisTaskQueue) Enqueue(ctx context.Context, task *providers.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := q.client.Client().LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue polls with a short BRPOP timeout so Close and ctx are honoured promptly
func (q *RedisTaskQueue) Dequeue(ctx context.Context) (*providers.Task, error) {
	for {
		select {
		case <-q.done:
			return nil, providers.ErrQueueClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := q.client.Client().BRPop(ctx, dequeuePoll, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to dequeue task: %w", err)
		}

		// result is [key, value]
		var task providers.Task
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}
		return &task, nil
	}
}

func (q *RedisTaskQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// LocalTaskQueue is a bounded in-process queue used when Redis is disabled.
// Pending tasks are lost on shutdown.
type LocalTaskQueue struct {
	tasks chan *providers.Task
	done  chan struct{}
	once  sync.Once
}

// NewLocalTaskQueue creates a queue holding up to size pending tasks
func NewLocalTaskQueue(size int) *LocalTaskQueue {
	return &LocalTaskQueue{
		tasks: make(chan *providers.Task, size),
		done:  make(chan struct{}),
	}
}

// Enqueue fails rather than blocks when the queue is full
func (q *LocalTaskQueue) Enqueue(ctx context.Context, task *providers.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	select {
	case <-q.done:
		return providers.ErrQueueClosed
	default:
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return errors.New("task queue full")
	}
}

func (q *LocalTaskQueue) Dequeue(ctx context.Context) (*providers.Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.done:
		return nil, providers.ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *LocalTaskQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
