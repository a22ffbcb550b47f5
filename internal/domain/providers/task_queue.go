package providers

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrQueueClosed is returned by Dequeue after the queue has been closed
var ErrQueueClosed = errors.New("task queue closed")

// TaskType names a kind of background task
type TaskType string

const (
	// TaskSendAcceptedEmail sends an AcceptedEmail payload
	TaskSendAcceptedEmail TaskType = "email.appointment_accepted"
)

// Task is a unit of background work
type Task struct {
	ID            string          `json:"id"`
	Type          TaskType        `json:"type"`
	AppointmentID string          `json:"appointmentId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"attempts"`
}

// TaskQueue hands background tasks from request handlers to workers
type TaskQueue interface {
	// Enqueue schedules a task for asynchronous execution
	Enqueue(ctx context.Context, task *Task) error

	// Dequeue blocks until a task is available, ctx is done or the queue is closed
	Dequeue(ctx context.Context) (*Task, error)

	// Close stops the queue and releases waiting consumers
	Close() error
}
