package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// EmailWorker drains email tasks from the task queue. Delivery failures are
// reported to the degradation sink and the task is dropped.
type EmailWorker struct {
	queue  providers.TaskQueue
	sender providers.EmailSender
	sink   DegradationReporter
	wg     sync.WaitGroup
}

// NewEmailWorker creates a new email worker
func NewEmailWorker(queue providers.TaskQueue, sender providers.EmailSender, sink DegradationReporter) *EmailWorker {
	return &EmailWorker{queue: queue, sender: sender, sink: sink}
}

// Start launches n consumers that run until ctx is done or the queue closes
func (w *EmailWorker) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}
	observability.ComponentLogger(ctx, "email_worker").Info().Int("workers", n).Msg("email worker started")
}

// Wait blocks until every consumer has returned
func (w *EmailWorker) Wait() {
	w.wg.Wait()
}

func (w *EmailWorker) run(ctx context.Context) {
	logger := observability.ComponentLogger(ctx, "email_worker")
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, providers.ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("failed to dequeue task")
			continue
		}
		w.Handle(ctx, task)
	}
}

// Handle executes a single task
func (w *EmailWorker) Handle(ctx context.Context, task *providers.Task) {
	if err := w.handle(ctx, task); err != nil {
		fields := map[string]string{"task_id": task.ID, "task_type": string(task.Type)}
		if task.AppointmentID != "" {
			fields["appointment_id"] = task.AppointmentID
		}
		if w.sink != nil {
			w.sink.ReportDegraded(ctx, SideEffectEmail, err, fields)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, task *providers.Task) error {
	switch task.Type {
	case providers.TaskSendAcceptedEmail:
		var email providers.AcceptedEmail
		if err := json.Unmarshal(task.Payload, &email); err != nil {
			return fmt.Errorf("decode accepted email: %w", err)
		}
		return w.sender.SendAcceptedEmail(ctx, email)
	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}
