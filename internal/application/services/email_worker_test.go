package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
)

func emailTask(t *testing.T) *providers.Task {
	t.Helper()
	payload, err := json.Marshal(providers.AcceptedEmail{
		PatientEmail:    "alice@clinic.test",
		PatientName:     "Alice Doe",
		DoctorName:      "Jane Smith",
		AppointmentDate: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
		AppointmentTime: "10:00 AM",
	})
	require.NoError(t, err)
	return &providers.Task{ID: "t1", Type: providers.TaskSendAcceptedEmail, AppointmentID: "APT-1", Payload: payload}
}

func TestEmailWorker_Handle(t *testing.T) {
	tests := []struct {
		name       string
		task       func(t *testing.T) *providers.Task
		sendErr    error
		expectSend bool
		reported   bool
	}{
		{"delivered", emailTask, nil, true, false},
		{"smtp failure", emailTask, errors.New("connection refused"), true, true},
		{"bad payload", func(t *testing.T) *providers.Task {
			return &providers.Task{ID: "t2", Type: providers.TaskSendAcceptedEmail, AppointmentID: "APT-1", Payload: json.RawMessage(`"nope"`)}
		}, nil, false, true},
		{"unknown type", func(t *testing.T) *providers.Task {
			return &providers.Task{ID: "t3", Type: "sms.unknown", AppointmentID: "APT-1"}
		}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockEmailSender{}
			if tt.expectSend {
				sender.On("SendAcceptedEmail", mock.Anything, mock.MatchedBy(func(e providers.AcceptedEmail) bool {
					return e.PatientEmail == "alice@clinic.test" && e.DoctorName == "Jane Smith"
				})).Return(tt.sendErr)
			}
			sink := &recordingSink{}

			services.NewEmailWorker(nil, sender, sink).Handle(context.Background(), tt.task(t))

			sender.AssertExpectations(t)
			reports := sink.Reports()
			if !tt.reported {
				assert.Empty(t, reports)
				return
			}
			require.Len(t, reports, 1)
			assert.Equal(t, services.SideEffectEmail, reports[0].kind)
			assert.Equal(t, "APT-1", reports[0].fields["appointment_id"])
		})
	}
}

func TestEmailWorker_DrainsQueueUntilClosed(t *testing.T) {
	queue := events.NewLocalTaskQueue(4)
	sender := &mockEmailSender{}
	sent := make(chan struct{}, 2)
	sender.On("SendAcceptedEmail", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		sent <- struct{}{}
	})

	worker := services.NewEmailWorker(queue, sender, &recordingSink{})
	worker.Start(context.Background(), 2)

	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, emailTask(t)))
	require.NoError(t, queue.Enqueue(ctx, emailTask(t)))

	for i := 0; i < 2; i++ {
		select {
		case <-sent:
		case <-time.After(2 * time.Second):
			t.Fatal("email not sent")
		}
	}

	require.NoError(t, queue.Close())
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after queue close")
	}
}
