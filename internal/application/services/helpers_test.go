package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/memory"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
)

var errStoreDown = errors.New("store unavailable")

type degradedReport struct {
	kind   string
	err    error
	fields map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	reports []degradedReport
}

func (s *recordingSink) ReportDegraded(ctx context.Context, kind string, err error, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, degradedReport{kind: kind, err: err, fields: fields})
}

func (s *recordingSink) Reports() []degradedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]degradedReport(nil), s.reports...)
}

type mockTaskQueue struct {
	mock.Mock
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *providers.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockTaskQueue) Dequeue(ctx context.Context) (*providers.Task, error) {
	args := m.Called(ctx)
	task, _ := args.Get(0).(*providers.Task)
	return task, args.Error(1)
}

func (m *mockTaskQueue) Close() error {
	return m.Called().Error(0)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendAcceptedEmail(ctx context.Context, email providers.AcceptedEmail) error {
	return m.Called(ctx, email).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return m.Called(ctx, key, value, expirationSeconds).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

type failingUsers struct {
	repositories.UserRepository
}

func (failingUsers) Count(ctx context.Context) (int, error) {
	return 0, errStoreDown
}

type clinic struct {
	store         *repositories.Store
	bus           providers.EventBus
	queue         *events.LocalTaskQueue
	sink          *recordingSink
	notifications *services.NotificationService
	appointments  *services.AppointmentService
	doctorUser    *entities.User
	patientUser   *entities.User
}

func ptr[T any](v T) *T {
	return &v
}

// newClinic returns an in-memory clinic with doctor d1 (Jane Smith) and
// patient p1 (Alice Doe), both with accounts
func newClinic(t *testing.T) *clinic {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	require.NoError(t, store.Doctors.Create(ctx, &entities.Doctor{ID: "d1", FullName: "Jane Smith"}))
	require.NoError(t, store.Patients.Create(ctx, &entities.Patient{ID: "p1", Name: "Alice Doe", Age: 34}))

	doctorUser := &entities.User{Name: "Jane Smith", Email: "jane@clinic.test", Role: entities.UserRoleDoctor, DoctorID: "d1"}
	patientUser := &entities.User{Name: "Alice Doe", Email: "alice@clinic.test", Role: entities.UserRolePatient, PatientID: "p1"}
	require.NoError(t, store.Users.Create(ctx, doctorUser))
	require.NoError(t, store.Users.Create(ctx, patientUser))

	c := &clinic{
		store:       store,
		bus:         events.NewLocalEventBus(),
		queue:       events.NewLocalTaskQueue(16),
		sink:        &recordingSink{},
		doctorUser:  doctorUser,
		patientUser: patientUser,
	}
	t.Cleanup(func() {
		c.bus.Close()
		c.queue.Close()
	})

	c.notifications = services.NewNotificationService(store.Notifications, c.bus)
	dispatcher := services.NewSideEffectDispatcher(store, c.notifications, c.queue, c.sink, time.UTC)
	c.appointments = services.NewAppointmentService(store, dispatcher, nil)
	return c
}

func (c *clinic) withQueue(queue providers.TaskQueue) {
	dispatcher := services.NewSideEffectDispatcher(c.store, c.notifications, queue, c.sink, time.UTC)
	c.appointments = services.NewAppointmentService(c.store, dispatcher, nil)
}

func bookCommand() services.BookAppointmentCommand {
	return services.BookAppointmentCommand{
		PatientID:         "p1",
		DoctorID:          "d1",
		PatientName:       "Alice Doe",
		PatientEmail:      "alice@clinic.test",
		PatientGender:     "Female",
		PatientAge:        ptr(34),
		AppointmentDate:   time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
		AppointmentTime:   "10:00 AM",
		AppointmentReason: "Follow-up",
		AppointmentType:   "Consultation",
	}
}

func (c *clinic) book(t *testing.T) *entities.Appointment {
	t.Helper()
	a, err := c.appointments.Book(context.Background(), bookCommand())
	require.NoError(t, err)
	return a
}

func (c *clinic) accepted(t *testing.T) *entities.Appointment {
	t.Helper()
	a := c.book(t)
	a, err := c.appointments.Accept(context.Background(), a.ID)
	require.NoError(t, err)
	return a
}
