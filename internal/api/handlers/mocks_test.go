package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) appointment(args mock.Arguments) (*entities.Appointment, error) {
	a, _ := args.Get(0).(*entities.Appointment)
	return a, args.Error(1)
}

func (m *MockAppointmentService) Book(ctx context.Context, cmd services.BookAppointmentCommand) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, cmd))
}

func (m *MockAppointmentService) Accept(ctx context.Context, id string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, id))
}

func (m *MockAppointmentService) Complete(ctx context.Context, id string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, id))
}

func (m *MockAppointmentService) Cancel(ctx context.Context, id string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, id))
}

func (m *MockAppointmentService) Reschedule(ctx context.Context, id string, cmd services.RescheduleAppointmentCommand) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, id, cmd))
}

func (m *MockAppointmentService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAppointmentService) Get(ctx context.Context, id string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, id))
}

func (m *MockAppointmentService) List(ctx context.Context) ([]*entities.Appointment, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entities.Appointment)
	return list, args.Error(1)
}

func (m *MockAppointmentService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Appointment, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]*entities.Appointment)
	return list, args.Error(1)
}

func (m *MockAppointmentService) ListByPatient(ctx context.Context, patientID string) ([]*entities.Appointment, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]*entities.Appointment)
	return list, args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) ListForDoctor(ctx context.Context, doctorID string) ([]*entities.ChatSummary, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]*entities.ChatSummary)
	return list, args.Error(1)
}

func (m *MockChatService) ListForPatient(ctx context.Context, patientID string) ([]*entities.ChatSummary, error) {
	args := m.Called(ctx, patientID)
	list, _ := args.Get(0).([]*entities.ChatSummary)
	return list, args.Error(1)
}

func (m *MockChatService) Get(ctx context.Context, chatID string, p services.Participant) (*entities.ChatDetail, error) {
	args := m.Called(ctx, chatID, p)
	detail, _ := args.Get(0).(*entities.ChatDetail)
	return detail, args.Error(1)
}

func (m *MockChatService) PostMessage(ctx context.Context, chatID string, p services.Participant, cmd services.PostMessageCommand) (*entities.Message, error) {
	args := m.Called(ctx, chatID, p, cmd)
	msg, _ := args.Get(0).(*entities.Message)
	return msg, args.Error(1)
}

func (m *MockChatService) MarkRead(ctx context.Context, chatID string, p services.Participant) error {
	return m.Called(ctx, chatID, p).Error(0)
}

func (m *MockChatService) Delete(ctx context.Context, chatID string, p services.Participant) error {
	return m.Called(ctx, chatID, p).Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID string) ([]*entities.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]*entities.Notification)
	return list, args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	args := m.Called(ctx, id, userID)
	n, _ := args.Get(0).(*entities.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) ClearRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) Subscribe(ctx context.Context, userID string) (<-chan *entities.Notification, error) {
	args := m.Called(ctx, userID)
	ch, _ := args.Get(0).(<-chan *entities.Notification)
	return ch, args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Rate(ctx context.Context, cmd services.RateDoctorCommand) (*entities.Rating, entities.RatingAggregate, error) {
	args := m.Called(ctx, cmd)
	rating, _ := args.Get(0).(*entities.Rating)
	return rating, args.Get(1).(entities.RatingAggregate), args.Error(2)
}

func (m *MockRatingService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error) {
	args := m.Called(ctx, doctorID)
	list, _ := args.Get(0).([]*entities.Rating)
	return list, args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Snapshot(ctx context.Context, filter services.DashboardFilter) (*entities.DashboardSnapshot, error) {
	args := m.Called(ctx, filter)
	s, _ := args.Get(0).(*entities.DashboardSnapshot)
	return s, args.Error(1)
}

func (m *MockDashboardService) HighRiskAppointments(ctx context.Context, filter services.DashboardFilter) ([]entities.HighRiskAppointment, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]entities.HighRiskAppointment)
	return list, args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Summary(ctx context.Context) (*entities.AnalyticsSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*entities.AnalyticsSummary)
	return s, args.Error(1)
}

func (m *MockAnalyticsService) PatientRisks(ctx context.Context) ([]entities.PatientRiskDetail, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]entities.PatientRiskDetail)
	return list, args.Error(1)
}
