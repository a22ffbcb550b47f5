package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// BookAppointmentCommand is a patient's booking request. Vitals, when
// present, are copied onto the patient record.
type BookAppointmentCommand struct {
	PatientID         string    `json:"patientId" validate:"required"`
	DoctorID          string    `json:"doctorId" validate:"required"`
	PatientName       string    `json:"patientName" validate:"required"`
	PatientEmail      string    `json:"patientEmail" validate:"required,email"`
	PatientGender     string    `json:"patientGender" validate:"required,patient_gender"`
	PatientAge        *int      `json:"patientAge" validate:"required,min=0"`
	AppointmentDate   time.Time `json:"appointmentDate" validate:"required"`
	AppointmentTime   string    `json:"appointmentTime" validate:"required"`
	AppointmentReason string    `json:"appointmentReason"`
	AppointmentType   string    `json:"appointmentType"`
	ConsultingDoctor  string    `json:"consultingDoctor"`
	Notes             string    `json:"notes"`
	entities.PatientVitals
}

// RescheduleAppointmentCommand moves an accepted appointment to a new slot
type RescheduleAppointmentCommand struct {
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	AppointmentTime string    `json:"appointmentTime" validate:"required"`
}

// DashboardInvalidator drops cached read models after appointments change
type DashboardInvalidator interface {
	InvalidateDashboards(ctx context.Context)
}

// AppointmentService drives the appointment lifecycle. Status changes are
// compare-and-set writes in the repository; side effects run afterwards and
// never undo a committed change.
type AppointmentService struct {
	appointments repositories.AppointmentRepository
	patients     repositories.PatientRepository
	doctors      repositories.DoctorRepository
	dispatcher   *SideEffectDispatcher
	invalidator  DashboardInvalidator
	ids          *AppointmentIDGenerator
	metrics      *observability.Metrics
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	store *repositories.Store,
	dispatcher *SideEffectDispatcher,
	metrics *observability.Metrics,
) *AppointmentService {
	return &AppointmentService{
		appointments: store.Appointments,
		patients:     store.Patients,
		doctors:      store.Doctors,
		dispatcher:   dispatcher,
		ids:          NewAppointmentIDGenerator(time.Now),
		metrics:      metrics,
	}
}

// WithInvalidator registers the cache invalidated after every write
func (s *AppointmentService) WithInvalidator(invalidator DashboardInvalidator) *AppointmentService {
	s.invalidator = invalidator
	return s
}

// Book creates a Scheduled appointment and notifies the doctor
func (s *AppointmentService) Book(ctx context.Context, cmd BookAppointmentCommand) (*entities.Appointment, error) {
	ctx, span := observability.StartSpan(ctx, "AppointmentService.Book")
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, err
	}

	consulting := strings.TrimSpace(cmd.ConsultingDoctor)
	if consulting == "" {
		consulting = doctor.FullName
	}

	now := time.Now()
	appointment := &entities.Appointment{
		AppointmentID:     s.ids.Next(),
		PatientName:       cmd.PatientName,
		PatientEmail:      cmd.PatientEmail,
		PatientGender:     cmd.PatientGender,
		PatientAge:        *cmd.PatientAge,
		AppointmentDate:   cmd.AppointmentDate,
		AppointmentTime:   cmd.AppointmentTime,
		AppointmentReason: cmd.AppointmentReason,
		AppointmentType:   cmd.AppointmentType,
		ConsultingDoctor:  consulting,
		DoctorID:          cmd.DoctorID,
		PatientID:         cmd.PatientID,
		Notes:             cmd.Notes,
		Status:            entities.AppointmentStatusScheduled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span, attribute.String("appointment.id", appointment.AppointmentID))

	if !cmd.PatientVitals.IsEmpty() {
		if _, err := s.patients.UpdateVitals(ctx, cmd.PatientID, cmd.PatientVitals); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("patient_id", cmd.PatientID).
				Msg("failed to update patient vitals from booking")
		}
	}

	s.dispatcher.AppointmentBooked(ctx, appointment)
	s.invalidate(ctx)
	return appointment, nil
}

// Accept moves a Scheduled appointment to Accepted, then notifies the
// patient, queues the confirmation email and posts to the pair's chat
func (s *AppointmentService) Accept(ctx context.Context, id string) (*entities.Appointment, error) {
	ctx, span := observability.StartSpan(ctx, "AppointmentService.Accept")
	defer span.End()

	appointment, err := s.transition(ctx, id, entities.AppointmentStatusAccepted)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := s.dispatcher.AppointmentAccepted(ctx, appointment); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return appointment, nil
}

// Complete moves an Accepted appointment to Completed
func (s *AppointmentService) Complete(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.transition(ctx, id, entities.AppointmentStatusCompleted)
}

// Cancel moves a Scheduled or Accepted appointment to Cancelled
func (s *AppointmentService) Cancel(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.transition(ctx, id, entities.AppointmentStatusCancelled)
}

// Reschedule changes date and time of an Accepted appointment
func (s *AppointmentService) Reschedule(ctx context.Context, id string, cmd RescheduleAppointmentCommand) (*entities.Appointment, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	appointment, err := s.appointments.Reschedule(ctx, id, cmd.AppointmentDate, cmd.AppointmentTime)
	if err != nil {
		return nil, err
	}

	s.dispatcher.AppointmentRescheduled(ctx, appointment)
	s.invalidate(ctx)
	return appointment, nil
}

// Delete removes an appointment regardless of status
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Get returns one appointment
func (s *AppointmentService) Get(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// List returns every appointment
func (s *AppointmentService) List(ctx context.Context) ([]*entities.Appointment, error) {
	return s.appointments.List(ctx, repositories.AppointmentFilter{})
}

// ListByDoctor returns a doctor's appointments
func (s *AppointmentService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Appointment, error) {
	return s.appointments.List(ctx, repositories.AppointmentFilter{DoctorID: doctorID})
}

// ListByPatient returns a patient's appointments
func (s *AppointmentService) ListByPatient(ctx context.Context, patientID string) ([]*entities.Appointment, error) {
	return s.appointments.List(ctx, repositories.AppointmentFilter{PatientID: patientID})
}

func (s *AppointmentService) transition(ctx context.Context, id string, to entities.AppointmentStatus) (*entities.Appointment, error) {
	from := entities.TransitionSources(to)
	appointment, err := s.appointments.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}

	observability.RecordTransition(ctx, s.metrics, joinStatuses(from), string(to))
	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", appointment.AppointmentID).
		Str("status", string(to)).
		Msg("appointment status changed")

	s.invalidate(ctx)
	return appointment, nil
}

func (s *AppointmentService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateDashboards(ctx)
	}
}

func joinStatuses(statuses []entities.AppointmentStatus) string {
	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, "|")
}

// AppointmentIDGenerator issues APT-<unix millis> identifiers that strictly
// increase within the process, even when two bookings share a millisecond.
type AppointmentIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewAppointmentIDGenerator creates a generator reading the clock from now
func NewAppointmentIDGenerator(now func() time.Time) *AppointmentIDGenerator {
	return &AppointmentIDGenerator{now: now}
}

// Next returns the next identifier
func (g *AppointmentIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis
	return fmt.Sprintf("APT-%d", millis)
}
