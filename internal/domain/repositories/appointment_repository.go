package repositories

import (
	"context"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// Create stores a new appointment. A duplicate AppointmentID yields a
	// conflict error.
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by store key
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// TransitionStatus sets the status to `to` only if the current status is
	// one of `from`, and returns the updated appointment. It fails with a not
	// found error when the appointment is missing and an invalid state error
	// when its status is not in `from`.
	TransitionStatus(ctx context.Context, id string, from []entities.AppointmentStatus, to entities.AppointmentStatus) (*entities.Appointment, error)

	// Reschedule updates date and time of an Accepted appointment in place
	Reschedule(ctx context.Context, id string, date time.Time, slot string) (*entities.Appointment, error)

	// Delete removes an appointment
	Delete(ctx context.Context, id string) error

	// List retrieves appointments matching filter ordered by appointment date
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)
}

// AppointmentFilter defines filters for listing appointments. From and To
// bound AppointmentDate inclusively; nil means unbounded.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	From      *time.Time
	To        *time.Time
}

// Matches reports whether a satisfies the filter
func (f AppointmentFilter) Matches(a *entities.Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.From != nil && a.AppointmentDate.Before(*f.From) {
		return false
	}
	if f.To != nil && a.AppointmentDate.After(*f.To) {
		return false
	}
	return true
}
