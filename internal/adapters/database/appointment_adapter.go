package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

var appointmentColumns = columns(
	"id", "appointment_id", "patient_name", "patient_email", "patient_gender",
	"patient_age", "appointment_date", "appointment_time", "appointment_reason",
	"appointment_type", "consulting_doctor", "doctor_id", "patient_id", "notes",
	"status", "created_at", "updated_at",
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	adapter
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client, metrics *observability.Metrics) *AppointmentAdapter {
	return &AppointmentAdapter{adapter: newAdapter(client, metrics)}
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	ensureID(&appointment.ID)
	stamp(&appointment.CreatedAt, &appointment.UpdatedAt)

	record := goqu.Record{
		"id":                 appointment.ID,
		"appointment_id":     appointment.AppointmentID,
		"patient_name":       appointment.PatientName,
		"patient_email":      appointment.PatientEmail,
		"patient_gender":     appointment.PatientGender,
		"patient_age":        appointment.PatientAge,
		"appointment_date":   appointment.AppointmentDate,
		"appointment_time":   appointment.AppointmentTime,
		"appointment_reason": appointment.AppointmentReason,
		"appointment_type":   appointment.AppointmentType,
		"consulting_doctor":  appointment.ConsultingDoctor,
		"doctor_id":          appointment.DoctorID,
		"patient_id":         appointment.PatientID,
		"notes":              appointment.Notes,
		"status":             string(appointment.Status),
		"created_at":         appointment.CreatedAt,
		"updated_at":         appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "appointments.create", query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("appointment %s already exists", appointment.AppointmentID))
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var appointment entities.Appointment
	if err := a.get(ctx, "appointments.get", &appointment, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return &appointment, nil
}

// TransitionStatus moves the appointment to `to` if its status is in `from`.
// The status check and the write are one conditional UPDATE.
func (a *AppointmentAdapter) TransitionStatus(ctx context.Context, id string, from []entities.AppointmentStatus, to entities.AppointmentStatus) (*entities.Appointment, error) {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{"status": string(to), "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id, "status": statusValues(from)}).
		Returning(appointmentColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build transition query", err)
	}

	var appointment entities.Appointment
	err = a.get(ctx, "appointments.transition", &appointment, query, args...)
	if err == nil {
		return &appointment, nil
	}
	if !isNoRows(err) {
		return nil, apperrors.NewInternalError("failed to update appointment status", err)
	}
	return nil, a.explainMiss(ctx, id, fmt.Sprintf("cannot move appointment to %s", to))
}

// Reschedule updates date and time of an Accepted appointment
func (a *AppointmentAdapter) Reschedule(ctx context.Context, id string, date time.Time, slot string) (*entities.Appointment, error) {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"appointment_date": date,
			"appointment_time": slot,
			"updated_at":       time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": string(entities.AppointmentStatusAccepted)}).
		Returning(appointmentColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reschedule query", err)
	}

	var appointment entities.Appointment
	err = a.get(ctx, "appointments.reschedule", &appointment, query, args...)
	if err == nil {
		return &appointment, nil
	}
	if !isNoRows(err) {
		return nil, apperrors.NewInternalError("failed to reschedule appointment", err)
	}
	return nil, a.explainMiss(ctx, id, "only accepted appointments can be rescheduled")
}

// explainMiss tells a missing appointment apart from one in the wrong status
// after a conditional update matched no row.
func (a *AppointmentAdapter) explainMiss(ctx context.Context, id, invalidMsg string) error {
	current, err := a.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.NewInvalidStateError(fmt.Sprintf("%s (status is %s)", invalidMsg, current.Status))
}

// Delete removes an appointment
func (a *AppointmentAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("appointments").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.exec(ctx, "appointments.delete", query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete appointment", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return nil
}

// List retrieves appointments matching filter ordered by appointment date
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments")

	if filter.DoctorID != "" {
		ds = ds.Where(goqu.Ex{"doctor_id": filter.DoctorID})
	}
	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("appointment_date").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("appointment_date").Lte(*filter.To))
	}

	query, args, err := ds.Order(goqu.C("appointment_date").Asc(), goqu.C("appointment_id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var appointments []*entities.Appointment
	if err := a.selectAll(ctx, "appointments.list", &appointments, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	return appointments, nil
}

func statusValues(statuses []entities.AppointmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
