package handlers

import (
	"context"
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	Book(ctx context.Context, cmd services.BookAppointmentCommand) (*entities.Appointment, error)
	Accept(ctx context.Context, id string) (*entities.Appointment, error)
	Complete(ctx context.Context, id string) (*entities.Appointment, error)
	Cancel(ctx context.Context, id string) (*entities.Appointment, error)
	Reschedule(ctx context.Context, id string, cmd services.RescheduleAppointmentCommand) (*entities.Appointment, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*entities.Appointment, error)
	List(ctx context.Context) ([]*entities.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]*entities.Appointment, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

// BookAppointment handles POST /api/appointments. A patient caller always
// books for their own profile.
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var cmd services.BookAppointmentCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok && id.Role == entities.UserRolePatient && id.PatientID != "" {
		cmd.PatientID = id.PatientID
	}

	appointment, err := h.service.Book(r.Context(), cmd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// ListAppointments handles GET /api/appointments
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func(ctx context.Context) ([]*entities.Appointment, error) {
		return h.service.List(ctx)
	})
}

// ListDoctorAppointments handles GET /api/doctors/{id}/appointments
func (h *AppointmentHandler) ListDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func(ctx context.Context) ([]*entities.Appointment, error) {
		return h.service.ListByDoctor(ctx, r.PathValue("id"))
	})
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *AppointmentHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func(ctx context.Context) ([]*entities.Appointment, error) {
		return h.service.ListByPatient(ctx, r.PathValue("id"))
	})
}

func (h *AppointmentHandler) respondList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*entities.Appointment, error)) {
	appointments, err := list(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if appointments == nil {
		appointments = []*entities.Appointment{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// AcceptAppointment handles PATCH /api/appointments/{id}/accept
func (h *AppointmentHandler) AcceptAppointment(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w, r, h.service.Accept)
}

// CompleteAppointment handles PATCH /api/appointments/{id}/complete
func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w, r, h.service.Complete)
}

// CancelAppointment handles PATCH /api/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.respondTransition(w, r, h.service.Cancel)
}

func (h *AppointmentHandler) respondTransition(w http.ResponseWriter, r *http.Request, transition func(context.Context, string) (*entities.Appointment, error)) {
	if err := h.authorizeDoctor(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	appointment, err := transition(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// RescheduleAppointment handles PATCH /api/appointments/{id}/reschedule
func (h *AppointmentHandler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var cmd services.RescheduleAppointmentCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := h.authorizeDoctor(r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	appointment, err := h.service.Reschedule(r.Context(), r.PathValue("id"), cmd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// authorizeDoctor limits a doctor caller to their own appointments
func (h *AppointmentHandler) authorizeDoctor(r *http.Request) error {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.Role != entities.UserRoleDoctor {
		return nil
	}
	appointment, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	if id.DoctorID == "" || appointment.DoctorID != id.DoctorID {
		return apperrors.NewForbiddenError("appointment belongs to another doctor")
	}
	return nil
}

// DeleteAppointment handles DELETE /api/appointments/{id}
func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
