package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// AppointmentRepository keeps appointments in memory
type AppointmentRepository struct {
	mu           sync.RWMutex
	appointments map[string]entities.Appointment
	byPublicID   map[string]string
}

// NewAppointmentRepository creates an empty repository
func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		appointments: make(map[string]entities.Appointment),
		byPublicID:   make(map[string]string),
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *entities.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPublicID[appointment.AppointmentID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("appointment %s already exists", appointment.AppointmentID))
	}
	ensureID(&appointment.ID)
	stamp(&appointment.CreatedAt, &appointment.UpdatedAt)
	r.appointments[appointment.ID] = *appointment
	r.byPublicID[appointment.AppointmentID] = appointment.ID
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	return &a, nil
}

func (r *AppointmentRepository) TransitionStatus(ctx context.Context, id string, from []entities.AppointmentStatus, to entities.AppointmentStatus) (*entities.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	if !slices.Contains(from, a.Status) {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("cannot move appointment from %s to %s", a.Status, to))
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *AppointmentRepository) Reschedule(ctx context.Context, id string, date time.Time, slot string) (*entities.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	if a.Status != entities.AppointmentStatusAccepted {
		return nil, apperrors.NewInvalidStateError("only accepted appointments can be rescheduled")
	}
	a.AppointmentDate = date
	a.AppointmentTime = slot
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return apperrors.NewNotFoundError("appointment not found")
	}
	delete(r.byPublicID, a.AppointmentID)
	delete(r.appointments, id)
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Appointment
	for _, a := range r.appointments {
		if filter.Matches(&a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentID < out[j].AppointmentID
		}
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out, nil
}
