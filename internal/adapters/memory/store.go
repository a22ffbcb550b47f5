// Package memory provides in-process repositories used by the memory store
// driver and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// NewStore creates a store whose repositories keep everything in memory
func NewStore() *repositories.Store {
	return &repositories.Store{
		Users:         NewUserRepository(),
		Patients:      NewPatientRepository(),
		Doctors:       NewDoctorRepository(),
		Appointments:  NewAppointmentRepository(),
		Chats:         NewChatRepository(),
		Notifications: NewNotificationRepository(),
		Ratings:       NewRatingRepository(),
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// UserRepository keeps accounts in memory
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entities.User
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entities.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.NewConflictError("user with this email already exists")
		}
	}
	ensureID(&user.ID)
	stamp(&user.CreatedAt, &user.UpdatedAt)
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByDoctorID(ctx context.Context, doctorID string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.DoctorID == doctorID && doctorID != "" })
}

func (r *UserRepository) GetByPatientID(ctx context.Context, patientID string) (*entities.User, error) {
	return r.find(func(u entities.User) bool { return u.PatientID == patientID && patientID != "" })
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *UserRepository) find(match func(entities.User) bool) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

// PatientRepository keeps patients in memory
type PatientRepository struct {
	mu       sync.RWMutex
	patients map[string]entities.Patient
}

// NewPatientRepository creates an empty repository
func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[string]entities.Patient)}
}

func (r *PatientRepository) Create(ctx context.Context, patient *entities.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&patient.ID)
	stamp(&patient.CreatedAt, &patient.UpdatedAt)
	r.patients[patient.ID] = *patient
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return &p, nil
}

func (r *PatientRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Patient, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.patients[id]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]*entities.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PatientRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patients), nil
}

func (r *PatientRepository) UpdateVitals(ctx context.Context, id string, vitals entities.PatientVitals) (*entities.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	vitals.Apply(&p)
	p.UpdatedAt = time.Now()
	r.patients[id] = p
	return &p, nil
}

// DoctorRepository keeps doctors in memory
type DoctorRepository struct {
	mu      sync.RWMutex
	doctors map[string]entities.Doctor
}

// NewDoctorRepository creates an empty repository
func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{doctors: make(map[string]entities.Doctor)}
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *entities.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&doctor.ID)
	stamp(&doctor.CreatedAt, &doctor.UpdatedAt)
	r.doctors[doctor.ID] = *doctor
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	return &d, nil
}

func (r *DoctorRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Doctor, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.doctors[id]; ok {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (r *DoctorRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.doctors), nil
}

func (r *DoctorRepository) UpdateRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return apperrors.NewNotFoundError("doctor not found")
	}
	d.AverageRating = aggregate.Average
	d.TotalRatings = aggregate.Count
	d.UpdatedAt = time.Now()
	r.doctors[id] = d
	return nil
}
