package repositories

import (
	"context"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	Create(ctx context.Context, patient *entities.Patient) error
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetByIDs returns the patients found among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error)

	List(ctx context.Context) ([]*entities.Patient, error)
	Count(ctx context.Context) (int, error)

	// UpdateVitals applies the non-nil vitals and returns the updated patient
	UpdateVitals(ctx context.Context, id string, vitals entities.PatientVitals) (*entities.Patient, error)
}

// DoctorRepository defines the interface for doctor data operations
type DoctorRepository interface {
	Create(ctx context.Context, doctor *entities.Doctor) error
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// GetByIDs returns the doctors found among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error)

	Count(ctx context.Context) (int, error)

	// UpdateRatingAggregate overwrites the doctor's derived rating fields
	UpdateRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error
}
