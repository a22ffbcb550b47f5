package repositories

import (
	"context"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// UserRepository defines the interface for account data operations
type UserRepository interface {
	// Create creates a new account
	Create(ctx context.Context, user *entities.User) error

	// GetByDoctorID retrieves the account linked to a doctor profile
	GetByDoctorID(ctx context.Context, doctorID string) (*entities.User, error)

	// GetByPatientID retrieves the account linked to a patient profile
	GetByPatientID(ctx context.Context, patientID string) (*entities.User, error)

	// Count returns the number of accounts
	Count(ctx context.Context) (int, error)
}
