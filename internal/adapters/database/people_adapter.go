package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

var (
	userColumns = columns(
		"id", "name", "email", "role", "doctor_id", "patient_id", "created_at", "updated_at",
	)
	patientColumns = columns(
		"id", "user_id", "name", "email", "age", "gender",
		"blood_pressure", "glucose_level", "heart_rate", "created_at", "updated_at",
	)
	doctorColumns = columns(
		"id", "user_id", "full_name", "email", "mobile_number", "specialization",
		"average_rating", "total_ratings", "created_at", "updated_at",
	)
)

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	adapter
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client, metrics *observability.Metrics) *UserAdapter {
	return &UserAdapter{adapter: newAdapter(client, metrics)}
}

// Create creates a new account
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	ensureID(&user.ID)
	stamp(&user.CreatedAt, &user.UpdatedAt)

	query, args, err := a.db.Insert("users").Rows(goqu.Record{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"doctor_id":  user.DoctorID,
		"patient_id": user.PatientID,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "users.create", query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("user with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// GetByDoctorID retrieves the account linked to a doctor profile
func (a *UserAdapter) GetByDoctorID(ctx context.Context, doctorID string) (*entities.User, error) {
	return a.getBy(ctx, "doctor_id", doctorID)
}

// GetByPatientID retrieves the account linked to a patient profile
func (a *UserAdapter) GetByPatientID(ctx context.Context, patientID string) (*entities.User, error) {
	return a.getBy(ctx, "patient_id", patientID)
}

func (a *UserAdapter) getBy(ctx context.Context, column, value string) (*entities.User, error) {
	if value == "" {
		return nil, apperrors.NewNotFoundError("user not found")
	}

	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{column: value}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var user entities.User
	if err := a.get(ctx, "users.get", &user, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with %s %s not found", column, value))
		}
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return &user, nil
}

// Count returns the number of accounts
func (a *UserAdapter) Count(ctx context.Context) (int, error) {
	return a.count(ctx, "users")
}

func (a adapter) count(ctx context.Context, table string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From(table).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := a.get(ctx, table+".count", &n, query, args...); err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("failed to count %s", table), err)
	}
	return n, nil
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	adapter
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client, metrics *observability.Metrics) *PatientAdapter {
	return &PatientAdapter{adapter: newAdapter(client, metrics)}
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	ensureID(&patient.ID)
	stamp(&patient.CreatedAt, &patient.UpdatedAt)

	query, args, err := a.db.Insert("patients").Rows(goqu.Record{
		"id":             patient.ID,
		"user_id":        patient.UserID,
		"name":           patient.Name,
		"email":          patient.Email,
		"age":            patient.Age,
		"gender":         patient.Gender,
		"blood_pressure": patient.BloodPressure,
		"glucose_level":  patient.GlucoseLevel,
		"heart_rate":     patient.HeartRate,
		"created_at":     patient.CreatedAt,
		"updated_at":     patient.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "patients.create", query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}
	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var patient entities.Patient
	if err := a.get(ctx, "patients.get", &patient, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return &patient, nil
}

// GetByIDs retrieves the patients found among ids
func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var patients []*entities.Patient
	if err := a.selectAll(ctx, "patients.get_many", &patients, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get patients", err)
	}
	return patients, nil
}

// List retrieves every patient ordered by name
func (a *PatientAdapter) List(ctx context.Context) ([]*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var patients []*entities.Patient
	if err := a.selectAll(ctx, "patients.list", &patients, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	return patients, nil
}

// Count returns the number of patients
func (a *PatientAdapter) Count(ctx context.Context) (int, error) {
	return a.count(ctx, "patients")
}

// UpdateVitals applies the supplied vitals and returns the updated patient
func (a *PatientAdapter) UpdateVitals(ctx context.Context, id string, vitals entities.PatientVitals) (*entities.Patient, error) {
	set := goqu.Record{"updated_at": time.Now()}
	if vitals.BloodPressure != nil {
		set["blood_pressure"] = *vitals.BloodPressure
	}
	if vitals.GlucoseLevel != nil {
		set["glucose_level"] = *vitals.GlucoseLevel
	}
	if vitals.HeartRate != nil {
		set["heart_rate"] = *vitals.HeartRate
	}

	query, args, err := a.db.Update("patients").
		Set(set).
		Where(goqu.Ex{"id": id}).
		Returning(patientColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	var patient entities.Patient
	if err := a.get(ctx, "patients.update_vitals", &patient, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to update patient vitals", err)
	}
	return &patient, nil
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	adapter
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client, metrics *observability.Metrics) *DoctorAdapter {
	return &DoctorAdapter{adapter: newAdapter(client, metrics)}
}

// Create creates a new doctor
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	ensureID(&doctor.ID)
	stamp(&doctor.CreatedAt, &doctor.UpdatedAt)

	query, args, err := a.db.Insert("doctors").Rows(goqu.Record{
		"id":             doctor.ID,
		"user_id":        doctor.UserID,
		"full_name":      doctor.FullName,
		"email":          doctor.Email,
		"mobile_number":  doctor.MobileNumber,
		"specialization": doctor.Specialization,
		"average_rating": doctor.AverageRating,
		"total_ratings":  doctor.TotalRatings,
		"created_at":     doctor.CreatedAt,
		"updated_at":     doctor.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.exec(ctx, "doctors.create", query, args...); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}
	return nil
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var doctor entities.Doctor
	if err := a.get(ctx, "doctors.get", &doctor, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return &doctor, nil
}

// GetByIDs retrieves the doctors found among ids
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}

	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var doctors []*entities.Doctor
	if err := a.selectAll(ctx, "doctors.get_many", &doctors, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get doctors", err)
	}
	return doctors, nil
}

// Count returns the number of doctors
func (a *DoctorAdapter) Count(ctx context.Context) (int, error) {
	return a.count(ctx, "doctors")
}

// UpdateRatingAggregate overwrites the doctor's derived rating fields
func (a *DoctorAdapter) UpdateRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error {
	query, args, err := a.db.Update("doctors").
		Set(goqu.Record{
			"average_rating": aggregate.Average,
			"total_ratings":  aggregate.Count,
			"updated_at":     time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.exec(ctx, "doctors.update_rating", query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor rating", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	return nil
}
