package document

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	adapter
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *mongoclient.Client, metrics *observability.Metrics) *UserAdapter {
	return &UserAdapter{adapter: newAdapter(client, mongoclient.CollectionUsers, metrics)}
}

func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	ensureID(&user.ID)
	stamp(&user.CreatedAt, &user.UpdatedAt)

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("user with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

func (a *UserAdapter) GetByDoctorID(ctx context.Context, doctorID string) (*entities.User, error) {
	return a.getBy(ctx, "doctorId", doctorID)
}

func (a *UserAdapter) GetByPatientID(ctx context.Context, patientID string) (*entities.User, error) {
	return a.getBy(ctx, "patientId", patientID)
}

func (a *UserAdapter) getBy(ctx context.Context, field, value string) (*entities.User, error) {
	if value == "" {
		return nil, apperrors.NewNotFoundError("user not found")
	}

	var user entities.User
	if err := a.findOne(ctx, "get", bson.M{field: value}, &user); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with %s %s not found", field, value))
		}
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return &user, nil
}

func (a *UserAdapter) Count(ctx context.Context) (int, error) {
	n, err := a.count(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count users", err)
	}
	return n, nil
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	adapter
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *mongoclient.Client, metrics *observability.Metrics) *PatientAdapter {
	return &PatientAdapter{adapter: newAdapter(client, mongoclient.CollectionPatients, metrics)}
}

func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	ensureID(&patient.ID)
	stamp(&patient.CreatedAt, &patient.UpdatedAt)

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, patient); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}
	return nil
}

func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	var patient entities.Patient
	if err := a.findOne(ctx, "get", bson.M{"_id": id}, &patient); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return &patient, nil
}

func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	patients := []*entities.Patient{}
	if len(ids) == 0 {
		return patients, nil
	}
	if err := a.findAll(ctx, "get_many", bson.M{"_id": bson.M{"$in": ids}}, &patients); err != nil {
		return nil, apperrors.NewInternalError("failed to get patients", err)
	}
	return patients, nil
}

func (a *PatientAdapter) List(ctx context.Context) ([]*entities.Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	patients := []*entities.Patient{}
	if err := a.findAll(ctx, "list", bson.M{}, &patients, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	return patients, nil
}

func (a *PatientAdapter) Count(ctx context.Context) (int, error) {
	n, err := a.count(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count patients", err)
	}
	return n, nil
}

// UpdateVitals sets the supplied vitals and returns the updated patient
func (a *PatientAdapter) UpdateVitals(ctx context.Context, id string, vitals entities.PatientVitals) (*entities.Patient, error) {
	set := bson.M{"updatedAt": time.Now()}
	if vitals.BloodPressure != nil {
		set["bloodPressure"] = *vitals.BloodPressure
	}
	if vitals.GlucoseLevel != nil {
		set["glucoseLevel"] = *vitals.GlucoseLevel
	}
	if vitals.HeartRate != nil {
		set["heartRate"] = *vitals.HeartRate
	}

	defer a.observe(ctx, "update_vitals", time.Now())

	var patient entities.Patient
	err := a.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter()).Decode(&patient)
	if err != nil {
		if isNoDocuments(err) {
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
func NewDoctorAdapter(client *mongoclient.Client, metrics *observability.Metrics) *DoctorAdapter {
	return &DoctorAdapter{adapter: newAdapter(client, mongoclient.CollectionDoctors, metrics)}
}

func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	ensureID(&doctor.ID)
	stamp(&doctor.CreatedAt, &doctor.UpdatedAt)

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, doctor); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}
	return nil
}

func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	var doctor entities.Doctor
	if err := a.findOne(ctx, "get", bson.M{"_id": id}, &doctor); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return &doctor, nil
}

func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	doctors := []*entities.Doctor{}
	if len(ids) == 0 {
		return doctors, nil
	}
	if err := a.findAll(ctx, "get_many", bson.M{"_id": bson.M{"$in": ids}}, &doctors); err != nil {
		return nil, apperrors.NewInternalError("failed to get doctors", err)
	}
	return doctors, nil
}

func (a *DoctorAdapter) Count(ctx context.Context) (int, error) {
	n, err := a.count(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count doctors", err)
	}
	return n, nil
}

func (a *DoctorAdapter) UpdateRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error {
	defer a.observe(ctx, "update_rating", time.Now())

	result, err := a.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"averageRating": aggregate.Average,
		"totalRatings":  aggregate.Count,
		"updatedAt":     time.Now(),
	}})
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor rating", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	return nil
}
