package document

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	adapter
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *mongoclient.Client, metrics *observability.Metrics) *AppointmentAdapter {
	return &AppointmentAdapter{adapter: newAdapter(client, mongoclient.CollectionAppointments, metrics)}
}

// Create stores a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	ensureID(&appointment.ID)
	stamp(&appointment.CreatedAt, &appointment.UpdatedAt)

	defer a.observe(ctx, "create", time.Now())
	if _, err := a.coll.InsertOne(ctx, appointment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError(fmt.Sprintf("appointment %s already exists", appointment.AppointmentID))
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	var appointment entities.Appointment
	if err := a.findOne(ctx, "get", bson.M{"_id": id}, &appointment); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return &appointment, nil
}

// TransitionStatus moves the appointment to `to` if its status is in `from`,
// as a single findAndModify
func (a *AppointmentAdapter) TransitionStatus(ctx context.Context, id string, from []entities.AppointmentStatus, to entities.AppointmentStatus) (*entities.Appointment, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}

	appointment, err := a.conditionalUpdate(ctx, "transition", filter, update)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, a.explainMiss(ctx, id, fmt.Sprintf("cannot move appointment to %s", to))
	}
	return appointment, nil
}

// Reschedule updates date and time of an Accepted appointment
func (a *AppointmentAdapter) Reschedule(ctx context.Context, id string, date time.Time, slot string) (*entities.Appointment, error) {
	filter := bson.M{"_id": id, "status": entities.AppointmentStatusAccepted}
	update := bson.M{"$set": bson.M{
		"appointmentDate": date,
		"appointmentTime": slot,
		"updatedAt":       time.Now(),
	}}

	appointment, err := a.conditionalUpdate(ctx, "reschedule", filter, update)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, a.explainMiss(ctx, id, "only accepted appointments can be rescheduled")
	}
	return appointment, nil
}

// conditionalUpdate returns nil without error when filter matched nothing
func (a *AppointmentAdapter) conditionalUpdate(ctx context.Context, op string, filter, update bson.M) (*entities.Appointment, error) {
	defer a.observe(ctx, op, time.Now())

	var appointment entities.Appointment
	err := a.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&appointment)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("failed to update appointment", err)
	}
	return &appointment, nil
}

func (a *AppointmentAdapter) explainMiss(ctx context.Context, id, invalidMsg string) error {
	current, err := a.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.NewInvalidStateError(fmt.Sprintf("%s (status is %s)", invalidMsg, current.Status))
}

// Delete removes an appointment
func (a *AppointmentAdapter) Delete(ctx context.Context, id string) error {
	defer a.observe(ctx, "delete", time.Now())

	result, err := a.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.NewInternalError("failed to delete appointment", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return nil
}

// List retrieves appointments matching filter ordered by appointment date
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	query := bson.M{}
	if filter.DoctorID != "" {
		query["doctorId"] = filter.DoctorID
	}
	if filter.PatientID != "" {
		query["patientId"] = filter.PatientID
	}
	if filter.From != nil || filter.To != nil {
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lte"] = *filter.To
		}
		query["appointmentDate"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}, {Key: "appointmentId", Value: 1}})

	appointments := []*entities.Appointment{}
	if err := a.findAll(ctx, "list", query, &appointments, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	return appointments, nil
}
