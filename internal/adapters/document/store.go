// Package document implements the repositories on MongoDB. Every entity is
// stored under its string ID in _id; uniqueness of appointment IDs and of
// chat pairs relies on the indexes created by mongo.Client.EnsureIndexes.
package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStore creates the MongoDB backed store. Closing the store disconnects client.
func NewStore(client *mongoclient.Client, metrics *observability.Metrics) *repositories.Store {
	store := &repositories.Store{
		Users:         NewUserAdapter(client, metrics),
		Patients:      NewPatientAdapter(client, metrics),
		Doctors:       NewDoctorAdapter(client, metrics),
		Appointments:  NewAppointmentAdapter(client, metrics),
		Chats:         NewChatAdapter(client, metrics),
		Notifications: NewNotificationAdapter(client, metrics),
		Ratings:       NewRatingAdapter(client, metrics),
	}
	store.SetCloser(client.Close)
	return store
}

type adapter struct {
	coll    *mongo.Collection
	metrics *observability.Metrics
}

func newAdapter(client *mongoclient.Client, collection string, metrics *observability.Metrics) adapter {
	return adapter{coll: client.Collection(collection), metrics: metrics}
}

func (a adapter) observe(ctx context.Context, op string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, a.coll.Name()+"."+op, time.Since(start))
}

// findAll decodes every document matching filter into out
func (a adapter) findAll(ctx context.Context, op string, filter any, out any, opts ...*options.FindOptions) error {
	defer a.observe(ctx, op, time.Now())

	cursor, err := a.coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (a adapter) findOne(ctx context.Context, op string, filter any, out any, opts ...*options.FindOneOptions) error {
	defer a.observe(ctx, op, time.Now())
	return a.coll.FindOne(ctx, filter, opts...).Decode(out)
}

func (a adapter) count(ctx context.Context) (int, error) {
	defer a.observe(ctx, "count", time.Now())
	n, err := a.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
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

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
