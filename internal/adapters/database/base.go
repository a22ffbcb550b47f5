package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

const uniqueViolation = "23505"

// NewStore creates the PostgreSQL backed store. Closing the store closes client.
func NewStore(client *postgres.Client, metrics *observability.Metrics) *repositories.Store {
	store := &repositories.Store{
		Users:         NewUserAdapter(client, metrics),
		Patients:      NewPatientAdapter(client, metrics),
		Doctors:       NewDoctorAdapter(client, metrics),
		Appointments:  NewAppointmentAdapter(client, metrics),
		Chats:         NewChatAdapter(client, metrics),
		Notifications: NewNotificationAdapter(client, metrics),
		Ratings:       NewRatingAdapter(client, metrics),
	}
	store.SetCloser(func(context.Context) error { return client.Close() })
	return store
}

// adapter holds what every PostgreSQL repository needs: the client, a goqu
// builder for the postgres dialect and the metrics used to time queries.
type adapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

func newAdapter(client *postgres.Client, metrics *observability.Metrics) adapter {
	return adapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

func (a adapter) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	defer a.observe(ctx, op, time.Now())
	return a.client.X().GetContext(ctx, dest, query, args...)
}

func (a adapter) selectAll(ctx context.Context, op string, dest any, query string, args ...any) error {
	defer a.observe(ctx, op, time.Now())
	return a.client.X().SelectContext(ctx, dest, query, args...)
}

func (a adapter) exec(ctx context.Context, op string, query string, args ...any) (sql.Result, error) {
	defer a.observe(ctx, op, time.Now())
	return a.client.DB().ExecContext(ctx, query, args...)
}

func (a adapter) observe(ctx context.Context, op string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, op, time.Since(start))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func columns(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
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

// inTx runs fn in a transaction, committing when it returns nil
func (a adapter) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	defer a.observe(ctx, op, time.Now())

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}
