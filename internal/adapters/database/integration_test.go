//go:build integration

package database_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/database"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newIntegrationStore(t *testing.T) *repositories.Store {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	port, _ := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", ""),
		Database: getEnv("TEST_DB_NAME", "healthcare_test"),
		SSLMode:  "disable",
	}

	ctx := context.Background()
	client, err := postgres.NewClient(ctx, cfg)
	require.NoError(t, err, "Failed to create postgres client")
	_, err = client.Migrate(ctx)
	require.NoError(t, err)

	store := database.NewStore(client, nil)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestAppointmentAdapter_ConcurrentAcceptIntegration(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	appointment := &entities.Appointment{
		AppointmentID:   "APT-IT-" + uuid.New().String(),
		PatientName:     "Alice Doe",
		PatientEmail:    "alice@example.com",
		PatientGender:   "Female",
		PatientAge:      34,
		AppointmentDate: time.Now().Add(24 * time.Hour).Truncate(time.Hour),
		AppointmentTime: "10:00 AM",
		DoctorID:        uuid.New().String(),
		PatientID:       uuid.New().String(),
		Status:          entities.AppointmentStatusScheduled,
	}
	require.NoError(t, store.Appointments.Create(ctx, appointment))
	t.Cleanup(func() { _ = store.Appointments.Delete(context.Background(), appointment.ID) })

	const callers = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Appointments.TransitionStatus(ctx, appointment.ID,
				entities.TransitionSources(entities.AppointmentStatusAccepted), entities.AppointmentStatusAccepted)
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperrors.IsInvalidState(err):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(callers-1), rejected.Load())
}

func TestChatAdapter_FindOrCreateUniqueIntegration(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	doctorID, patientID := uuid.New().String(), uuid.New().String()

	const callers = 6
	ids := make([]string, callers)
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chat, isNew, err := store.Chats.FindOrCreate(ctx, doctorID, patientID, entities.ChatSeed{Subject: "Follow-up"})
			if err != nil {
				return
			}
			if isNew {
				created.Add(1)
			}
			ids[i] = chat.ID
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	_ = store.Chats.Delete(ctx, ids[0])
}
