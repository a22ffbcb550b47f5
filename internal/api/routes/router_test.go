package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/memory"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/handlers"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/routes"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

type caller struct {
	userID    string
	role      entities.UserRole
	patientID string
	doctorID  string
}

var (
	adminCaller   = caller{userID: "u-admin", role: entities.UserRoleAdmin}
	doctorCaller  = caller{userID: "u-d1", role: entities.UserRoleDoctor, doctorID: "d1"}
	patientCaller = caller{userID: "u-p1", role: entities.UserRolePatient, patientID: "p1"}
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	require.NoError(t, store.Doctors.Create(ctx, &entities.Doctor{ID: "d1", FullName: "Jane Smith"}))
	require.NoError(t, store.Patients.Create(ctx, &entities.Patient{ID: "p1", Name: "Alice Doe", Age: 34}))
	require.NoError(t, store.Users.Create(ctx, &entities.User{ID: "u-d1", Name: "Jane Smith", Email: "jane@clinic.test", Role: entities.UserRoleDoctor, DoctorID: "d1"}))
	require.NoError(t, store.Users.Create(ctx, &entities.User{ID: "u-p1", Name: "Alice Doe", Email: "alice@clinic.test", Role: entities.UserRolePatient, PatientID: "p1"}))

	bus := events.NewLocalEventBus()
	queue := events.NewLocalTaskQueue(16)
	t.Cleanup(func() {
		bus.Close()
		queue.Close()
	})

	notificationService := services.NewNotificationService(store.Notifications, bus)
	dispatcher := services.NewSideEffectDispatcher(store, notificationService, queue, observability.NewDegradationSink(nil), time.UTC)

	router := routes.NewRouter(
		handlers.NewAppointmentHandler(services.NewAppointmentService(store, dispatcher, nil)),
		handlers.NewChatHandler(services.NewChatService(store.Chats)),
		handlers.NewNotificationHandler(notificationService),
		handlers.NewRatingHandler(services.NewRatingService(store)),
		handlers.NewDashboardHandler(
			services.NewDashboardService(store, nil, time.Minute, time.UTC, nil),
			services.NewAnalyticsService(store.Patients, nil, time.Minute),
			time.UTC,
		),
		middleware.NewResponseCache(nil, 0),
		[]string{"http://localhost:3000"},
		nil,
	)
	return router.SetupRoutes()
}

func do(t *testing.T, h http.Handler, c *caller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if c != nil {
		req.Header.Set(middleware.HeaderUserID, c.userID)
		req.Header.Set(middleware.HeaderUserRole, string(c.role))
		req.Header.Set(middleware.HeaderPatientID, c.patientID)
		req.Header.Set(middleware.HeaderDoctorID, c.doctorID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	w := do(t, newServer(t), nil, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_RoleGates(t *testing.T) {
	h := newServer(t)

	tests := []struct {
		name   string
		caller *caller
		method string
		path   string
		status int
	}{
		{"anonymous dashboard", nil, http.MethodGet, "/api/admin/dashboard", http.StatusUnauthorized},
		{"patient dashboard", &patientCaller, http.MethodGet, "/api/admin/dashboard", http.StatusForbidden},
		{"admin dashboard", &adminCaller, http.MethodGet, "/api/admin/dashboard", http.StatusOK},
		{"doctor lists all appointments", &doctorCaller, http.MethodGet, "/api/appointments", http.StatusForbidden},
		{"patient accepts", &patientCaller, http.MethodPatch, "/api/appointments/x/accept", http.StatusForbidden},
		{"doctor cancels", &doctorCaller, http.MethodDelete, "/api/appointments/x", http.StatusForbidden},
		{"admin analytics", &adminCaller, http.MethodGet, "/api/analytics", http.StatusOK},
		{"public ratings", nil, http.MethodGet, "/api/doctors/d1/ratings", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.caller, tt.method, tt.path, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_BookAcceptChatFlow(t *testing.T) {
	h := newServer(t)

	booking := `{"doctorId":"d1","patientName":"Alice Doe","patientEmail":"alice@example.com","patientGender":"Female","patientAge":34,` +
		`"appointmentDate":"2026-03-15T10:00:00Z","appointmentTime":"10:00 AM","appointmentReason":"Chest pain","bloodPressure":150}`
	w := do(t, h, &patientCaller, http.MethodPost, "/api/appointments", booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var appointment entities.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appointment))
	assert.Equal(t, "p1", appointment.PatientID)
	assert.Equal(t, entities.AppointmentStatusScheduled, appointment.Status)

	// Reschedule is only allowed once accepted
	w = do(t, h, &doctorCaller, http.MethodPatch, "/api/appointments/"+appointment.ID+"/reschedule",
		`{"appointmentDate":"2026-03-16T00:00:00Z","appointmentTime":"2:00 PM"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, &doctorCaller, http.MethodPatch, "/api/appointments/"+appointment.ID+"/accept", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, &doctorCaller, http.MethodPatch, "/api/appointments/"+appointment.ID+"/accept", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, &patientCaller, http.MethodGet, "/api/chats/patient/p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var chats struct {
		Chats []struct {
			ID          string `json:"id"`
			UnreadCount int    `json:"unreadCount"`
		} `json:"chats"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chats))
	require.Equal(t, 1, chats.Count)
	assert.Equal(t, 1, chats.Chats[0].UnreadCount)

	w = do(t, h, &patientCaller, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":1`)

	w = do(t, h, &adminCaller, http.MethodGet, "/api/admin/high-risk-appointments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/appointments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
