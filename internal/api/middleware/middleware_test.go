package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/cache"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	redisclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/redis"
)

func TestRequireRole(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := middleware.IdentityMiddleware(middleware.RequireRole(entities.UserRoleDoctor, entities.UserRoleAdmin)(ok))

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"patient", map[string]string{middleware.HeaderUserID: "u1", middleware.HeaderUserRole: "patient"}, http.StatusForbidden},
		{"doctor", map[string]string{middleware.HeaderUserID: "u2", middleware.HeaderUserRole: "doctor"}, http.StatusOK},
		{"admin", map[string]string{middleware.HeaderUserID: "u3", middleware.HeaderUserRole: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIdentityMiddleware(t *testing.T) {
	var got middleware.Identity
	handler := middleware.IdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderUserID, "u1")
	req.Header.Set(middleware.HeaderUserRole, "patient")
	req.Header.Set(middleware.HeaderPatientID, "p1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, middleware.Identity{UserID: "u1", Role: entities.UserRolePatient, PatientID: "p1"}, got)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", nil, "https://portal.test", http.MethodGet, "*", http.StatusOK},
		{"listed origin", []string{"https://portal.test"}, "https://portal.test", http.MethodGet, "https://portal.test", http.StatusOK},
		{"unlisted origin", []string{"https://portal.test"}, "https://evil.test", http.MethodGet, "", http.StatusOK},
		{"preflight", []string{"https://portal.test"}, "https://portal.test", http.MethodOptions, "https://portal.test", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/appointments", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			middleware.CORSMiddleware(tt.allowed)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestResponseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	provider := cache.NewRedisAdapter(redisclient.NewClientFromRedis(rdb), nil)

	calls := 0
	handler := middleware.NewResponseCache(provider, 60).Cached("analytics:", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalPatients":3}`))
	})

	for i, want := range []string{"MISS", "HIT"} {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
		assert.Equal(t, want, w.Header().Get("X-Cache"), "request %d", i)
		assert.JSONEq(t, `{"totalPatients":3}`, w.Body.String())
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, provider.DeletePattern(context.Background(), "analytics:*"))
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}
