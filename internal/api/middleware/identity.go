package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// Identity headers set by the upstream gateway after authentication
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderPatientID = "X-Patient-ID"
	HeaderDoctorID  = "X-Doctor-ID"
	HeaderUserName  = "X-User-Name"
)

// Identity is the authenticated caller of a request
type Identity struct {
	UserID    string
	Name      string
	Role      entities.UserRole
	PatientID string
	DoctorID  string
}

type identityKey struct{}

// IdentityMiddleware reads the caller's identity from the gateway headers.
// Requests without a user id carry no identity.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		id := Identity{
			UserID:    userID,
			Name:      r.Header.Get(HeaderUserName),
			Role:      entities.UserRole(r.Header.Get(HeaderUserRole)),
			PatientID: r.Header.Get(HeaderPatientID),
			DoctorID:  r.Header.Get(HeaderDoctorID),
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity returns a context carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller's identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireRole rejects requests without an identity (401) or whose role is
// not one of roles (403)
func RequireRole(roles ...entities.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, id.Role) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next(w, r)
		}
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
