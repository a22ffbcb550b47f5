package routes

import (
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/api/handlers"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler  *handlers.AppointmentHandler
	chatHandler         *handlers.ChatHandler
	notificationHandler *handlers.NotificationHandler
	ratingHandler       *handlers.RatingHandler
	dashboardHandler    *handlers.DashboardHandler

	responseCache  *middleware.ResponseCache
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. responseCache may be nil.
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
	ratingHandler *handlers.RatingHandler,
	dashboardHandler *handlers.DashboardHandler,
	responseCache *middleware.ResponseCache,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		appointmentHandler:  appointmentHandler,
		chatHandler:         chatHandler,
		notificationHandler: notificationHandler,
		ratingHandler:       ratingHandler,
		dashboardHandler:    dashboardHandler,
		responseCache:       responseCache,
		allowedOrigins:      allowedOrigins,
		metrics:             metrics,
	}
}

var (
	admin        = middleware.RequireRole(entities.UserRoleAdmin)
	doctor       = middleware.RequireRole(entities.UserRoleDoctor)
	patient      = middleware.RequireRole(entities.UserRolePatient)
	participants = middleware.RequireRole(entities.UserRoleDoctor, entities.UserRolePatient)
	anyone       = middleware.RequireRole(entities.UserRoleAdmin, entities.UserRoleDoctor, entities.UserRolePatient)
)

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Appointment endpoints
	a := r.appointmentHandler
	r.mux.HandleFunc("POST /api/appointments", patient(a.BookAppointment))
	r.mux.HandleFunc("GET /api/appointments", admin(a.ListAppointments))
	r.mux.HandleFunc("GET /api/appointments/{id}", anyone(a.GetAppointment))
	r.mux.HandleFunc("GET /api/doctors/{id}/appointments", anyone(a.ListDoctorAppointments))
	r.mux.HandleFunc("GET /api/patients/{id}/appointments", anyone(a.ListPatientAppointments))
	r.mux.HandleFunc("PATCH /api/appointments/{id}/accept", doctor(a.AcceptAppointment))
	r.mux.HandleFunc("PATCH /api/appointments/{id}/complete", doctor(a.CompleteAppointment))
	r.mux.HandleFunc("PATCH /api/appointments/{id}/reschedule", doctor(a.RescheduleAppointment))
	r.mux.HandleFunc("PATCH /api/appointments/{id}/cancel", admin(a.CancelAppointment))
	r.mux.HandleFunc("DELETE /api/appointments/{id}", admin(a.DeleteAppointment))

	// Chat endpoints
	c := r.chatHandler
	r.mux.HandleFunc("GET /api/chats/doctor/{doctorId}", doctor(c.ListDoctorChats))
	r.mux.HandleFunc("GET /api/chats/patient/{patientId}", patient(c.ListPatientChats))
	r.mux.HandleFunc("GET /api/chats/{id}", participants(c.GetChat))
	r.mux.HandleFunc("POST /api/chats/{id}/messages", participants(c.PostMessage))
	r.mux.HandleFunc("PATCH /api/chats/{id}/read", participants(c.MarkRead))
	r.mux.HandleFunc("DELETE /api/chats/{id}", participants(c.DeleteChat))

	// Notification endpoints
	n := r.notificationHandler
	r.mux.HandleFunc("GET /api/notifications", anyone(n.ListNotifications))
	r.mux.HandleFunc("GET /api/notifications/stream", anyone(n.StreamNotifications))
	r.mux.HandleFunc("PATCH /api/notifications/read-all", anyone(n.MarkAllRead))
	r.mux.HandleFunc("PATCH /api/notifications/{id}/read", anyone(n.MarkRead))
	r.mux.HandleFunc("DELETE /api/notifications/read", anyone(n.ClearRead))

	// Rating endpoints
	r.mux.HandleFunc("POST /api/ratings", patient(r.ratingHandler.RateDoctor))
	r.mux.HandleFunc("GET /api/doctors/{id}/ratings", r.ratingHandler.ListDoctorRatings)

	// Admin dashboard and analytics endpoints. The dashboard snapshot caches
	// itself; the remaining reads go through the response cache under the
	// prefixes cleared on appointment changes.
	d := r.dashboardHandler
	r.mux.HandleFunc("GET /api/admin/dashboard", admin(d.GetDashboard))
	r.mux.HandleFunc("GET /api/admin/high-risk-appointments",
		admin(r.responseCache.Cached(services.DashboardCachePrefix, d.GetHighRiskAppointments)))
	r.mux.HandleFunc("GET /api/analytics", admin(r.responseCache.Cached(services.AnalyticsCachePrefix, d.GetAnalytics)))
	r.mux.HandleFunc("GET /api/analytics/patients",
		admin(r.responseCache.Cached(services.AnalyticsCachePrefix, d.GetPatientRisks)))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.IdentityMiddleware(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
