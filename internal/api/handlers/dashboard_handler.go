package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// DashboardService defines the interface for the admin dashboard
type DashboardService interface {
	Snapshot(ctx context.Context, filter services.DashboardFilter) (*entities.DashboardSnapshot, error)
	HighRiskAppointments(ctx context.Context, filter services.DashboardFilter) ([]entities.HighRiskAppointment, error)
}

// AnalyticsService defines the interface for patient risk analytics
type AnalyticsService interface {
	Summary(ctx context.Context) (*entities.AnalyticsSummary, error)
	PatientRisks(ctx context.Context) ([]entities.PatientRiskDetail, error)
}

// DashboardHandler handles admin dashboard and analytics requests
type DashboardHandler struct {
	dashboard DashboardService
	analytics AnalyticsService
	location  *time.Location
}

// NewDashboardHandler creates a new dashboard handler. Date filters are
// interpreted in loc.
func NewDashboardHandler(dashboard DashboardService, analytics AnalyticsService, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{dashboard: dashboard, analytics: analytics, location: loc}
}

// GetDashboard handles GET /api/admin/dashboard?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}
	snapshot, err := h.dashboard.Snapshot(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

// GetHighRiskAppointments handles GET /api/admin/high-risk-appointments
func (h *DashboardHandler) GetHighRiskAppointments(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}
	appointments, err := h.dashboard.HighRiskAppointments(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// GetAnalytics handles GET /api/analytics
func (h *DashboardHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// GetPatientRisks handles GET /api/analytics/patients
func (h *DashboardHandler) GetPatientRisks(w http.ResponseWriter, r *http.Request) {
	patients, err := h.analytics.PatientRisks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

func (h *DashboardHandler) filter(w http.ResponseWriter, r *http.Request) (services.DashboardFilter, bool) {
	query := r.URL.Query()
	start, err := parseDate(query.Get("startDate"), h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid startDate (use YYYY-MM-DD)")
		return services.DashboardFilter{}, false
	}
	end, err := parseDate(query.Get("endDate"), h.location)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid endDate (use YYYY-MM-DD)")
		return services.DashboardFilter{}, false
	}
	if start != nil && end != nil && end.Before(*start) {
		respondWithError(w, http.StatusBadRequest, "endDate must not be before startDate")
		return services.DashboardFilter{}, false
	}
	return services.DashboardFilter{StartDate: start, EndDate: end}, true
}
