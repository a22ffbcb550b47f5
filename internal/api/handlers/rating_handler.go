package handlers

import (
	"context"
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// RatingService defines the interface for doctor ratings
type RatingService interface {
	Rate(ctx context.Context, cmd services.RateDoctorCommand) (*entities.Rating, entities.RatingAggregate, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error)
}

// RatingHandler handles rating requests
type RatingHandler struct {
	service RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(service RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

// RateDoctor handles POST /api/ratings
func (h *RatingHandler) RateDoctor(w http.ResponseWriter, r *http.Request) {
	var cmd services.RateDoctorCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok && id.PatientID != "" {
		cmd.PatientID = id.PatientID
	}

	rating, aggregate, err := h.service.Rate(r.Context(), cmd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"rating":        rating,
		"averageRating": aggregate.Average,
		"totalRatings":  aggregate.Count,
	})
}

// ListDoctorRatings handles GET /api/doctors/{id}/ratings
func (h *RatingHandler) ListDoctorRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.service.ListByDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []*entities.Rating{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ratings": ratings,
		"count":   len(ratings),
	})
}
