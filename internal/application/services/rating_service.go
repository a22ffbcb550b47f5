package services

import (
	"context"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// RateDoctorCommand is a patient's rating of a doctor
type RateDoctorCommand struct {
	DoctorID      string `json:"doctorId" validate:"required"`
	PatientID     string `json:"patientId" validate:"required"`
	AppointmentID string `json:"appointmentId"`
	Score         int    `json:"score" validate:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

// RatingService records ratings and keeps each doctor's aggregate current
type RatingService struct {
	ratings repositories.RatingRepository
	doctors repositories.DoctorRepository
}

// NewRatingService creates a new rating service
func NewRatingService(store *repositories.Store) *RatingService {
	return &RatingService{ratings: store.Ratings, doctors: store.Doctors}
}

// Rate stores a rating and recomputes the doctor's average over all of
// their ratings. Concurrent raters may race; the last recomputation wins and
// already includes every stored rating.
func (s *RatingService) Rate(ctx context.Context, cmd RateDoctorCommand) (*entities.Rating, entities.RatingAggregate, error) {
	ctx, span := observability.StartSpan(ctx, "RatingService.Rate")
	defer span.End()

	if err := validateCommand(cmd); err != nil {
		return nil, entities.RatingAggregate{}, err
	}
	if _, err := s.doctors.GetByID(ctx, cmd.DoctorID); err != nil {
		return nil, entities.RatingAggregate{}, err
	}

	rating := &entities.Rating{
		DoctorID:      cmd.DoctorID,
		PatientID:     cmd.PatientID,
		AppointmentID: cmd.AppointmentID,
		Score:         cmd.Score,
		Comment:       cmd.Comment,
		CreatedAt:     time.Now(),
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		observability.RecordError(span, err)
		return nil, entities.RatingAggregate{}, err
	}

	aggregate, err := s.Recompute(ctx, cmd.DoctorID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, entities.RatingAggregate{}, err
	}
	return rating, aggregate, nil
}

// Recompute rebuilds a doctor's rating aggregate from their stored ratings
func (s *RatingService) Recompute(ctx context.Context, doctorID string) (entities.RatingAggregate, error) {
	ratings, err := s.ratings.ListByDoctor(ctx, doctorID)
	if err != nil {
		return entities.RatingAggregate{}, err
	}
	aggregate := entities.AggregateRatings(ratings)
	if err := s.doctors.UpdateRatingAggregate(ctx, doctorID, aggregate); err != nil {
		return entities.RatingAggregate{}, err
	}
	return aggregate, nil
}

// ListByDoctor returns a doctor's ratings, newest first
func (s *RatingService) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error) {
	return s.ratings.ListByDoctor(ctx, doctorID)
}
