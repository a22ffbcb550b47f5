package entities

import "time"

// Rating bounds
const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is a patient's score for a doctor after an appointment
type Rating struct {
	ID            string    `json:"id" db:"id" bson:"_id"`
	DoctorID      string    `json:"doctorId" db:"doctor_id" bson:"doctorId"`
	PatientID     string    `json:"patientId" db:"patient_id" bson:"patientId"`
	AppointmentID string    `json:"appointmentId" db:"appointment_id" bson:"appointmentId"`
	Score         int       `json:"score" db:"score" bson:"score"`
	Comment       string    `json:"comment,omitempty" db:"comment" bson:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// RatingAggregate is the average and count over a doctor's ratings
type RatingAggregate struct {
	Average float64 `json:"averageRating"`
	Count   int     `json:"totalRatings"`
}

// AggregateRatings computes the aggregate over ratings
func AggregateRatings(ratings []*Rating) RatingAggregate {
	if len(ratings) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	return RatingAggregate{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}
