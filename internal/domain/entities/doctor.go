package entities

import "time"

// Doctor represents a doctor profile. AverageRating and TotalRatings are
// only written by rating recomputation.
type Doctor struct {
	ID             string    `json:"id" db:"id" bson:"_id"`
	UserID         string    `json:"userId,omitempty" db:"user_id" bson:"userId,omitempty"`
	FullName       string    `json:"fullName" db:"full_name" bson:"fullName"`
	Email          string    `json:"email,omitempty" db:"email" bson:"email,omitempty"`
	MobileNumber   string    `json:"mobileNumber,omitempty" db:"mobile_number" bson:"mobileNumber,omitempty"`
	Specialization string    `json:"specialization,omitempty" db:"specialization" bson:"specialization,omitempty"`
	AverageRating  float64   `json:"averageRating" db:"average_rating" bson:"averageRating"`
	TotalRatings   int       `json:"totalRatings" db:"total_ratings" bson:"totalRatings"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}
