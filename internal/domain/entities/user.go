package entities

import (
	"time"
)

// UserRole is the role of an account
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleDoctor  UserRole = "doctor"
	UserRolePatient UserRole = "patient"
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleDoctor, UserRolePatient:
		return true
	}
	return false
}

// User represents an account. Doctor and patient accounts link to their
// profile through DoctorID or PatientID.
type User struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	Name      string    `json:"name" db:"name" bson:"name"`
	Email     string    `json:"email" db:"email" bson:"email"`
	Role      UserRole  `json:"role" db:"role" bson:"role"`
	DoctorID  string    `json:"doctorId,omitempty" db:"doctor_id" bson:"doctorId,omitempty"`
	PatientID string    `json:"patientId,omitempty" db:"patient_id" bson:"patientId,omitempty"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}
