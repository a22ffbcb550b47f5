package entities

import "time"

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationAppointmentBooked      NotificationType = "appointment_booked"
	NotificationAppointmentAccepted    NotificationType = "appointment_accepted"
	NotificationAppointmentRescheduled NotificationType = "appointment_rescheduled"
	NotificationGeneral                NotificationType = "general"
)

// Portal links carried by appointment notifications
const (
	LinkDoctorAppointments  = "/doctor/appointments"
	LinkPatientAppointments = "/patient/appointments"
)

// Notification is an in-app message delivered to an account
type Notification struct {
	ID        string           `json:"id" db:"id" bson:"_id"`
	UserID    string           `json:"userId" db:"user_id" bson:"userId"`
	Message   string           `json:"message" db:"message" bson:"message"`
	Type      NotificationType `json:"type" db:"type" bson:"type"`
	Read      bool             `json:"read" db:"read" bson:"read"`
	Link      string           `json:"link,omitempty" db:"link" bson:"link,omitempty"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at" bson:"createdAt"`
}
