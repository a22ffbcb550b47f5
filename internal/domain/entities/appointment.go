package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusAccepted  AppointmentStatus = "Accepted"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// AppointmentStatuses lists every status in dashboard breakdown order
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusAccepted,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// transitionSources maps a target status to the statuses it may be reached from
var transitionSources = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusAccepted:  {AppointmentStatusScheduled},
	AppointmentStatusCompleted: {AppointmentStatusAccepted},
	AppointmentStatusCancelled: {AppointmentStatusScheduled, AppointmentStatusAccepted},
}

// TransitionSources returns the statuses from which to can be entered
func TransitionSources(to AppointmentStatus) []AppointmentStatus {
	return transitionSources[to]
}

// CanTransition reports whether an appointment in from may move to to
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range transitionSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Appointment represents a booked consultation. PatientName, PatientEmail,
// PatientGender, PatientAge and ConsultingDoctor are snapshots taken at
// booking time.
type Appointment struct {
	ID                string            `json:"id" db:"id" bson:"_id"`
	AppointmentID     string            `json:"appointmentId" db:"appointment_id" bson:"appointmentId"`
	PatientName       string            `json:"patientName" db:"patient_name" bson:"patientName"`
	PatientEmail      string            `json:"patientEmail" db:"patient_email" bson:"patientEmail"`
	PatientGender     string            `json:"patientGender" db:"patient_gender" bson:"patientGender"`
	PatientAge        int               `json:"patientAge" db:"patient_age" bson:"patientAge"`
	AppointmentDate   time.Time         `json:"appointmentDate" db:"appointment_date" bson:"appointmentDate"`
	AppointmentTime   string            `json:"appointmentTime" db:"appointment_time" bson:"appointmentTime"`
	AppointmentReason string            `json:"appointmentReason" db:"appointment_reason" bson:"appointmentReason"`
	AppointmentType   string            `json:"appointmentType" db:"appointment_type" bson:"appointmentType"`
	ConsultingDoctor  string            `json:"consultingDoctor" db:"consulting_doctor" bson:"consultingDoctor"`
	DoctorID          string            `json:"doctorId" db:"doctor_id" bson:"doctorId"`
	PatientID         string            `json:"patientId" db:"patient_id" bson:"patientId"`
	Notes             string            `json:"notes" db:"notes" bson:"notes"`
	Status            AppointmentStatus `json:"status" db:"status" bson:"status"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}
