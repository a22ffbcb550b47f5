package providers

import (
	"context"
	"time"
)

// AcceptedEmail is the content of an appointment accepted email
type AcceptedEmail struct {
	PatientEmail    string    `json:"patientEmail"`
	PatientName     string    `json:"patientName"`
	DoctorName      string    `json:"doctorName"`
	AppointmentDate time.Time `json:"appointmentDate"`
	AppointmentTime string    `json:"appointmentTime"`
}

// EmailSender delivers transactional email
type EmailSender interface {
	// SendAcceptedEmail notifies a patient that an appointment was accepted
	SendAcceptedEmail(ctx context.Context, email AcceptedEmail) error
}
