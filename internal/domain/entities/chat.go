package entities

import "time"

// ParticipantRole identifies which side of a chat a message came from
type ParticipantRole string

const (
	ParticipantDoctor  ParticipantRole = "doctor"
	ParticipantPatient ParticipantRole = "patient"
)

// Other returns the opposite participant role
func (r ParticipantRole) Other() ParticipantRole {
	if r == ParticipantDoctor {
		return ParticipantPatient
	}
	return ParticipantDoctor
}

// Valid reports whether r is a chat participant role
func (r ParticipantRole) Valid() bool {
	return r == ParticipantDoctor || r == ParticipantPatient
}

// Chat is the single conversation thread between a doctor and a patient
type Chat struct {
	ID                string     `json:"id" db:"id" bson:"_id"`
	DoctorID          string     `json:"doctorId" db:"doctor_id" bson:"doctorId"`
	PatientID         string     `json:"patientId" db:"patient_id" bson:"patientId"`
	DoctorName        string     `json:"doctorName" db:"doctor_name" bson:"doctorName"`
	PatientName       string     `json:"patientName" db:"patient_name" bson:"patientName"`
	Subject           string     `json:"subject" db:"subject" bson:"subject"`
	AppointmentID     string     `json:"appointmentId,omitempty" db:"appointment_id" bson:"appointmentId,omitempty"`
	LastMessageAt     time.Time  `json:"lastMessageAt" db:"last_message_at" bson:"lastMessageAt"`
	LastReadByDoctor  *time.Time `json:"lastReadByDoctor,omitempty" db:"last_read_by_doctor" bson:"lastReadByDoctor,omitempty"`
	LastReadByPatient *time.Time `json:"lastReadByPatient,omitempty" db:"last_read_by_patient" bson:"lastReadByPatient,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// LastReadBy returns when role last read the chat, or the zero time
func (c *Chat) LastReadBy(role ParticipantRole) time.Time {
	var t *time.Time
	if role == ParticipantDoctor {
		t = c.LastReadByDoctor
	} else {
		t = c.LastReadByPatient
	}
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ChatSeed carries the fields used when a chat is created for the first time
type ChatSeed struct {
	DoctorName    string
	PatientName   string
	Subject       string
	AppointmentID string
}

// Message is an append-only chat entry
type Message struct {
	ID         string          `json:"id" db:"id" bson:"_id"`
	ChatID     string          `json:"chatId" db:"chat_id" bson:"chatId"`
	SenderID   string          `json:"senderId,omitempty" db:"sender_id" bson:"senderId,omitempty"`
	SenderName string          `json:"senderName" db:"sender_name" bson:"senderName"`
	SenderRole ParticipantRole `json:"senderRole" db:"sender_role" bson:"senderRole"`
	Text       string          `json:"text" db:"text" bson:"text"`
	Read       bool            `json:"read" db:"read" bson:"read"`
	ReadAt     *time.Time      `json:"readAt,omitempty" db:"read_at" bson:"readAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// ChatSummary is a chat list entry for one participant
type ChatSummary struct {
	*Chat
	LastMessage *Message `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}

// ChatDetail is a chat with its messages in chronological order
type ChatDetail struct {
	*Chat
	Messages []*Message `json:"messages"`
}
