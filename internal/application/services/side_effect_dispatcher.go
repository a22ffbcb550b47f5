package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// DisplayDateLayout formats appointment dates in notification and chat text
const DisplayDateLayout = "Jan 2, 2006"

// Side effect kinds reported to the degradation sink
const (
	SideEffectNotification = "notification"
	SideEffectEmail        = "email"
)

// DegradationReporter receives failures that are never surfaced to callers
type DegradationReporter interface {
	ReportDegraded(ctx context.Context, kind string, err error, fields map[string]string)
}

// SideEffectDispatcher runs what follows a committed appointment change:
// notifications, the accepted email task and the chat system message.
// Notifications and email are best effort.
type SideEffectDispatcher struct {
	users         repositories.UserRepository
	chats         repositories.ChatRepository
	notifications *NotificationService
	tasks         providers.TaskQueue
	sink          DegradationReporter
	location      *time.Location
}

// NewSideEffectDispatcher creates a new dispatcher. Dates in messages are
// rendered in loc.
func NewSideEffectDispatcher(
	store *repositories.Store,
	notifications *NotificationService,
	tasks providers.TaskQueue,
	sink DegradationReporter,
	loc *time.Location,
) *SideEffectDispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &SideEffectDispatcher{
		users:         store.Users,
		chats:         store.Chats,
		notifications: notifications,
		tasks:         tasks,
		sink:          sink,
		location:      loc,
	}
}

// AppointmentBooked notifies the doctor's account
func (d *SideEffectDispatcher) AppointmentBooked(ctx context.Context, a *entities.Appointment) {
	doctorUser, ok := d.recipient(ctx, a, d.users.GetByDoctorID, a.DoctorID, "doctor")
	if !ok {
		return
	}
	msg := fmt.Sprintf("New appointment booked by %s on %s", a.PatientName, d.formatDate(a.AppointmentDate))
	d.notify(ctx, a, doctorUser.ID, msg, entities.NotificationAppointmentBooked, entities.LinkDoctorAppointments)
}

// AppointmentAccepted notifies the patient, queues the confirmation email and
// posts the acceptance message to the doctor and patient chat. Only a chat
// failure is returned.
func (d *SideEffectDispatcher) AppointmentAccepted(ctx context.Context, a *entities.Appointment) error {
	if patientUser, ok := d.recipient(ctx, a, d.users.GetByPatientID, a.PatientID, "patient"); ok {
		msg := fmt.Sprintf("Your appointment with Dr. %s on %s has been accepted.", a.ConsultingDoctor, d.formatDate(a.AppointmentDate))
		d.notify(ctx, a, patientUser.ID, msg, entities.NotificationAppointmentAccepted, entities.LinkPatientAppointments)
	}

	d.queueAcceptedEmail(ctx, a)

	return d.postAcceptanceMessage(ctx, a)
}

// AppointmentRescheduled notifies the patient of the new slot
func (d *SideEffectDispatcher) AppointmentRescheduled(ctx context.Context, a *entities.Appointment) {
	patientUser, ok := d.recipient(ctx, a, d.users.GetByPatientID, a.PatientID, "patient")
	if !ok {
		return
	}
	msg := fmt.Sprintf("Your appointment with Dr. %s has been rescheduled to %s at %s.",
		a.ConsultingDoctor, d.formatDate(a.AppointmentDate), a.AppointmentTime)
	d.notify(ctx, a, patientUser.ID, msg, entities.NotificationAppointmentRescheduled, entities.LinkPatientAppointments)
}

func (d *SideEffectDispatcher) recipient(
	ctx context.Context,
	a *entities.Appointment,
	lookup func(context.Context, string) (*entities.User, error),
	profileID, role string,
) (*entities.User, bool) {
	user, err := lookup(ctx, profileID)
	if err == nil {
		return user, true
	}
	if apperrors.IsNotFound(err) {
		observability.LoggerFromContext(ctx).Info().
			Str("appointment_id", a.AppointmentID).
			Str("role", role).
			Str("profile_id", profileID).
			Msg("no account linked to profile; skipping notification")
		return nil, false
	}
	d.report(ctx, SideEffectNotification, err, a)
	return nil, false
}

func (d *SideEffectDispatcher) notify(ctx context.Context, a *entities.Appointment, userID, msg string, t entities.NotificationType, link string) {
	if _, err := d.notifications.Notify(ctx, userID, msg, t, link); err != nil {
		d.report(ctx, SideEffectNotification, err, a)
	}
}

func (d *SideEffectDispatcher) queueAcceptedEmail(ctx context.Context, a *entities.Appointment) {
	payload, err := json.Marshal(providers.AcceptedEmail{
		PatientEmail:    a.PatientEmail,
		PatientName:     a.PatientName,
		DoctorName:      a.ConsultingDoctor,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
	})
	if err != nil {
		d.report(ctx, SideEffectEmail, err, a)
		return
	}

	task := &providers.Task{
		Type:          providers.TaskSendAcceptedEmail,
		AppointmentID: a.AppointmentID,
		Payload:       payload,
	}
	if err := d.tasks.Enqueue(ctx, task); err != nil {
		d.report(ctx, SideEffectEmail, err, a)
	}
}

func (d *SideEffectDispatcher) postAcceptanceMessage(ctx context.Context, a *entities.Appointment) error {
	chat, created, err := d.chats.FindOrCreate(ctx, a.DoctorID, a.PatientID, entities.ChatSeed{
		DoctorName:    a.ConsultingDoctor,
		PatientName:   a.PatientName,
		Subject:       a.AppointmentReason,
		AppointmentID: a.ID,
	})
	if err != nil {
		return apperrors.NewInternalError("failed to open chat for accepted appointment", err)
	}

	var senderID string
	if doctorUser, err := d.users.GetByDoctorID(ctx, a.DoctorID); err == nil {
		senderID = doctorUser.ID
	}

	message := &entities.Message{
		ChatID:     chat.ID,
		SenderID:   senderID,
		SenderName: a.ConsultingDoctor,
		SenderRole: entities.ParticipantDoctor,
		Text: fmt.Sprintf("Your appointment on %s at %s has been accepted. You can communicate here.",
			d.formatDate(a.AppointmentDate), a.AppointmentTime),
		CreatedAt: time.Now(),
	}
	if err := d.chats.AppendMessage(ctx, message); err != nil {
		return apperrors.NewInternalError("failed to post acceptance message", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("chat_id", chat.ID).
		Bool("chat_created", created).
		Msg("acceptance message posted")
	return nil
}

func (d *SideEffectDispatcher) report(ctx context.Context, kind string, err error, a *entities.Appointment) {
	fields := map[string]string{"appointment_id": a.AppointmentID}
	if d.sink == nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("side_effect", kind).
			Str("appointment_id", a.AppointmentID).Msg("side effect failed")
		return
	}
	d.sink.ReportDegraded(ctx, kind, err, fields)
}

func (d *SideEffectDispatcher) formatDate(t time.Time) string {
	return t.In(d.location).Format(DisplayDateLayout)
}
