package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
	"github.com/pavi2003-eng/healthcare-backend/pkg/retry"
	"gopkg.in/gomail.v2"
)

// AcceptedSubject is the subject line of the appointment accepted email
const AcceptedSubject = "Your Appointment Has Been Accepted"

// DisplayDateLayout formats appointment dates in user facing text
const DisplayDateLayout = "Jan 2, 2006"

var acceptedTemplate = template.Must(template.New("accepted").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2 style="color: #2c3e50;">Appointment Accepted</h2>
  <p>Dear <strong>{{.PatientName}}</strong>,</p>
  <p>Your appointment with <strong>Dr. {{.DoctorName}}</strong> has been successfully accepted.</p>
  <table style="border-collapse: collapse; margin-top: 15px;">
    <tr>
      <td style="padding: 8px; font-weight: bold;">Date:</td>
      <td style="padding: 8px;">{{.Date}}</td>
    </tr>
    <tr>
      <td style="padding: 8px; font-weight: bold;">Time:</td>
      <td style="padding: 8px;">{{.Time}}</td>
    </tr>
  </table>
  <p style="margin-top: 20px;">Please log in to the patient portal for more details.</p>
  <p>Thank you,<br/>Healthcare Team</p>
</div>`))

// RenderAcceptedEmail renders the HTML body of an accepted email
func RenderAcceptedEmail(email providers.AcceptedEmail, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	var buf bytes.Buffer
	err := acceptedTemplate.Execute(&buf, struct {
		PatientName string
		DoctorName  string
		Date        string
		Time        string
	}{
		PatientName: email.PatientName,
		DoctorName:  email.DoctorName,
		Date:        email.AppointmentDate.In(loc).Format(DisplayDateLayout),
		Time:        email.AppointmentTime,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render accepted email: %w", err)
	}
	return buf.String(), nil
}

// SMTPEmailSender sends email through an SMTP relay
type SMTPEmailSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	location *time.Location
	retryCfg retry.Config
}

// NewSMTPEmailSender creates a new SMTP sender
func NewSMTPEmailSender(cfg *config.SMTPConfig, loc *time.Location) (*SMTPEmailSender, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("SMTP_HOST must be set")
	}
	return &SMTPEmailSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
		location: loc,
		retryCfg: retry.DeliveryConfig(),
	}, nil
}

// SendAcceptedEmail sends the appointment accepted email to the patient
func (s *SMTPEmailSender) SendAcceptedEmail(ctx context.Context, email providers.AcceptedEmail) error {
	body, err := RenderAcceptedEmail(email, s.location)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", email.PatientEmail)
	m.SetHeader("Subject", AcceptedSubject)
	m.SetBody("text/html", body)

	logger := observability.ComponentLogger(ctx, "smtp")
	return retry.DoWithLog(ctx, s.retryCfg, "SMTP",
		func() error { return s.dialer.DialAndSend(m) },
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("email delivery attempt failed")
		},
	)
}

// LogEmailSender only logs outgoing email. It is used when no SMTP relay is
// configured.
type LogEmailSender struct {
	location *time.Location
}

// NewLogEmailSender creates a new logging sender
func NewLogEmailSender(loc *time.Location) *LogEmailSender {
	return &LogEmailSender{location: loc}
}

// SendAcceptedEmail renders the email and logs it instead of sending
func (s *LogEmailSender) SendAcceptedEmail(ctx context.Context, email providers.AcceptedEmail) error {
	if _, err := RenderAcceptedEmail(email, s.location); err != nil {
		return err
	}
	observability.ComponentLogger(ctx, "email").Info().
		Str("to", email.PatientEmail).
		Str("subject", AcceptedSubject).
		Msg("SMTP not configured; email logged instead of sent")
	return nil
}
