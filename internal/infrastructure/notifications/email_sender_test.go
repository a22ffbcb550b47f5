package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEmail() providers.AcceptedEmail {
	return providers.AcceptedEmail{
		PatientEmail:    "asha@example.com",
		PatientName:     "Asha <Rao>",
		DoctorName:      "Mehta",
		AppointmentDate: time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC),
		AppointmentTime: "10:30 AM",
	}
}

func TestRenderAcceptedEmail(t *testing.T) {
	body, err := RenderAcceptedEmail(sampleEmail(), time.UTC)
	require.NoError(t, err)

	assert.Contains(t, body, "Dr. Mehta")
	assert.Contains(t, body, "Mar 9, 2026")
	assert.Contains(t, body, "10:30 AM")
	assert.Contains(t, body, "Asha &lt;Rao&gt;")
}

func TestNewSMTPEmailSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SMTPConfig
		wantErr bool
	}{
		{name: "configured", cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"}},
		{name: "missing host", cfg: config.SMTPConfig{Port: 587}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewSMTPEmailSender(&tt.cfg, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, sender)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, sender)
		})
	}
}

func TestLogEmailSender(t *testing.T) {
	sender := NewLogEmailSender(time.UTC)
	assert.NoError(t, sender.SendAcceptedEmail(context.Background(), sampleEmail()))
}
