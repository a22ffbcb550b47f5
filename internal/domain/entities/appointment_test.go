package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusAccepted, true},
		{AppointmentStatusAccepted, AppointmentStatusAccepted, false},
		{AppointmentStatusCompleted, AppointmentStatusAccepted, false},
		{AppointmentStatusAccepted, AppointmentStatusCompleted, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, false},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusAccepted, AppointmentStatusCancelled, true},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestAppointmentStatus_IsTerminal(t *testing.T) {
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.False(t, AppointmentStatusScheduled.IsTerminal())
	assert.False(t, AppointmentStatusAccepted.IsTerminal())
	assert.False(t, AppointmentStatus("Pending").Valid())
}
