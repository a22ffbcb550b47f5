package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_FindOrCreateConcurrent(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	created := make([]bool, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat, c, err := repo.FindOrCreate(ctx, "d1", "p1", entities.ChatSeed{Subject: "Checkup"})
			if !assert.NoError(t, err) {
				return
			}
			ids[i] = chat.ID
			created[i] = c
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := range ids {
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	chats, err := repo.ListByDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestChatRepository_MarkReadAndUnread(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()
	chat, _, err := repo.FindOrCreate(ctx, "d1", "p1", entities.ChatSeed{})
	require.NoError(t, err)

	base := time.Now()
	require.NoError(t, repo.AppendMessage(ctx, &entities.Message{ChatID: chat.ID, SenderRole: entities.ParticipantDoctor, Text: "hello", CreatedAt: base}))
	require.NoError(t, repo.AppendMessage(ctx, &entities.Message{ChatID: chat.ID, SenderRole: entities.ParticipantPatient, Text: "hi", CreatedAt: base.Add(time.Second)}))

	unread, err := repo.CountUnread(ctx, chat.ID, entities.ParticipantPatient, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, repo.MarkRead(ctx, chat.ID, entities.ParticipantPatient, base.Add(2*time.Second)))

	updated, err := repo.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastReadByPatient)
	assert.Nil(t, updated.LastReadByDoctor)
	assert.Equal(t, base.Add(time.Second), updated.LastMessageAt)

	msgs, err := repo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Read, "doctor message read by patient")
	assert.False(t, msgs[1].Read)

	unread, err = repo.CountUnread(ctx, chat.ID, entities.ParticipantPatient, updated.LastReadBy(entities.ParticipantPatient))
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, repo.Delete(ctx, chat.ID))
	msgs, err = repo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, chat.ID)))
}

func TestAppointmentRepository_Transitions(t *testing.T) {
	repo := NewAppointmentRepository()
	ctx := context.Background()
	appt := &entities.Appointment{AppointmentID: "APT-1", Status: entities.AppointmentStatusScheduled}
	require.NoError(t, repo.Create(ctx, appt))

	dup := &entities.Appointment{AppointmentID: "APT-1"}
	assert.True(t, apperrors.IsConflict(repo.Create(ctx, dup)))

	_, err := repo.Reschedule(ctx, appt.ID, time.Now(), "09:00")
	assert.True(t, apperrors.IsInvalidState(err))

	updated, err := repo.TransitionStatus(ctx, appt.ID,
		entities.TransitionSources(entities.AppointmentStatusAccepted), entities.AppointmentStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusAccepted, updated.Status)

	_, err = repo.TransitionStatus(ctx, appt.ID,
		entities.TransitionSources(entities.AppointmentStatusAccepted), entities.AppointmentStatusAccepted)
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = repo.TransitionStatus(ctx, "missing",
		entities.TransitionSources(entities.AppointmentStatusAccepted), entities.AppointmentStatusAccepted)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppointmentRepository_ListFilter(t *testing.T) {
	repo := NewAppointmentRepository()
	ctx := context.Background()
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, doctor := range []string{"d1", "d2", "d1"} {
		require.NoError(t, repo.Create(ctx, &entities.Appointment{
			AppointmentID:   "APT-" + string(rune('a'+i)),
			DoctorID:        doctor,
			AppointmentDate: day.AddDate(0, 0, i),
		}))
	}

	to := day.AddDate(0, 0, 1)
	got, err := repo.List(ctx, repositories.AppointmentFilter{DoctorID: "d1", To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "APT-a", got[0].AppointmentID)

	all, err := repo.List(ctx, repositories.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].AppointmentDate.Before(all[2].AppointmentDate))
}

func TestNotificationRepository_Ownership(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()
	n := &entities.Notification{UserID: "u1", Message: "hello"}
	require.NoError(t, repo.Create(ctx, n))

	_, err := repo.MarkRead(ctx, n.ID, "u2")
	assert.True(t, apperrors.IsNotFound(err))

	changed, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	removed, err := repo.DeleteRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
