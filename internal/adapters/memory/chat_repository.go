package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

type chatKey struct {
	doctorID  string
	patientID string
}

// ChatRepository keeps chats and messages in memory. One mutex guards both
// so the (doctor, patient) uniqueness check and insert are atomic.
type ChatRepository struct {
	mu       sync.RWMutex
	chats    map[string]entities.Chat
	byPair   map[chatKey]string
	messages map[string][]entities.Message
}

// NewChatRepository creates an empty repository
func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		chats:    make(map[string]entities.Chat),
		byPair:   make(map[chatKey]string),
		messages: make(map[string][]entities.Message),
	}
}

func (r *ChatRepository) FindOrCreate(ctx context.Context, doctorID, patientID string, seed entities.ChatSeed) (*entities.Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := chatKey{doctorID: doctorID, patientID: patientID}
	if id, ok := r.byPair[key]; ok {
		c := r.chats[id]
		return &c, false, nil
	}

	now := time.Now()
	c := entities.Chat{
		DoctorID:      doctorID,
		PatientID:     patientID,
		DoctorName:    seed.DoctorName,
		PatientName:   seed.PatientName,
		Subject:       seed.Subject,
		AppointmentID: seed.AppointmentID,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ensureID(&c.ID)
	r.chats[c.ID] = c
	r.byPair[key] = c.ID
	return &c, true, nil
}

func (r *ChatRepository) GetByID(ctx context.Context, id string) (*entities.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("chat not found")
	}
	return &c, nil
}

func (r *ChatRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Chat, error) {
	return r.list(func(c entities.Chat) bool { return c.DoctorID == doctorID }), nil
}

func (r *ChatRepository) ListByPatient(ctx context.Context, patientID string) ([]*entities.Chat, error) {
	return r.list(func(c entities.Chat) bool { return c.PatientID == patientID }), nil
}

func (r *ChatRepository) list(match func(entities.Chat) bool) []*entities.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Chat
	for _, c := range r.chats {
		if match(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out
}

func (r *ChatRepository) AppendMessage(ctx context.Context, message *entities.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[message.ChatID]
	if !ok {
		return apperrors.NewNotFoundError("chat not found")
	}
	ensureID(&message.ID)
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], *message)

	c.LastMessageAt = message.CreatedAt
	c.UpdatedAt = message.CreatedAt
	r.chats[c.ID] = c
	return nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.messages[chatID]
	out := make([]*entities.Message, 0, len(msgs))
	for i := range msgs {
		m := msgs[i]
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ChatRepository) LastMessage(ctx context.Context, chatID string) (*entities.Message, error) {
	msgs, err := r.ListMessages(ctx, chatID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

func (r *ChatRepository) CountUnread(ctx context.Context, chatID string, role entities.ParticipantRole, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, m := range r.messages[chatID] {
		if m.SenderRole != role && m.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, chatID string, role entities.ParticipantRole, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return apperrors.NewNotFoundError("chat not found")
	}
	readAt := at
	if role == entities.ParticipantDoctor {
		c.LastReadByDoctor = &readAt
	} else {
		c.LastReadByPatient = &readAt
	}
	c.UpdatedAt = at
	r.chats[chatID] = c

	msgs := r.messages[chatID]
	for i := range msgs {
		if msgs[i].SenderRole == role.Other() && !msgs[i].Read {
			msgs[i].Read = true
			msgs[i].ReadAt = &readAt
		}
	}
	return nil
}

func (r *ChatRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[id]
	delete(r.messages, id)
	if !ok {
		return apperrors.NewNotFoundError("chat not found")
	}
	delete(r.byPair, chatKey{doctorID: c.DoctorID, patientID: c.PatientID})
	delete(r.chats, id)
	return nil
}
