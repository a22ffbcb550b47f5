package services

import (
	"context"
	"strings"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// summaryConcurrency bounds the per-chat lookups of a chat list
const summaryConcurrency = 8

// Participant identifies the caller of a chat operation
type Participant struct {
	UserID    string
	Name      string
	Role      entities.ParticipantRole
	ProfileID string
}

// PostMessageCommand is a participant's new chat message
type PostMessageCommand struct {
	Text string `json:"text" validate:"required"`
}

// ChatService serves the doctor and patient conversation threads
type ChatService struct {
	chats repositories.ChatRepository
}

// NewChatService creates a new chat service
func NewChatService(chats repositories.ChatRepository) *ChatService {
	return &ChatService{chats: chats}
}

// ListForDoctor returns the doctor's chats with last message and unread count
func (s *ChatService) ListForDoctor(ctx context.Context, doctorID string) ([]*entities.ChatSummary, error) {
	chats, err := s.chats.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, chats, entities.ParticipantDoctor)
}

// ListForPatient returns the patient's chats with last message and unread count
func (s *ChatService) ListForPatient(ctx context.Context, patientID string) ([]*entities.ChatSummary, error) {
	chats, err := s.chats.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, chats, entities.ParticipantPatient)
}

func (s *ChatService) summarize(ctx context.Context, chats []*entities.Chat, role entities.ParticipantRole) ([]*entities.ChatSummary, error) {
	summaries := make([]*entities.ChatSummary, len(chats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, chat := range chats {
		g.Go(func() error {
			last, err := s.chats.LastMessage(gctx, chat.ID)
			if err != nil {
				return err
			}
			unread, err := s.chats.CountUnread(gctx, chat.ID, role, chat.LastReadBy(role))
			if err != nil {
				return err
			}
			summaries[i] = &entities.ChatSummary{Chat: chat, LastMessage: last, UnreadCount: unread}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Get returns a chat and its messages. Only its doctor or patient may read it.
func (s *ChatService) Get(ctx context.Context, chatID string, p Participant) (*entities.ChatDetail, error) {
	chat, err := s.authorize(ctx, chatID, p)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	return &entities.ChatDetail{Chat: chat, Messages: messages}, nil
}

// PostMessage appends a message from the participant
func (s *ChatService) PostMessage(ctx context.Context, chatID string, p Participant, cmd PostMessageCommand) (*entities.Message, error) {
	cmd.Text = strings.TrimSpace(cmd.Text)
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	chat, err := s.authorize(ctx, chatID, p)
	if err != nil {
		return nil, err
	}

	senderName := p.Name
	if senderName == "" {
		if p.Role == entities.ParticipantDoctor {
			senderName = chat.DoctorName
		} else {
			senderName = chat.PatientName
		}
	}

	message := &entities.Message{
		ChatID:     chat.ID,
		SenderID:   p.UserID,
		SenderName: senderName,
		SenderRole: p.Role,
		Text:       cmd.Text,
		CreatedAt:  time.Now(),
	}
	if err := s.chats.AppendMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkRead records that the participant has read the chat up to now
func (s *ChatService) MarkRead(ctx context.Context, chatID string, p Participant) error {
	if _, err := s.authorize(ctx, chatID, p); err != nil {
		return err
	}
	return s.chats.MarkRead(ctx, chatID, p.Role, time.Now())
}

// Delete removes a chat and its messages
func (s *ChatService) Delete(ctx context.Context, chatID string, p Participant) error {
	if _, err := s.authorize(ctx, chatID, p); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info().Str("chat_id", chatID).Msg("chat deleted")
	return nil
}

func (s *ChatService) authorize(ctx context.Context, chatID string, p Participant) (*entities.Chat, error) {
	if !p.Role.Valid() {
		return nil, apperrors.NewForbiddenError("only chat participants may access chats")
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	owner := chat.PatientID
	if p.Role == entities.ParticipantDoctor {
		owner = chat.DoctorID
	}
	if owner != p.ProfileID {
		return nil, apperrors.NewForbiddenError("not a participant of this chat")
	}
	return chat, nil
}
