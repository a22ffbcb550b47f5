package repositories

import (
	"context"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// ChatRepository defines the interface for chat threads and their messages
type ChatRepository interface {
	// FindOrCreate returns the chat for the (doctorID, patientID) pair,
	// creating it from seed if none exists. Concurrent callers observe the
	// same chat. created reports whether this call inserted it.
	FindOrCreate(ctx context.Context, doctorID, patientID string, seed entities.ChatSeed) (chat *entities.Chat, created bool, err error)

	GetByID(ctx context.Context, id string) (*entities.Chat, error)

	// ListByDoctor and ListByPatient order chats by LastMessageAt, newest first
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Chat, error)
	ListByPatient(ctx context.Context, patientID string) ([]*entities.Chat, error)

	// AppendMessage stores message and moves the chat's LastMessageAt to the
	// message's CreatedAt
	AppendMessage(ctx context.Context, message *entities.Message) error

	// ListMessages returns a chat's messages oldest first
	ListMessages(ctx context.Context, chatID string) ([]*entities.Message, error)

	// LastMessage returns the newest message or nil when there is none
	LastMessage(ctx context.Context, chatID string) (*entities.Message, error)

	// CountUnread counts messages not sent by role created strictly after since
	CountUnread(ctx context.Context, chatID string, role entities.ParticipantRole, since time.Time) (int, error)

	// MarkRead records that role read the chat at `at` and flags the other
	// role's unread messages as read
	MarkRead(ctx context.Context, chatID string, role entities.ParticipantRole, at time.Time) error

	// Delete removes a chat together with its messages
	Delete(ctx context.Context, id string) error
}
