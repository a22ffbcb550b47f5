package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/postgres"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

var (
	chatColumns = columns(
		"id", "doctor_id", "patient_id", "doctor_name", "patient_name", "subject",
		"appointment_id", "last_message_at", "last_read_by_doctor", "last_read_by_patient",
		"created_at", "updated_at",
	)
	messageColumns = columns(
		"id", "chat_id", "sender_id", "sender_name", "sender_role", "text",
		"read", "read_at", "created_at",
	)
)

// ChatAdapter implements the ChatRepository interface. The pair uniqueness of
// chats is enforced by the uq_chats_doctor_patient constraint.
type ChatAdapter struct {
	adapter
}

// NewChatAdapter creates a new chat adapter
func NewChatAdapter(client *postgres.Client, metrics *observability.Metrics) *ChatAdapter {
	return &ChatAdapter{adapter: newAdapter(client, metrics)}
}

// FindOrCreate returns the chat of the doctor and patient pair, inserting it
// from seed when absent
func (a *ChatAdapter) FindOrCreate(ctx context.Context, doctorID, patientID string, seed entities.ChatSeed) (*entities.Chat, bool, error) {
	now := time.Now()
	chat := entities.Chat{
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
	ensureID(&chat.ID)

	query, args, err := a.db.Insert("chats").
		Rows(goqu.Record{
			"id":              chat.ID,
			"doctor_id":       chat.DoctorID,
			"patient_id":      chat.PatientID,
			"doctor_name":     chat.DoctorName,
			"patient_name":    chat.PatientName,
			"subject":         chat.Subject,
			"appointment_id":  chat.AppointmentID,
			"last_message_at": chat.LastMessageAt,
			"created_at":      chat.CreatedAt,
			"updated_at":      chat.UpdatedAt,
		}).
		OnConflict(goqu.DoNothing()).
		Returning(chatColumns...).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build insert query", err)
	}

	var created entities.Chat
	err = a.get(ctx, "chats.create", &created, query, args...)
	if err == nil {
		return &created, true, nil
	}
	if !isNoRows(err) {
		return nil, false, apperrors.NewInternalError("failed to create chat", err)
	}

	// Another writer holds the pair; read its row.
	query, args, err = a.db.Select(chatColumns...).
		From("chats").
		Where(goqu.Ex{"doctor_id": doctorID, "patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build query", err)
	}

	var existing entities.Chat
	if err := a.get(ctx, "chats.get_by_pair", &existing, query, args...); err != nil {
		return nil, false, apperrors.NewInternalError("failed to get chat", err)
	}
	return &existing, false, nil
}

// GetByID retrieves a chat by ID
func (a *ChatAdapter) GetByID(ctx context.Context, id string) (*entities.Chat, error) {
	query, args, err := a.db.Select(chatColumns...).
		From("chats").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var chat entities.Chat
	if err := a.get(ctx, "chats.get", &chat, query, args...); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get chat", err)
	}
	return &chat, nil
}

// ListByDoctor lists a doctor's chats, most recently active first
func (a *ChatAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Chat, error) {
	return a.list(ctx, goqu.Ex{"doctor_id": doctorID})
}

// ListByPatient lists a patient's chats, most recently active first
func (a *ChatAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.Chat, error) {
	return a.list(ctx, goqu.Ex{"patient_id": patientID})
}

func (a *ChatAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Chat, error) {
	query, args, err := a.db.Select(chatColumns...).
		From("chats").
		Where(where).
		Order(goqu.C("last_message_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	chats := []*entities.Chat{}
	if err := a.selectAll(ctx, "chats.list", &chats, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list chats", err)
	}
	return chats, nil
}

// AppendMessage stores a message and bumps the chat's activity time in one transaction
func (a *ChatAdapter) AppendMessage(ctx context.Context, message *entities.Message) error {
	ensureID(&message.ID)
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	bump, _, err := a.db.Update("chats").
		Set(goqu.Record{"last_message_at": message.CreatedAt, "updated_at": message.CreatedAt}).
		Where(goqu.Ex{"id": message.ChatID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	insert, _, err := a.db.Insert("messages").Rows(goqu.Record{
		"id":          message.ID,
		"chat_id":     message.ChatID,
		"sender_id":   message.SenderID,
		"sender_name": message.SenderName,
		"sender_role": string(message.SenderRole),
		"text":        message.Text,
		"read":        message.Read,
		"read_at":     message.ReadAt,
		"created_at":  message.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.inTx(ctx, "chats.append_message", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, bump)
		if err != nil {
			return apperrors.NewInternalError("failed to update chat", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", message.ChatID))
		}
		if _, err := tx.ExecContext(ctx, insert); err != nil {
			return apperrors.NewInternalError("failed to create message", err)
		}
		return nil
	})
}

// ListMessages lists a chat's messages oldest first
func (a *ChatAdapter) ListMessages(ctx context.Context, chatID string) ([]*entities.Message, error) {
	query, args, err := a.db.Select(messageColumns...).
		From("messages").
		Where(goqu.Ex{"chat_id": chatID}).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	messages := []*entities.Message{}
	if err := a.selectAll(ctx, "messages.list", &messages, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list messages", err)
	}
	return messages, nil
}

// LastMessage returns the newest message of a chat, or nil
func (a *ChatAdapter) LastMessage(ctx context.Context, chatID string) (*entities.Message, error) {
	query, args, err := a.db.Select(messageColumns...).
		From("messages").
		Where(goqu.Ex{"chat_id": chatID}).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var message entities.Message
	if err := a.get(ctx, "messages.last", &message, query, args...); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("failed to get last message", err)
	}
	return &message, nil
}

// CountUnread counts the other role's messages created after since
func (a *ChatAdapter) CountUnread(ctx context.Context, chatID string, role entities.ParticipantRole, since time.Time) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("messages").
		Where(
			goqu.C("chat_id").Eq(chatID),
			goqu.C("sender_role").Eq(string(role.Other())),
			goqu.C("created_at").Gt(since),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := a.get(ctx, "messages.count_unread", &n, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to count unread messages", err)
	}
	return n, nil
}

// MarkRead stores role's read time and flags the other role's messages read
func (a *ChatAdapter) MarkRead(ctx context.Context, chatID string, role entities.ParticipantRole, at time.Time) error {
	column := "last_read_by_patient"
	if role == entities.ParticipantDoctor {
		column = "last_read_by_doctor"
	}

	stampRead, _, err := a.db.Update("chats").
		Set(goqu.Record{column: at, "updated_at": at}).
		Where(goqu.Ex{"id": chatID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	flagMessages, _, err := a.db.Update("messages").
		Set(goqu.Record{"read": true, "read_at": at}).
		Where(goqu.Ex{
			"chat_id":     chatID,
			"sender_role": string(role.Other()),
			"read":        false,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return a.inTx(ctx, "chats.mark_read", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, stampRead)
		if err != nil {
			return apperrors.NewInternalError("failed to update chat", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", chatID))
		}
		if _, err := tx.ExecContext(ctx, flagMessages); err != nil {
			return apperrors.NewInternalError("failed to mark messages read", err)
		}
		return nil
	})
}

// Delete removes a chat and its messages
func (a *ChatAdapter) Delete(ctx context.Context, id string) error {
	deleteMessages, _, err := a.db.Delete("messages").Where(goqu.Ex{"chat_id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	deleteChat, _, err := a.db.Delete("chats").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return a.inTx(ctx, "chats.delete", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteMessages); err != nil {
			return apperrors.NewInternalError("failed to delete messages", err)
		}
		result, err := tx.ExecContext(ctx, deleteChat)
		if err != nil {
			return apperrors.NewInternalError("failed to delete chat", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", id))
		}
		return nil
	})
}
