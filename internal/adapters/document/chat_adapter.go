package document

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	mongoclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/mongo"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatAdapter implements the ChatRepository interface over the chats and
// messages collections
type ChatAdapter struct {
	adapter
	messages adapter
}

// NewChatAdapter creates a new chat adapter
func NewChatAdapter(client *mongoclient.Client, metrics *observability.Metrics) *ChatAdapter {
	return &ChatAdapter{
		adapter:  newAdapter(client, mongoclient.CollectionChats, metrics),
		messages: newAdapter(client, mongoclient.CollectionMessages, metrics),
	}
}

// FindOrCreate inserts the chat of the pair, falling back to the stored one
// when the unique pair index rejects the insert
func (a *ChatAdapter) FindOrCreate(ctx context.Context, doctorID, patientID string, seed entities.ChatSeed) (*entities.Chat, bool, error) {
	now := time.Now()
	chat := &entities.Chat{
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

	start := time.Now()
	_, err := a.coll.InsertOne(ctx, chat)
	a.observe(ctx, "create", start)
	if err == nil {
		return chat, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, apperrors.NewInternalError("failed to create chat", err)
	}

	var existing entities.Chat
	if err := a.findOne(ctx, "get_by_pair", bson.M{"doctorId": doctorID, "patientId": patientID}, &existing); err != nil {
		return nil, false, apperrors.NewInternalError("failed to get chat", err)
	}
	return &existing, false, nil
}

func (a *ChatAdapter) GetByID(ctx context.Context, id string) (*entities.Chat, error) {
	var chat entities.Chat
	if err := a.findOne(ctx, "get", bson.M{"_id": id}, &chat); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", id))
		}
		return nil, apperrors.NewInternalError("failed to get chat", err)
	}
	return &chat, nil
}

func (a *ChatAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Chat, error) {
	return a.list(ctx, bson.M{"doctorId": doctorID})
}

func (a *ChatAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.Chat, error) {
	return a.list(ctx, bson.M{"patientId": patientID})
}

func (a *ChatAdapter) list(ctx context.Context, filter bson.M) ([]*entities.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}})

	chats := []*entities.Chat{}
	if err := a.findAll(ctx, "list", filter, &chats, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list chats", err)
	}
	return chats, nil
}

// AppendMessage inserts the message after bumping the chat's activity time
func (a *ChatAdapter) AppendMessage(ctx context.Context, message *entities.Message) error {
	ensureID(&message.ID)
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	start := time.Now()
	result, err := a.coll.UpdateOne(ctx, bson.M{"_id": message.ChatID}, bson.M{"$max": bson.M{
		"lastMessageAt": message.CreatedAt,
		"updatedAt":     message.CreatedAt,
	}})
	a.observe(ctx, "bump", start)
	if err != nil {
		return apperrors.NewInternalError("failed to update chat", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", message.ChatID))
	}

	defer a.messages.observe(ctx, "create", time.Now())
	if _, err := a.messages.coll.InsertOne(ctx, message); err != nil {
		return apperrors.NewInternalError("failed to create message", err)
	}
	return nil
}

func (a *ChatAdapter) ListMessages(ctx context.Context, chatID string) ([]*entities.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	messages := []*entities.Message{}
	if err := a.messages.findAll(ctx, "list", bson.M{"chatId": chatID}, &messages, opts); err != nil {
		return nil, apperrors.NewInternalError("failed to list messages", err)
	}
	return messages, nil
}

func (a *ChatAdapter) LastMessage(ctx context.Context, chatID string) (*entities.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	var message entities.Message
	if err := a.messages.findOne(ctx, "last", bson.M{"chatId": chatID}, &message, opts); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("failed to get last message", err)
	}
	return &message, nil
}

func (a *ChatAdapter) CountUnread(ctx context.Context, chatID string, role entities.ParticipantRole, since time.Time) (int, error) {
	defer a.messages.observe(ctx, "count_unread", time.Now())

	n, err := a.messages.coll.CountDocuments(ctx, bson.M{
		"chatId":     chatID,
		"senderRole": role.Other(),
		"createdAt":  bson.M{"$gt": since},
	})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count unread messages", err)
	}
	return int(n), nil
}

func (a *ChatAdapter) MarkRead(ctx context.Context, chatID string, role entities.ParticipantRole, at time.Time) error {
	field := "lastReadByPatient"
	if role == entities.ParticipantDoctor {
		field = "lastReadByDoctor"
	}

	start := time.Now()
	result, err := a.coll.UpdateOne(ctx, bson.M{"_id": chatID}, bson.M{"$set": bson.M{field: at, "updatedAt": at}})
	a.observe(ctx, "mark_read", start)
	if err != nil {
		return apperrors.NewInternalError("failed to update chat", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", chatID))
	}

	defer a.messages.observe(ctx, "mark_read", time.Now())
	_, err = a.messages.coll.UpdateMany(ctx,
		bson.M{"chatId": chatID, "senderRole": role.Other(), "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
	)
	if err != nil {
		return apperrors.NewInternalError("failed to mark messages read", err)
	}
	return nil
}

// Delete removes a chat and its messages
func (a *ChatAdapter) Delete(ctx context.Context, id string) error {
	start := time.Now()
	result, err := a.coll.DeleteOne(ctx, bson.M{"_id": id})
	a.observe(ctx, "delete", start)
	if err != nil {
		return apperrors.NewInternalError("failed to delete chat", err)
	}

	defer a.messages.observe(ctx, "delete", time.Now())
	if _, err := a.messages.coll.DeleteMany(ctx, bson.M{"chatId": id}); err != nil {
		return apperrors.NewInternalError("failed to delete messages", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("chat with id %s not found", id))
	}
	return nil
}
