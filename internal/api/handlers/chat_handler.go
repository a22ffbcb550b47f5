package handlers

import (
	"context"
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// ChatService defines the interface for chat operations
type ChatService interface {
	ListForDoctor(ctx context.Context, doctorID string) ([]*entities.ChatSummary, error)
	ListForPatient(ctx context.Context, patientID string) ([]*entities.ChatSummary, error)
	Get(ctx context.Context, chatID string, p services.Participant) (*entities.ChatDetail, error)
	PostMessage(ctx context.Context, chatID string, p services.Participant, cmd services.PostMessageCommand) (*entities.Message, error)
	MarkRead(ctx context.Context, chatID string, p services.Participant) error
	Delete(ctx context.Context, chatID string, p services.Participant) error
}

// ChatHandler handles chat requests
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// participant maps the caller to their side of a chat
func participant(id middleware.Identity) services.Participant {
	p := services.Participant{UserID: id.UserID, Name: id.Name}
	switch id.Role {
	case entities.UserRoleDoctor:
		p.Role = entities.ParticipantDoctor
		p.ProfileID = id.DoctorID
	case entities.UserRolePatient:
		p.Role = entities.ParticipantPatient
		p.ProfileID = id.PatientID
	}
	return p
}

// ListDoctorChats handles GET /api/chats/doctor/{doctorId}
func (h *ChatHandler) ListDoctorChats(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func(ctx context.Context) ([]*entities.ChatSummary, error) {
		return h.service.ListForDoctor(ctx, r.PathValue("doctorId"))
	})
}

// ListPatientChats handles GET /api/chats/patient/{patientId}
func (h *ChatHandler) ListPatientChats(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func(ctx context.Context) ([]*entities.ChatSummary, error) {
		return h.service.ListForPatient(ctx, r.PathValue("patientId"))
	})
}

func (h *ChatHandler) respondList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*entities.ChatSummary, error)) {
	chats, err := list(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if chats == nil {
		chats = []*entities.ChatSummary{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"chats": chats,
		"count": len(chats),
	})
}

// GetChat handles GET /api/chats/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	chat, err := h.service.Get(r.Context(), r.PathValue("id"), participant(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chat)
}

// PostMessage handles POST /api/chats/{id}/messages
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var cmd services.PostMessageCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	message, err := h.service.PostMessage(r.Context(), r.PathValue("id"), participant(id), cmd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, message)
}

// MarkRead handles PATCH /api/chats/{id}/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkRead(r.Context(), r.PathValue("id"), participant(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChat handles DELETE /api/chats/{id}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), r.PathValue("id"), participant(id)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
