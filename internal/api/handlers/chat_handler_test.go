package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/api/handlers"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

func asCaller(req *http.Request, id middleware.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

func TestChatHandler_ParticipantFromIdentity(t *testing.T) {
	tests := []struct {
		name     string
		identity middleware.Identity
		want     services.Participant
	}{
		{
			name:     "doctor",
			identity: middleware.Identity{UserID: "u-d1", Name: "Jane Smith", Role: entities.UserRoleDoctor, DoctorID: "d1", PatientID: "ignored"},
			want:     services.Participant{UserID: "u-d1", Name: "Jane Smith", Role: entities.ParticipantDoctor, ProfileID: "d1"},
		},
		{
			name:     "patient",
			identity: middleware.Identity{UserID: "u-p1", Name: "Alice Doe", Role: entities.UserRolePatient, PatientID: "p1"},
			want:     services.Participant{UserID: "u-p1", Name: "Alice Doe", Role: entities.ParticipantPatient, ProfileID: "p1"},
		},
		{
			name:     "admin has no chat role",
			identity: middleware.Identity{UserID: "u-a", Role: entities.UserRoleAdmin},
			want:     services.Participant{UserID: "u-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockChatService)
			handler := handlers.NewChatHandler(mockService)
			mockService.On("Get", mock.Anything, "c1", tt.want).Return(&entities.ChatDetail{Chat: &entities.Chat{ID: "c1"}}, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/chats/c1", nil)
			req.SetPathValue("id", "c1")
			w := httptest.NewRecorder()

			handler.GetChat(w, asCaller(req, tt.identity))

			assert.Equal(t, http.StatusOK, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestChatHandler_RequiresIdentity(t *testing.T) {
	mockService := new(MockChatService)
	handler := handlers.NewChatHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/chats/c1", nil)
	req.SetPathValue("id", "c1")
	w := httptest.NewRecorder()

	handler.GetChat(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_PostMessage(t *testing.T) {
	doctor := middleware.Identity{UserID: "u-d1", Name: "Jane Smith", Role: entities.UserRoleDoctor, DoctorID: "d1"}

	t.Run("created", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := handlers.NewChatHandler(mockService)
		mockService.On("PostMessage", mock.Anything, "c1", mock.Anything, services.PostMessageCommand{Text: "See you then"}).
			Return(&entities.Message{ID: "m1", ChatID: "c1", Text: "See you then", SenderRole: entities.ParticipantDoctor}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/chats/c1/messages", bytes.NewBufferString(`{"text":"See you then"}`))
		req.SetPathValue("id", "c1")
		w := httptest.NewRecorder()

		handler.PostMessage(w, asCaller(req, doctor))

		assert.Equal(t, http.StatusCreated, w.Code)
		var got entities.Message
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "m1", got.ID)
	})

	t.Run("forbidden for non participant", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := handlers.NewChatHandler(mockService)
		mockService.On("PostMessage", mock.Anything, "c1", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewForbiddenError("not a participant of this chat"))

		req := httptest.NewRequest(http.MethodPost, "/api/chats/c1/messages", bytes.NewBufferString(`{"text":"hi"}`))
		req.SetPathValue("id", "c1")
		w := httptest.NewRecorder()

		handler.PostMessage(w, asCaller(req, doctor))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestChatHandler_ListAndMutations(t *testing.T) {
	patient := middleware.Identity{UserID: "u-p1", Role: entities.UserRolePatient, PatientID: "p1"}
	mockService := new(MockChatService)
	handler := handlers.NewChatHandler(mockService)
	mockService.On("ListForPatient", mock.Anything, "p1").Return([]*entities.ChatSummary{
		{Chat: &entities.Chat{ID: "c1"}, UnreadCount: 2},
	}, nil)
	mockService.On("MarkRead", mock.Anything, "c1", mock.Anything).Return(nil)
	mockService.On("Delete", mock.Anything, "c1", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chats/patient/p1", nil)
	req.SetPathValue("patientId", "p1")
	w := httptest.NewRecorder()
	handler.ListPatientChats(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":2`)

	req = httptest.NewRequest(http.MethodPatch, "/api/chats/c1/read", nil)
	req.SetPathValue("id", "c1")
	w = httptest.NewRecorder()
	handler.MarkRead(w, asCaller(req, patient))
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/chats/c1", nil)
	req.SetPathValue("id", "c1")
	w = httptest.NewRecorder()
	handler.DeleteChat(w, asCaller(req, patient))
	assert.Equal(t, http.StatusNoContent, w.Code)

	mockService.AssertExpectations(t)
}
