package handlers

import (
	"context"
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
)

// NotificationService defines the interface for the notification inbox
type NotificationService interface {
	List(ctx context.Context, userID string) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	ClearRead(ctx context.Context, userID string) (int, error)
	Subscribe(ctx context.Context, userID string) (<-chan *entities.Notification, error)
}

// NotificationHandler handles the caller's notification inbox
type NotificationHandler struct {
	service NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotifications handles GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	notifications, err := h.service.List(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []*entities.Notification{}
	}
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	notification, err := h.service.MarkRead(r.Context(), r.PathValue("id"), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, notification)
}

// MarkAllRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	n, err := h.service.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// ClearRead handles DELETE /api/notifications/read
func (h *NotificationHandler) ClearRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	n, err := h.service.ClearRead(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
