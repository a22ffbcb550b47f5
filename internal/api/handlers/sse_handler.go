package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// heartbeatInterval keeps idle streams open through proxies
var heartbeatInterval = 30 * time.Second

// StreamNotifications handles GET /api/notifications/stream, pushing the
// caller's new notifications as Server-Sent Events
func (h *NotificationHandler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	logger := observability.ComponentLogger(ctx, "sse")
	notifications, err := h.service.Subscribe(ctx, id.UserID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", id.UserID).Msg("failed to subscribe to notifications")
		respondWithError(w, http.StatusServiceUnavailable, "live notifications unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent(w, "connected", map[string]interface{}{
		"userId":    id.UserID,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("user_id", id.UserID).Msg("client disconnected from notification stream")
			return
		case <-ticker.C:
			sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case notification, ok := <-notifications:
			if !ok {
				return
			}
			sendEvent(w, "notification", notification)
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
