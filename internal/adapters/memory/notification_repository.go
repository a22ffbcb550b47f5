package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// NotificationRepository keeps notifications in memory
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]entities.Notification
}

// NewNotificationRepository creates an empty repository
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[string]entities.Notification)}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&notification.ID)
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return nil, apperrors.NewNotFoundError("notification not found")
	}
	n.Read = true
	r.notifications[id] = n
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for id, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (r *NotificationRepository) DeleteRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, n := range r.notifications {
		if n.UserID == userID && n.Read {
			delete(r.notifications, id)
			removed++
		}
	}
	return removed, nil
}

// RatingRepository keeps ratings in memory
type RatingRepository struct {
	mu      sync.RWMutex
	ratings []entities.Rating
}

// NewRatingRepository creates an empty repository
func NewRatingRepository() *RatingRepository {
	return &RatingRepository{}
}

func (r *RatingRepository) Create(ctx context.Context, rating *entities.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&rating.ID)
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *RatingRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Rating
	for _, rt := range r.ratings {
		if rt.DoctorID == doctorID {
			rt := rt
			out = append(out, &rt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
