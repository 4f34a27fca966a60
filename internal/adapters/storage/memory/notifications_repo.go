package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vetclinic-api/internal/domain/notifications"
)

type notificationRepo struct {
	mu   sync.RWMutex
	byID map[string]notifications.Notification
}

func NewNotificationRepo() notifications.Repository {
	return &notificationRepo{
		byID: make(map[string]notifications.Notification),
	}
}

func (r *notificationRepo) Create(ctx context.Context, n notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.ID) == "" {
		return errors.New("notification id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("notification already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return notifications.Notification{}, ErrNotFound
	}
	return n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string) ([]notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notifications.Notification, 0)
	for _, n := range r.byID {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	// Más reciente primero.
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}

func (r *notificationRepo) ExistsRecent(ctx context.Context, userID, petID, notifType string, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.byID {
		if n.UserID == userID && n.PetID == petID && n.Type == notifType && !n.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepo) ExistsExact(ctx context.Context, userID, petID, notifType, message string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.byID {
		if n.UserID == userID && n.PetID == petID && n.Type == notifType && n.Message == message {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, read bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = read
	r.byID[id] = n
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.byID {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.byID[id] = n
		}
	}
	return nil
}

func (r *notificationRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.byID {
		if n.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}
