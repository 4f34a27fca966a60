package notifications

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n Notification) error

	GetByID(ctx context.Context, id string) (Notification, error)
	ListByUser(ctx context.Context, userID string) ([]Notification, error)

	// ExistsRecent informa si ya hay una notificación del mismo tipo para
	// el mismo usuario+mascota con SentAt >= since (dedup por recencia).
	ExistsRecent(ctx context.Context, userID, petID, notifType string, since time.Time) (bool, error)

	// ExistsExact informa si ya hay una notificación con exactamente el
	// mismo usuario+mascota+tipo+mensaje (dedup por contenido).
	ExistsExact(ctx context.Context, userID, petID, notifType, message string) (bool, error)

	MarkRead(ctx context.Context, id string, read bool) error
	MarkAllRead(ctx context.Context, userID string) error

	DeleteByPet(ctx context.Context, petID string) error
}
