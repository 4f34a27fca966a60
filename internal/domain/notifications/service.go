package notifications

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Service cubre las operaciones de lectura/marcado de los usuarios.
// La escritura es exclusiva del Engine.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead marca una notificación como leída. Solo el dueño puede hacerlo;
// para notificaciones ajenas se responde como si no existieran.
func (s *Service) MarkRead(ctx context.Context, id, callerUserID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if n.UserID != callerUserID {
		return ErrNotFound
	}

	return s.repo.MarkRead(ctx, id, true)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// PurgeByPet implementa pets.DependentsPurger para el borrado en cascada.
func (s *Service) PurgeByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}
