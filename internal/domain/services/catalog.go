package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Catalog es el caso de uso sobre los servicios reservables.
// (El nombre Service ya lo ocupa la entidad.)
type Catalog struct {
	repo Repository
	now  func() time.Time
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Title           string
	Description     string
	Price           float64
	DurationMinutes int
}

func (c *Catalog) Create(ctx context.Context, in CreateInput) (Service, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Service{}, ErrInvalidInput
	}
	if in.Price < 0 || in.DurationMinutes < 0 {
		return Service{}, ErrInvalidInput
	}

	now := c.now()
	s := Service{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := c.repo.Create(ctx, s); err != nil {
		return Service{}, err
	}
	return s, nil
}

func (c *Catalog) GetByID(ctx context.Context, id string) (Service, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Service{}, ErrInvalidInput
	}
	s, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (c *Catalog) List(ctx context.Context, onlyActive bool) ([]Service, error) {
	return c.repo.List(ctx, onlyActive)
}

type UpdateInput struct {
	Title           *string
	Description     *string
	Price           *float64
	DurationMinutes *int
}

func (c *Catalog) Update(ctx context.Context, id string, in UpdateInput) (Service, error) {
	s, err := c.GetByID(ctx, id)
	if err != nil {
		return Service{}, err
	}

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return Service{}, ErrInvalidInput
		}
		s.Title = v
	}
	if in.Description != nil {
		s.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Service{}, ErrInvalidInput
		}
		s.Price = *in.Price
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes < 0 {
			return Service{}, ErrInvalidInput
		}
		s.DurationMinutes = *in.DurationMinutes
	}

	s.UpdatedAt = c.now()
	if err := c.repo.Update(ctx, s); err != nil {
		return Service{}, err
	}
	return s, nil
}

// Deactivate es el "borrado" del flujo normal: el servicio deja de ser reservable.
func (c *Catalog) Deactivate(ctx context.Context, id string) (Service, error) {
	s, err := c.GetByID(ctx, id)
	if err != nil {
		return Service{}, err
	}

	// Idempotente
	if !s.IsActive {
		return s, nil
	}

	s.IsActive = false
	s.UpdatedAt = c.now()
	if err := c.repo.Update(ctx, s); err != nil {
		return Service{}, err
	}
	return s, nil
}

// Delete borra físicamente (solo ruta admin).
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, err := c.GetByID(ctx, id); err != nil {
		return err
	}
	return c.repo.Delete(ctx, id)
}

// ServiceStatus expone existencia y actividad de un servicio. Lo consume el
// módulo de citas vía interface local, igual que pets.OwnerOf.
func (c *Catalog) ServiceStatus(ctx context.Context, id string) (exists, active bool, err error) {
	s, err := c.GetByID(ctx, id)
	if err != nil {
		// GetByID normaliza todo a ErrNotFound / ErrInvalidInput.
		return false, false, nil
	}
	return true, s.IsActive, nil
}
