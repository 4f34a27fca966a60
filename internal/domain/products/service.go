package products

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

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, ErrInvalidInput
	}
	if in.Price < 0 || in.Stock < 0 {
		return Product{}, ErrInvalidInput
	}

	now := s.now()
	p := Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Product{}, ErrInvalidInput
		}
		p.Name = v
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Product{}, ErrInvalidInput
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return Product{}, ErrInvalidInput
		}
		p.Stock = *in.Stock
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
