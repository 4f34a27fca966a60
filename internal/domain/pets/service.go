package pets

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

// DependentsPurger borra los registros dependientes de una mascota
// (citas, historial médico, notificaciones). Se declara aquí para no
// importar esos módulos desde pets (rompe ciclos).
type DependentsPurger interface {
	PurgeByPet(ctx context.Context, petID string) error
}

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
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	WeightKg  float64
	Color     string
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}

	species := Species(strings.TrimSpace(in.Species))
	switch species {
	case SpeciesDog, SpeciesCat, SpeciesOther:
	case "":
		species = SpeciesOther
	default:
		return Pet{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	switch sex {
	case SexMale, SexFemale, SexUnknown:
	case "":
		sex = SexUnknown
	default:
		return Pet{}, ErrInvalidInput
	}

	if in.WeightKg < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   in.BirthDate,
		WeightKg:    in.WeightKg,
		Color:       strings.TrimSpace(in.Color),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) List(ctx context.Context) ([]Pet, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Name      *string
	Breed     *string
	Sex       *string
	BirthDate *time.Time
	WeightKg  *float64
	Color     *string
	Notes     *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, ErrNotFound
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = v
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex := Sex(strings.TrimSpace(*in.Sex))
		switch sex {
		case SexMale, SexFemale, SexUnknown:
			p.Sex = sex
		default:
			return Pet{}, ErrInvalidInput
		}
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightKg = *in.WeightKg
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Delete borra la mascota y, antes, sus dependientes (citas, historial,
// notificaciones) vía los purgers que le pasen. Solo la ruta admin llega aquí.
func (s *Service) Delete(ctx context.Context, id string, purgers ...DependentsPurger) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}

	// Dependientes primero, la mascota al final.
	for _, pg := range purgers {
		if pg == nil {
			continue
		}
		if err := pg.PurgeByPet(ctx, id); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, id)
}
