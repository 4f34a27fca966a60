package medicalrecords

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
	ErrForbidden    = errors.New("forbidden")
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo      Repository
	petOwners PetOwnerLookup
	now       func() time.Time
}

func NewService(repo Repository, petOwners PetOwnerLookup) *Service {
	return &Service{
		repo:      repo,
		petOwners: petOwners,
		now:       time.Now,
	}
}

type CreateInput struct {
	PetID         string
	ProcedureType string
	Description   string
	Date          time.Time
}

func (s *Service) Create(ctx context.Context, vetUserID string, in CreateInput) (MedicalRecord, error) {
	vetUserID = strings.TrimSpace(vetUserID)
	petID := strings.TrimSpace(in.PetID)
	proc := strings.TrimSpace(in.ProcedureType)

	if vetUserID == "" || petID == "" || proc == "" {
		return MedicalRecord{}, ErrInvalidInput
	}
	if in.Date.IsZero() {
		return MedicalRecord{}, ErrInvalidInput
	}

	// La mascota debe existir; al dueño no se le exige nada aquí,
	// el registro lo crea el veterinario.
	if _, err := s.petOwners.OwnerOf(ctx, petID); err != nil {
		return MedicalRecord{}, ErrNotFound
	}

	now := s.now()
	rec := MedicalRecord{
		ID:            uuid.NewString(),
		PetID:         petID,
		VetUserID:     vetUserID,
		ProcedureType: proc,
		Description:   strings.TrimSpace(in.Description),
		Date:          in.Date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (MedicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MedicalRecord{}, ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return MedicalRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]MedicalRecord, error) {
	return s.repo.ListByPet(ctx, petID)
}

type UpdateInput struct {
	ProcedureType *string
	Description   *string
	Date          *time.Time
}

// Update solo lo puede hacer el veterinario autor.
func (s *Service) Update(ctx context.Context, id, vetUserID string, in UpdateInput) (MedicalRecord, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return MedicalRecord{}, err
	}
	if rec.VetUserID != strings.TrimSpace(vetUserID) {
		return MedicalRecord{}, ErrForbidden
	}

	if in.ProcedureType != nil {
		v := strings.TrimSpace(*in.ProcedureType)
		if v == "" {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.ProcedureType = v
	}
	if in.Description != nil {
		rec.Description = strings.TrimSpace(*in.Description)
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.Date = *in.Date
	}

	rec.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

// Delete: veterinario autor o admin (el handler decide si admin).
func (s *Service) Delete(ctx context.Context, id, callerUserID string, isAdmin bool) error {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && rec.VetUserID != strings.TrimSpace(callerUserID) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// ListStale expone registros viejos de un procedimiento para el motor
// de notificaciones (interface local allá).
func (s *Service) ListStale(ctx context.Context, procedureType string, cutoff time.Time) ([]MedicalRecord, error) {
	return s.repo.ListByProcedureBefore(ctx, procedureType, cutoff)
}

// PurgeByPet implementa pets.DependentsPurger para el borrado en cascada.
func (s *Service) PurgeByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}
