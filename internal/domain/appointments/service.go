package appointments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrPetNotFound      = errors.New("pet not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrServiceInactive  = errors.New("service inactive")
	ErrPastDate         = errors.New("date in the past")
	ErrNotOnTheHour     = errors.New("minutes must be zero")
	ErrSlotTaken        = errors.New("slot already taken")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
	ErrAlreadyCompleted = errors.New("appointment already completed")
	ErrInvalidStatus    = errors.New("invalid status transition")
)

// Horario de atención: citas de 08:00 a 16:00 inclusive (la última termina 17:00).
const (
	OpeningHour = 8
	ClosingHour = 17
)

// MinDaysBeforeCancel: la cancelación exige estrictamente más de 2 días
// (ceil de la diferencia en días) de anticipación.
const MinDaysBeforeCancel = 2

// OutOfHoursError rechaza horas fuera de [8, 17), devolviendo la hora
// recibida para facilitar el debugging del cliente.
type OutOfHoursError struct {
	Hour int
}

func (e *OutOfHoursError) Error() string {
	return fmt.Sprintf("hour %d outside business hours [%d, %d)", e.Hour, OpeningHour, ClosingHour)
}

// CancellationWindowError rechaza la cancelación dentro de la ventana,
// llevando los días restantes para el cuerpo de la respuesta.
type CancellationWindowError struct {
	DaysUntil int
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf("cancellation window closed: %d day(s) until appointment", e.DaysUntil)
}

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// ServiceCatalog evita importar el paquete services.
type ServiceCatalog interface {
	ServiceStatus(ctx context.Context, serviceID string) (exists, active bool, err error)
}

type Service struct {
	repo      Repository
	petOwners PetOwnerLookup
	catalog   ServiceCatalog
	now       func() time.Time
}

func NewService(repo Repository, petOwners PetOwnerLookup, catalog ServiceCatalog) *Service {
	return &Service{
		repo:      repo,
		petOwners: petOwners,
		catalog:   catalog,
		now:       time.Now,
	}
}

type CreateInput struct {
	PetID     string
	ServiceID string
	Date      time.Time
}

// Create valida y agenda una cita. El orden de validación es contrato:
// campos, mascota propia, servicio, fecha pasada, hora, minutos, slot libre.
func (s *Service) Create(ctx context.Context, callerUserID string, in CreateInput) (Appointment, error) {
	callerUserID = strings.TrimSpace(callerUserID)
	petID := strings.TrimSpace(in.PetID)
	serviceID := strings.TrimSpace(in.ServiceID)

	if callerUserID == "" || petID == "" || serviceID == "" || in.Date.IsZero() {
		return Appointment{}, ErrMissingFields
	}

	// Mismo error para "no existe" y "no es tuya": no revelar existencia.
	ownerID, err := s.petOwners.OwnerOf(ctx, petID)
	if err != nil || ownerID != callerUserID {
		return Appointment{}, ErrPetNotFound
	}

	exists, active, err := s.catalog.ServiceStatus(ctx, serviceID)
	if err != nil {
		return Appointment{}, err
	}
	if !exists {
		return Appointment{}, ErrServiceNotFound
	}
	if !active {
		return Appointment{}, ErrServiceInactive
	}

	now := s.now()
	date := in.Date.In(now.Location())

	if date.Before(now) {
		return Appointment{}, ErrPastDate
	}
	if h := date.Hour(); h < OpeningHour || h >= ClosingHour {
		return Appointment{}, &OutOfHoursError{Hour: h}
	}
	if date.Minute() != 0 {
		return Appointment{}, ErrNotOnTheHour
	}

	a := Appointment{
		ID:        uuid.NewString(),
		UserID:    callerUserID,
		PetID:     petID,
		ServiceID: serviceID,
		Date:      date,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// El repo es quien garantiza atomicidad del chequeo de slot.
	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

// Cancel aplica la política de cancelación del cliente.
// staff=true (personal de la clínica) omite la verificación de dueño
// y la ventana de 2 días.
func (s *Service) Cancel(ctx context.Context, id, callerUserID string, staff bool) (Appointment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	if !staff && a.UserID != callerUserID {
		return Appointment{}, ErrNotFound
	}

	if a.Status == StatusCancelled {
		return Appointment{}, ErrAlreadyCancelled
	}
	if a.Status == StatusCompleted {
		return Appointment{}, ErrAlreadyCompleted
	}

	now := s.now()
	if !staff {
		days := daysUntil(now, a.Date)
		if days <= MinDaysBeforeCancel {
			return Appointment{}, &CancellationWindowError{DaysUntil: days}
		}
	}

	a.Status = StatusCancelled
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// UpdateStatus es la acción del veterinario asignado: solo acepta
// Completed o Cancelled, nunca sobre una cita ya cancelada.
func (s *Service) UpdateStatus(ctx context.Context, id, vetUserID string, status Status) (Appointment, error) {
	if status != StatusCompleted && status != StatusCancelled {
		return Appointment{}, ErrInvalidStatus
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	if a.VetUserID == "" || a.VetUserID != strings.TrimSpace(vetUserID) {
		return Appointment{}, ErrForbidden
	}
	if a.Status == StatusCancelled {
		return Appointment{}, ErrAlreadyCancelled
	}

	a.Status = status
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// AssignVet asigna un veterinario y confirma la cita (ruta del personal).
func (s *Service) AssignVet(ctx context.Context, id, vetUserID string) (Appointment, error) {
	vetUserID = strings.TrimSpace(vetUserID)
	if vetUserID == "" {
		return Appointment{}, ErrMissingFields
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	switch a.Status {
	case StatusCancelled:
		return Appointment{}, ErrAlreadyCancelled
	case StatusCompleted:
		return Appointment{}, ErrAlreadyCompleted
	}

	a.VetUserID = vetUserID
	a.Status = StatusConfirmed
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// CompleteOverdue es el barrido automático: toda cita Pending con fecha
// vencida pasa a Completed en un solo update masivo. Monotónico: nunca
// revive citas Cancelled ni toca Completed.
func (s *Service) CompleteOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	return s.repo.CompletePendingBefore(ctx, now, now)
}

// List devuelve todas las citas, barriendo primero las vencidas.
func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	if _, err := s.CompleteOverdue(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByVet(ctx context.Context, vetUserID string) ([]Appointment, error) {
	return s.repo.ListByVet(ctx, vetUserID)
}

// AvailableSlots devuelve las horas en punto libres de un día.
// Un slot está libre si no existe cita no cancelada en ese instante;
// las horas ya pasadas del día actual no se ofrecen.
func (s *Service) AvailableSlots(ctx context.Context, day time.Time) ([]time.Time, error) {
	now := s.now()
	loc := now.Location()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Nanosecond)

	booked, err := s.repo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	taken := make(map[int64]struct{}, len(booked))
	for _, a := range booked {
		if a.Status == StatusCancelled {
			continue
		}
		taken[a.Date.Unix()] = struct{}{}
	}

	out := make([]time.Time, 0, ClosingHour-OpeningHour)
	for h := OpeningHour; h < ClosingHour; h++ {
		slot := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc)
		if slot.Before(now) {
			continue
		}
		if _, ok := taken[slot.Unix()]; ok {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

// ListPendingWindow expone las citas Pending próximas para el motor de
// notificaciones (interface local allá, igual que PetOwnerLookup aquí).
func (s *Service) ListPendingWindow(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return s.repo.ListPendingBetween(ctx, from, to)
}

// PurgeByPet implementa pets.DependentsPurger para el borrado en cascada.
func (s *Service) PurgeByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

// daysUntil calcula la diferencia en días con ceil sobre la diferencia
// en milisegundos, como define la política de cancelación.
func daysUntil(now, date time.Time) int {
	ms := float64(date.Sub(now).Milliseconds())
	const dayMs = 24 * 60 * 60 * 1000
	return int(math.Ceil(ms / dayMs))
}
