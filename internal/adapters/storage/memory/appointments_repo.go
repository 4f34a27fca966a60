package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vetclinic-api/internal/domain/appointments"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

// Create verifica el slot y escribe bajo el mismo write lock, así el
// check-then-insert es atómico. El equivalente en Postgres es el índice
// único parcial sobre date.
func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}

	for _, other := range r.byID {
		if other.Status == appointments.StatusCancelled {
			continue
		}
		if other.Date.Equal(a.Date) {
			return appointments.ErrSlotTaken
		}
	}

	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; !exists {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *appointmentRepo) List(ctx context.Context) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) ListByUser(ctx context.Context, userID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) ListByVet(ctx context.Context, vetUserID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.VetUserID == vetUserID {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) ListPendingBetween(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.Status != appointments.StatusPending {
			continue
		}
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (r *appointmentRepo) CompletePendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, a := range r.byID {
		if a.Status == appointments.StatusPending && a.Date.Before(cutoff) {
			a.Status = appointments.StatusCompleted
			a.UpdatedAt = updatedAt
			r.byID[id] = a
			n++
		}
	}
	return n, nil
}

func (r *appointmentRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if a.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

func sortAppointments(items []appointments.Appointment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].ID < items[j].ID
		}
		return items[i].Date.Before(items[j].Date)
	})
}
