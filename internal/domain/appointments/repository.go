package appointments

import (
	"context"
	"time"
)

type Repository interface {
	// Create persiste la cita. Si ya existe otra cita no cancelada en el
	// mismo instante exacto, devuelve ErrSlotTaken. La verificación y el
	// insert son atómicos en el adapter (lock en memoria, índice único
	// parcial en Postgres): aquí se cierra el check-then-insert.
	Create(ctx context.Context, a Appointment) error

	Update(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)

	List(ctx context.Context) ([]Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	ListByVet(ctx context.Context, vetUserID string) ([]Appointment, error)

	// ListBetween devuelve citas con from <= date <= to, cualquier status.
	ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// ListPendingBetween devuelve citas Pending con from <= date <= to.
	ListPendingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// CompletePendingBefore pasa a Completed, en un solo update masivo,
	// toda cita Pending con date estrictamente anterior a cutoff.
	CompletePendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error)

	DeleteByPet(ctx context.Context, petID string) error
}
