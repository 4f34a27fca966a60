package appointments

import "time"

// Status define el ciclo de vida de una cita.
// Pending -> Confirmed (asignación de veterinario)
// Pending/Confirmed -> Cancelled (cliente con ventana de 2 días, o personal)
// Pending -> Completed (veterinario, o barrido automático al vencer la fecha)
// Completed y Cancelled son terminales.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Appointment representa una cita agendada.
type Appointment struct {
	ID string

	UserID    string // dueño que agendó
	PetID     string
	ServiceID string

	// Veterinario asignado; vacío hasta que el personal lo asigna.
	VetUserID string

	Date   time.Time
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
