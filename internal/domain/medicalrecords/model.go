package medicalrecords

import "time"

// Tipos de procedimiento conocidos. El campo es texto libre: estos
// literales son los que dispara el motor de notificaciones, comparados
// tal cual (sensible a mayúsculas).
const (
	ProcedureVaccine = "vacuna"
	ProcedureBath    = "baño"
)

// MedicalRecord es una entrada del historial clínico de una mascota,
// registrada por un veterinario.
type MedicalRecord struct {
	ID    string
	PetID string

	// Veterinario que registró el procedimiento.
	VetUserID string

	ProcedureType string
	Description   string

	// Fecha en que se realizó el procedimiento.
	Date time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
