package notifications

import "time"

// Tipos de notificación que produce el motor. Son literales visibles
// para el usuario, por eso van en español.
const (
	TypeAppointmentReminder = "Recordatorio cita"
	TypeVaccine             = "Vacuna"
	TypeBath                = "Baño"
)

// Notification es una fila generada exclusivamente por el motor;
// los usuarios solo la leen y la marcan como leída.
type Notification struct {
	ID     string
	UserID string
	PetID  string

	Type    string
	Message string

	SentAt time.Time
	IsRead bool
}
