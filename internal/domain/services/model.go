package services

import "time"

// Service representa una oferta reservable de la clínica (consulta, baño, etc).
// Se desactiva con IsActive=false en el flujo normal; solo admin la borra físicamente.
type Service struct {
	ID string

	Title       string
	Description string

	Price           float64
	DurationMinutes int

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
