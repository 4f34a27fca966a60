package products

import "time"

// Product es un artículo del inventario de la clínica (alimento, medicina, etc).
type Product struct {
	ID string

	Name        string
	Description string
	Price       float64
	Stock       int

	CreatedAt time.Time
	UpdatedAt time.Time
}
