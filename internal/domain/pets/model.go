package pets

import "time"

// Species define las especies soportadas.
type Species string

const (
	SpeciesDog   Species = "perro"
	SpeciesCat   Species = "gato"
	SpeciesOther Species = "otro"
)

// Sex define el sexo de la mascota.
type Sex string

const (
	SexMale    Sex = "macho"
	SexFemale  Sex = "hembra"
	SexUnknown Sex = "desconocido"
)

// Pet representa una mascota registrada en la clínica.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	WeightKg  float64
	Color     string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
