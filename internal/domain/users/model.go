package users

import "time"

// Role define los roles cerrados del sistema.
// Se compara por constante, no por string arbitrario.
type Role string

const (
	RoleGuest     Role = "Guest"
	RoleClient    Role = "Client"
	RoleVet       Role = "Veterinario"
	RoleAdmin     Role = "Admin"
	RoleSecretary Role = "Secretary"
)

// ParseRole valida un rol recibido como string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleGuest, RoleClient, RoleVet, RoleAdmin, RoleSecretary:
		return Role(s), true
	default:
		return "", false
	}
}

// IsStaff indica si el rol corresponde a personal de la clínica.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSecretary || r == RoleVet
}

// Status define el estado de la cuenta.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// User representa una cuenta del sistema (cliente, veterinario o personal).
type User struct {
	ID string

	Name     string
	LastName string
	Email    string
	Phone    string
	Address  string

	// Hash bcrypt, nunca la contraseña en claro.
	PasswordHash string

	Role   Role
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
