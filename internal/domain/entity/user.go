package entity

import "time"

// Roles de usuario de la planta.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleOperario   = "operario"
)

// User usuario de la aplicación (autenticación y auditoría CreatedBy).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string // admin | supervisor | operario
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
