package domain

import "time"

// Role enumerates caller permission levels.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// CanManageTickets reports whether the role may operate on tickets
// beyond the ones it created.
func (r Role) CanManageTickets() bool {
	switch r {
	case RoleAdmin, RoleAgent:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

// User is the domain model for every account: customers submitting
// tickets as well as agents and admins working them. CustomerID groups
// accounts into isolated tenants and never changes after creation.
type User struct {
	ID                     string
	Name                   string
	Email                  string
	PasswordHash           string
	Role                   Role
	CustomerID             string
	IsActive               bool
	IsEmailVerified        bool
	EmailVerificationToken *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
