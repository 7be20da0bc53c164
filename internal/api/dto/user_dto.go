package dto

import (
	"time"

	"github.com/namann16/support-tickets/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role"`
	CustomerID string      `json:"customerId"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateUserRequest carries optional admin profile updates.
type UpdateUserRequest struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email"`
	Role  *domain.Role `json:"role"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse is the public view of an account. The password hash
// never leaves the service.
type UserResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	CustomerID      string      `json:"customerId"`
	IsActive        bool        `json:"isActive"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// AuthData bundles a user with an issued token.
type AuthData struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewUserResponse maps the domain model to its public view.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		CustomerID:      user.CustomerID,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}
