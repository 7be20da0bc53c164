package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/api/dto"
	"github.com/namann16/support-tickets/internal/auth"
	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/service"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, exp, err := h.users.Register(c.Context(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, dto.AuthData{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.NewUserResponse(user),
	}, "User registered")
}

// Login handles POST /api/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, exp, err := h.users.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, dto.AuthData{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.NewUserResponse(user),
	}, "Login successful")
}

// ForgotPassword handles POST /api/users/forgot-password.
func (h *UsersHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.users.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Password reset email sent")
}

// ResetPassword handles POST /api/users/reset-password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.users.ResetPassword(c.Context(), req.Token, req.Password); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Password has been reset")
}

// VerifyEmail handles GET /api/users/verify-email?token=.
func (h *UsersHandler) VerifyEmail(c *fiber.Ctx) error {
	if err := h.users.VerifyEmail(c.Context(), c.Query("token")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Email verified successfully")
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	users, err := h.users.ListUsers(c.Context(), principal.User.CustomerID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userResponses(users), "Fetched users successfully")
}

// ListByRole handles GET /api/users/role/:role.
func (h *UsersHandler) ListByRole(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	role := domain.Role(c.Params("role"))
	users, err := h.users.ListUsersByRole(c.Context(), principal.User.CustomerID, role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userResponses(users), "Fetched users successfully")
}

// GetByID handles GET /api/users/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	user, err := h.users.GetByID(c.Context(), principal.User.CustomerID, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user), "User fetched successfully")
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.UpdateProfile(c.Context(), principal.User.CustomerID, principal.User.ID, c.Params("id"), service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user), "User updated successfully")
}

// Deactivate handles PUT /api/users/:id/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	user, err := h.users.Deactivate(c.Context(), principal.User.CustomerID, principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user), "User deactivated")
}

// ChangeRole handles PUT /api/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.ChangeRole(c.Context(), principal.User.CustomerID, principal.User.ID, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewUserResponse(user), "User role updated")
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return items
}

// mustPrincipal is only called behind the auth middleware.
func mustPrincipal(c *fiber.Ctx) *auth.Principal {
	principal, _ := auth.PrincipalFromContext(c)
	return principal
}
