package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/namann16/support-tickets/internal/auth"
	"github.com/namann16/support-tickets/internal/config"
	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/events"
	"github.com/namann16/support-tickets/internal/repository"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// UserService coordinates account flows: registration, login, admin
// management, password reset and email verification.
type UserService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	resetTTL   time.Duration
}

// UserDependencies encapsulates repo requirements for the user service.
type UserDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	CustomerID string
}

// Register creates a new account, defaults role to customer, and
// returns the stored user with a freshly issued token. The welcome and
// verification mails are dispatched after the row is committed and
// never roll it back.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	var fields []apperrors.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "Name is required"})
	}
	if !emailPattern.MatchString(input.Email) {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if len(input.Password) < minPasswordLen {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if strings.TrimSpace(input.CustomerID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "customerId", Message: "CustomerId is required"})
	}
	if input.Role != "" && !input.Role.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "role", Message: "Invalid role"})
	}
	if len(fields) > 0 {
		return nil, "", time.Time{}, apperrors.NewValidationError("Validation failed", fields)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("User already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	verifyToken, err := randomToken()
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:                   strings.TrimSpace(input.Name),
		Email:                  input.Email,
		PasswordHash:           hash,
		Role:                   role,
		CustomerID:             input.CustomerID,
		IsActive:               true,
		EmailVerificationToken: &verifyToken,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, "", time.Time{}, apperrors.NewConflict("User already exists")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.CustomerID, events.UserRegisteredPayload{
		UserID:            user.ID,
		Name:              user.Name,
		Email:             user.Email,
		VerificationToken: verifyToken,
	})

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates by email and password. Unknown email, wrong
// password and deactivated accounts all produce the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	var fields []apperrors.FieldError
	if !emailPattern.MatchString(email) {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if password == "" {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(fields) > 0 {
		return nil, "", time.Time{}, apperrors.NewValidationError("Validation failed", fields)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// GetByID fetches a user within the caller's tenant. Ids outside the
// tenant read as not found to avoid confirming existence.
func (s *UserService) GetByID(ctx context.Context, customerID, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	if user.CustomerID != customerID {
		return nil, apperrors.NewNotFound("user")
	}
	return user, nil
}

// ListUsers returns all users in the tenant.
func (s *UserService) ListUsers(ctx context.Context, customerID string) ([]domain.User, error) {
	users, err := s.users.ListByTenant(ctx, customerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListUsersByRole returns the tenant's users holding the given role.
func (s *UserService) ListUsersByRole(ctx context.Context, customerID string, role domain.Role) ([]domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "role", Message: "Invalid role"},
		})
	}
	users, err := s.users.ListByTenantAndRole(ctx, customerID, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateProfileInput carries the optional fields of a partial update.
type UpdateProfileInput struct {
	Name  *string
	Email *string
	Role  *domain.Role
}

// UpdateProfile applies a partial update; only provided fields change.
// Role changes carry the same self-guard as ChangeRole, so the partial
// update cannot be used to sidestep it.
func (s *UserService) UpdateProfile(ctx context.Context, customerID, actorID, id string, input UpdateProfileInput) (*domain.User, error) {
	if input.Role != nil && actorID == id {
		return nil, apperrors.NewValidationError("Cannot change own role", nil)
	}

	var fields []apperrors.FieldError
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "Name cannot be empty"})
	}
	if input.Email != nil && !emailPattern.MatchString(*input.Email) {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if input.Role != nil && !input.Role.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "role", Message: "Invalid role"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", fields)
	}

	user, err := s.GetByID(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.NewConflict("User already exists")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Deactivate soft-deletes a user. The record stays; the auth gate
// rejects the account on its next request. Admins cannot deactivate
// themselves.
func (s *UserService) Deactivate(ctx context.Context, customerID, actorID, id string) (*domain.User, error) {
	if actorID == id {
		return nil, apperrors.NewValidationError("Cannot deactivate own account", nil)
	}

	user, err := s.GetByID(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ChangeRole overwrites a user's role. Admins cannot change their own.
func (s *UserService) ChangeRole(ctx context.Context, customerID, actorID, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "role", Message: "Invalid role"},
		})
	}
	if actorID == id {
		return nil, apperrors.NewValidationError("Cannot change own role", nil)
	}

	user, err := s.GetByID(ctx, customerID, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// RequestPasswordReset issues a single-use token and dispatches the
// reset mail. Unknown emails surface as not found, matching the
// documented API surface.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.MapError(err)
	}

	tokenStr, err := randomToken()
	if err != nil {
		return apperrors.MapError(err)
	}

	reset := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     tokenStr,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordResetRequested, user.CustomerID, events.PasswordResetRequestedPayload{
		UserID:     user.ID,
		Email:      user.Email,
		ResetToken: tokenStr,
		ExpiresAt:  reset.ExpiresAt,
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *UserService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "password", Message: "Password must be at least 6 characters"},
		})
	}

	reset, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("Invalid or expired token", nil)
		}
		return apperrors.MapError(err)
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return apperrors.NewValidationError("Invalid or expired token", nil)
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}

	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// VerifyEmail marks the account verified and clears the token.
func (s *UserService) VerifyEmail(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return apperrors.NewValidationError("Invalid or expired token", nil)
	}

	user, err := s.users.GetByVerificationToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("Invalid or expired token", nil)
		}
		return apperrors.MapError(err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *UserService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, customerID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CustomerID: customerID,
		Timestamp:  time.Now(),
		Payload:    payload,
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
