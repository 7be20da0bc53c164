package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/repository"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

func newTestUserService() (*UserService, *fakeUserRepo, *fakeResetRepo) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	svc := NewUserService(testConfig(), UserDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
	})
	return svc, users, resets
}

func assertDomainCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError with code %s, got %v", code, err)
	}
	if de.Code != code {
		t.Fatalf("expected code %s, got %s (%q)", code, de.Code, de.Message)
	}
	return de
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Password:   "s3cretpw",
		CustomerID: "Tenant1",
	}
}

func TestRegisterDefaultsRoleAndHashesPassword(t *testing.T) {
	svc, users, _ := newTestUserService()

	user, token, exp, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("expected default role customer, got %s", user.Role)
	}
	if user.PasswordHash == "s3cretpw" {
		t.Error("password stored in plaintext")
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}
	if user.IsEmailVerified {
		t.Error("new user should not be verified yet")
	}
	if user.EmailVerificationToken == nil || *user.EmailVerificationToken == "" {
		t.Error("expected a verification token")
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if !exp.After(time.Now()) {
		t.Errorf("token expiry %v is not in the future", exp)
	}
	if _, err := users.GetByEmail(context.Background(), "ada@example.com"); err != nil {
		t.Errorf("registered user not persisted: %v", err)
	}
}

func TestRegisterHonorsExplicitRole(t *testing.T) {
	svc, _, _ := newTestUserService()

	input := validRegisterInput()
	input.Role = domain.RoleAgent
	user, _, _, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleAgent {
		t.Errorf("expected role agent, got %s", user.Role)
	}
}

func TestRegisterCollectsAllFieldErrors(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "abc",
		Role:     domain.Role("superuser"),
	})
	de := assertDomainCode(t, err, "VALIDATION_FAILED")

	want := map[string]bool{"name": false, "email": false, "password": false, "customerId": false, "role": false}
	for _, fe := range de.Fields {
		if _, ok := want[fe.Field]; ok {
			want[fe.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("missing field error for %q", field)
		}
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newTestUserService()

	if _, _, _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	input := validRegisterInput()
	input.Name = "Someone Else"
	_, _, _, err := svc.Register(context.Background(), input)
	assertDomainCode(t, err, "CONFLICT")
}

func TestLoginFailureClassesAreIndistinguishable(t *testing.T) {
	svc, users, _ := newTestUserService()

	if _, _, _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	inactive := validRegisterInput()
	inactive.Email = "gone@example.com"
	disabled, _, _, err := svc.Register(context.Background(), inactive)
	if err != nil {
		t.Fatalf("register inactive: %v", err)
	}
	disabled.IsActive = false
	if err := users.Update(context.Background(), disabled); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@example.com", "s3cretpw"},
		{"wrong password", "ada@example.com", "wrong-password"},
		{"inactive account", "gone@example.com", "s3cretpw"},
	}

	var messages []string
	for _, tc := range cases {
		_, _, _, err := svc.Login(context.Background(), tc.email, tc.password)
		de := assertDomainCode(t, err, "UNAUTHORIZED")
		messages = append(messages, de.Message)
	}
	for i := 1; i < len(messages); i++ {
		if messages[i] != messages[0] {
			t.Errorf("login failure messages differ: %q vs %q", messages[0], messages[i])
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _ := newTestUserService()

	if _, _, _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	user, token, _, err := svc.Login(context.Background(), "ada@example.com", "s3cretpw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("token subject %s, want %s", claims.Subject, user.ID)
	}
	if claims.CustomerID != "Tenant1" {
		t.Errorf("token customerId %s, want Tenant1", claims.CustomerID)
	}
}

func TestGetByIDFencesTenants(t *testing.T) {
	svc, users, _ := newTestUserService()

	outsider := users.seed(domain.User{
		Name:       "Other Tenant",
		Email:      "other@example.com",
		Role:       domain.RoleCustomer,
		CustomerID: "Tenant2",
		IsActive:   true,
	})

	_, err := svc.GetByID(context.Background(), "Tenant1", outsider.ID)
	assertDomainCode(t, err, "NOT_FOUND")

	got, err := svc.GetByID(context.Background(), "Tenant2", outsider.ID)
	if err != nil {
		t.Fatalf("same-tenant get: %v", err)
	}
	if got.ID != outsider.ID {
		t.Errorf("got user %s, want %s", got.ID, outsider.ID)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, users, _ := newTestUserService()

	admin := users.seed(domain.User{
		Name: "Root", Email: "root@example.com",
		Role: domain.RoleAdmin, CustomerID: "Tenant1", IsActive: true,
	})
	user, _, _, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "Ada L."
	updated, err := svc.UpdateProfile(context.Background(), "Tenant1", admin.ID, user.ID, UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ada L." {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if updated.Email != "ada@example.com" {
		t.Errorf("email changed unexpectedly: %s", updated.Email)
	}
	if updated.Role != domain.RoleCustomer {
		t.Errorf("role changed unexpectedly: %s", updated.Role)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestUserService()

	name := "Nobody"
	_, err := svc.UpdateProfile(context.Background(), "Tenant1", "user-1", "user-404", UpdateProfileInput{Name: &name})
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestUpdateProfileGuardsOwnRole(t *testing.T) {
	svc, users, _ := newTestUserService()

	admin := users.seed(domain.User{
		Name: "Root", Email: "root@example.com",
		Role: domain.RoleAdmin, CustomerID: "Tenant1", IsActive: true,
	})

	role := domain.RoleCustomer
	_, err := svc.UpdateProfile(context.Background(), "Tenant1", admin.ID, admin.ID, UpdateProfileInput{Role: &role})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	// Non-role fields on the own account stay editable.
	name := "Root Renamed"
	updated, err := svc.UpdateProfile(context.Background(), "Tenant1", admin.ID, admin.ID, UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("self name update: %v", err)
	}
	if updated.Name != "Root Renamed" {
		t.Errorf("name not updated: %s", updated.Name)
	}
}

func TestDeactivateRejectsSelf(t *testing.T) {
	svc, users, _ := newTestUserService()

	admin := users.seed(domain.User{
		Name: "Root", Email: "root@example.com",
		Role: domain.RoleAdmin, CustomerID: "Tenant1", IsActive: true,
	})

	_, err := svc.Deactivate(context.Background(), "Tenant1", admin.ID, admin.ID)
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestDeactivateDisablesAccount(t *testing.T) {
	svc, users, _ := newTestUserService()

	admin := users.seed(domain.User{
		Name: "Root", Email: "root@example.com",
		Role: domain.RoleAdmin, CustomerID: "Tenant1", IsActive: true,
	})
	target, _, _, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.Deactivate(context.Background(), "Tenant1", admin.ID, target.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if updated.IsActive {
		t.Error("user should be inactive")
	}

	_, _, _, err = svc.Login(context.Background(), "ada@example.com", "s3cretpw")
	assertDomainCode(t, err, "UNAUTHORIZED")
}

func TestChangeRole(t *testing.T) {
	svc, users, _ := newTestUserService()

	admin := users.seed(domain.User{
		Name: "Root", Email: "root@example.com",
		Role: domain.RoleAdmin, CustomerID: "Tenant1", IsActive: true,
	})
	target, _, _, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.ChangeRole(context.Background(), "Tenant1", admin.ID, admin.ID, domain.RoleAgent); err == nil {
		t.Error("expected self role change to fail")
	}
	if _, err := svc.ChangeRole(context.Background(), "Tenant1", admin.ID, target.ID, domain.Role("wizard")); err == nil {
		t.Error("expected invalid role to fail")
	}

	updated, err := svc.ChangeRole(context.Background(), "Tenant1", admin.ID, target.ID, domain.RoleAgent)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if updated.Role != domain.RoleAgent {
		t.Errorf("role is %s, want agent", updated.Role)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _ := newTestUserService()

	err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	svc, _, resets := newTestUserService()

	if _, _, _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := resets.lastToken()
	if token == "" {
		t.Fatal("no reset token issued")
	}

	if err := svc.ResetPassword(context.Background(), token, "newpassword"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "ada@example.com", "newpassword"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	_, _, _, err := svc.Login(context.Background(), "ada@example.com", "s3cretpw")
	assertDomainCode(t, err, "UNAUTHORIZED")

	err = svc.ResetPassword(context.Background(), token, "anotherpass")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	svc, users, resets := newTestUserService()

	user := users.seed(domain.User{
		Name: "Ada", Email: "ada@example.com",
		Role: domain.RoleCustomer, CustomerID: "Tenant1", IsActive: true,
	})
	reset := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := resets.Create(context.Background(), reset); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	err := svc.ResetPassword(context.Background(), "stale-token", "newpassword")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	svc, _, _ := newTestUserService()

	err := svc.ResetPassword(context.Background(), "whatever", "abc")
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	svc, users, _ := newTestUserService()

	user, _, _, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token := *user.EmailVerificationToken

	if err := svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	stored, err := users.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsEmailVerified {
		t.Error("user should be verified")
	}
	if stored.EmailVerificationToken != nil {
		t.Error("verification token should be cleared")
	}

	err = svc.VerifyEmail(context.Background(), token)
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestListUsersByRoleValidatesRole(t *testing.T) {
	svc, _, _ := newTestUserService()

	_, err := svc.ListUsersByRole(context.Background(), "Tenant1", domain.Role("wizard"))
	assertDomainCode(t, err, "VALIDATION_FAILED")
}
