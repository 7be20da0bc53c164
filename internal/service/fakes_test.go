package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/namann16/support-tickets/internal/config"
	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              bcrypt.MinCost,
		},
	}
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.EmailVerificationToken != nil && *user.EmailVerificationToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByTenant(_ context.Context, customerID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.CustomerID == customerID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) ListByTenantAndRole(_ context.Context, customerID string, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.CustomerID == customerID && user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

// seed inserts a user directly, bypassing the service.
func (r *fakeUserRepo) seed(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	stored := user
	r.users[user.ID] = &stored
	copied := stored
	return &copied
}

// fakeResetRepo is an in-memory repository.PasswordResetRepository.
type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*repository.PasswordResetToken
	nextID int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = fmt.Sprintf("reset-%d", r.nextID)
	token.CreatedAt = time.Now()
	stored := *token
	r.tokens[token.ID] = &stored
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.Token == tokenStr {
			copied := *token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[id]; ok {
		now := time.Now()
		token.UsedAt = &now
	}
	return nil
}

// lastToken returns the most recently created token string.
func (r *fakeResetRepo) lastToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := fmt.Sprintf("reset-%d", r.nextID)
	if token, ok := r.tokens[id]; ok {
		return token.Token
	}
	return ""
}

// fakeTicketRepo is an in-memory repository.TicketRepository.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket, ok := r.tickets[id]; ok {
		copied := *ticket
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.CustomerID != filter.CustomerID {
			continue
		}
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Status != nil {
			if ticket.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeDeleted && ticket.Status == domain.TicketStatusDeleted {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}
