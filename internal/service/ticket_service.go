package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/events"
	"github.com/namann16/support-tickets/internal/repository"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// TicketService coordinates ticket workflows. Every operation is
// fenced to the caller's tenant; cross-tenant ids read as not found.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketQuery carries the optional filter predicates.
type TicketQuery struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
}

// Create stores a new ticket in the creator's tenant with initial
// status open.
func (s *TicketService) Create(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	var fields []apperrors.FieldError
	if title == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "Title is required"})
	} else if len(title) > domain.TicketTitleMaxLen {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "Title is too long"})
	}
	if description == "" {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "Description is required"})
	} else if len(description) > domain.TicketDescriptionMaxLen {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "Description is too long"})
	}
	if !input.Priority.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "priority", Message: "Invalid priority"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", fields)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		CustomerID:  creator.CustomerID,
		CreatedBy:   creator.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketCreated, ticket.CustomerID, events.TicketCreatedPayload{
		TicketID:  ticket.ID,
		CreatedBy: ticket.CreatedBy,
		Priority:  ticket.Priority,
		Title:     ticket.Title,
	})
	return ticket, nil
}

// ListMine returns tickets created by the caller.
func (s *TicketService) ListMine(ctx context.Context, caller *domain.User) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CustomerID: caller.CustomerID,
		CreatedBy:  &caller.ID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListTenant returns every live ticket in the caller's tenant.
func (s *TicketService) ListTenant(ctx context.Context, caller *domain.User) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CustomerID: caller.CustomerID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListByCreator returns the tenant's tickets created by the given user.
func (s *TicketService) ListByCreator(ctx context.Context, caller *domain.User, userID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CustomerID: caller.CustomerID,
		CreatedBy:  &userID,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Filter returns the tenant's tickets matching the optional status and
// priority predicates. Absent filters impose no constraint.
func (s *TicketService) Filter(ctx context.Context, caller *domain.User, query TicketQuery) ([]domain.Ticket, error) {
	var fields []apperrors.FieldError
	if query.Status != nil && !query.Status.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "status", Message: "Invalid status"})
	}
	if query.Priority != nil && !query.Priority.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "priority", Message: "Invalid priority"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", fields)
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CustomerID: caller.CustomerID,
		Status:     query.Status,
		Priority:   query.Priority,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetByID fetches a single ticket within the caller's tenant. Staff
// may read any tenant ticket; customers only the ones they created,
// with foreign ids reading as not found.
func (s *TicketService) GetByID(ctx context.Context, caller *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.fetchTenantTicket(ctx, caller.CustomerID, id)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanManageTickets() && ticket.CreatedBy != caller.ID {
		return nil, apperrors.NewNotFound("ticket")
	}
	return ticket, nil
}

// UpdateStatus moves a ticket to a new lifecycle state. Agents and
// admins may set any valid status; customers may only close tickets
// they created.
func (s *TicketService) UpdateStatus(ctx context.Context, caller *domain.User, id string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "status", Message: "Invalid status"},
		})
	}

	ticket, err := s.fetchTenantTicket(ctx, caller.CustomerID, id)
	if err != nil {
		return nil, err
	}

	if !caller.Role.CanManageTickets() {
		if ticket.CreatedBy != caller.ID {
			return nil, apperrors.NewNotFound("ticket")
		}
		if newStatus != domain.TicketStatusClosed {
			return nil, apperrors.NewForbidden("Customers may only close their own tickets")
		}
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketStatusChanged, ticket.CustomerID, events.TicketStatusChangedPayload{
		TicketID:  ticket.ID,
		ChangedBy: caller.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	return ticket, nil
}

// Assign sets the ticket's assignee. The assignee must exist in the
// same tenant and hold a role that works tickets.
func (s *TicketService) Assign(ctx context.Context, caller *domain.User, id, agentID string) (*domain.Ticket, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, apperrors.NewValidationError("Validation failed", []apperrors.FieldError{
			{Field: "agentId", Message: "AgentId is required"},
		})
	}

	ticket, err := s.fetchTenantTicket(ctx, caller.CustomerID, id)
	if err != nil {
		return nil, err
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent")
		}
		return nil, apperrors.MapError(err)
	}
	if agent.CustomerID != caller.CustomerID {
		return nil, apperrors.NewNotFound("agent")
	}
	if !agent.Role.CanManageTickets() {
		return nil, apperrors.NewValidationError("Assignee must be an agent or admin", nil)
	}

	ticket.AssigneeID = &agent.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketAssigned, ticket.CustomerID, events.TicketAssignedPayload{
		TicketID:   ticket.ID,
		AssignedBy: caller.ID,
		AssigneeID: agent.ID,
	})
	return ticket, nil
}

// Delete soft-deletes by moving the ticket to status deleted. The row
// is retained and excluded from listings.
func (s *TicketService) Delete(ctx context.Context, caller *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.fetchTenantTicket(ctx, caller.CustomerID, id)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusDeleted
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketDeleted, ticket.CustomerID, events.TicketStatusChangedPayload{
		TicketID:  ticket.ID,
		ChangedBy: caller.ID,
		OldStatus: oldStatus,
		NewStatus: domain.TicketStatusDeleted,
	})
	return ticket, nil
}

func (s *TicketService) fetchTenantTicket(ctx context.Context, customerID, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewNotFound("ticket")
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, customerID string, payload interface{}) {
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
