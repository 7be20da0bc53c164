package dto

import (
	"time"

	"github.com/namann16/support-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agentId"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CustomerID  string                `json:"customerId"`
	CreatedBy   string                `json:"createdBy"`
	AssigneeID  *string               `json:"assigneeId"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// NewTicketResponse maps the domain model to its public view.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CustomerID:  ticket.CustomerID,
		CreatedBy:   ticket.CreatedBy,
		AssigneeID:  ticket.AssigneeID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}
