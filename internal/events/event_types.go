package events

import (
	"time"

	"github.com/namann16/support-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventTicketDeleted          EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CustomerID string      `json:"customer_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID  string                `json:"ticket_id"`
	CreatedBy string                `json:"created_by"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	ChangedBy string              `json:"changed_by"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID   string `json:"ticket_id"`
	AssignedBy string `json:"assigned_by"`
	AssigneeID string `json:"assignee_id"`
}
