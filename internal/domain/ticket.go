package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusDeleted    TicketStatus = "deleted"
)

// Valid reports whether the status is a member of the closed set.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved,
		TicketStatusClosed, TicketStatusDeleted:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether the priority is a member of the closed set.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

const (
	TicketTitleMaxLen       = 200
	TicketDescriptionMaxLen = 5000
)

// Ticket is the aggregate for support requests. CustomerID always
// equals the creator's tenant and is immutable.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CustomerID  string
	CreatedBy   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
