package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/namann16/support-tickets/internal/api/dto"
	"github.com/namann16/support-tickets/internal/domain"
	"github.com/namann16/support-tickets/internal/service"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// TicketsHandler exposes ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// Create handles POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewTicketResponse(ticket), "Ticket created")
}

// ListMine handles GET /api/tickets/me.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	tickets, err := h.tickets.ListMine(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponses(tickets), "Fetched tickets successfully")
}

// ListAll handles GET /api/tickets.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	tickets, err := h.tickets.ListTenant(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponses(tickets), "Fetched tickets successfully")
}

// ListByUser handles GET /api/tickets/user/:userId.
func (h *TicketsHandler) ListByUser(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	tickets, err := h.tickets.ListByCreator(c.Context(), principal.User, c.Params("userId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponses(tickets), "Fetched tickets successfully")
}

// Filter handles GET /api/tickets/filter/params.
func (h *TicketsHandler) Filter(c *fiber.Ctx) error {
	principal := mustPrincipal(c)

	var query service.TicketQuery
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.TicketStatus(statusStr)
		query.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.TicketPriority(priorityStr)
		query.Priority = &priority
	}

	tickets, err := h.tickets.Filter(c.Context(), principal.User, query)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponses(tickets), "Fetched tickets successfully")
}

// GetByID handles GET /api/tickets/:id.
func (h *TicketsHandler) GetByID(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	ticket, err := h.tickets.GetByID(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket), "Ticket fetched successfully")
}

// UpdateStatus handles PUT /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	var req dto.UpdateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.UpdateStatus(c.Context(), principal.User, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket), "Ticket status updated")
}

// Assign handles PUT /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Assign(c.Context(), principal.User, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket), "Ticket assigned")
}

// Delete handles DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal := mustPrincipal(c)
	ticket, err := h.tickets.Delete(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket), "Ticket deleted")
}
