package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketsHandler serves the chat front end's ticket operations.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.User.Email, service.TicketCreateInput{
		Destination: req.Destination,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTicket(ticket, service.EscalationAdvice{}))
}

// Get handles GET /tickets/:number.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	ticket, advice, err := h.tickets.GetTicket(c.UserContext(), principal.User.Email, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket, advice))
}

// ListRecent handles GET /tickets.
func (h *TicketsHandler) ListRecent(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	tickets, err := h.tickets.ListRecent(c.UserContext(), principal.User.Email, limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTickets(tickets))
}

// Search handles GET /tickets/search?q=.
func (h *TicketsHandler) Search(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	tickets, err := h.tickets.Search(c.UserContext(), principal.User.Email, c.Query("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTickets(tickets))
}

// ChangeStatus handles PATCH /tickets/:number/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.ChangeStatus(c.UserContext(), principal.User.Email, c.Params("number"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket, service.EscalationAdvice{}))
}

// ChangePriority handles PATCH /tickets/:number/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.ChangePriority(c.UserContext(), principal.User.Email, c.Params("number"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket, service.EscalationAdvice{}))
}

// Assign handles PATCH /tickets/:number/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.Assign(c.UserContext(), principal.User.Email, c.Params("number"), req.AssigneeEmail)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket, service.EscalationAdvice{}))
}

// Delete handles DELETE /tickets/:number. Admin escape hatch.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	if err := h.tickets.DeleteTicket(c.UserContext(), principal.User.Email, c.Params("number")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CountByStatus handles GET /tickets/stats/status.
func (h *TicketsHandler) CountByStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	counts, err := h.tickets.CountByStatus(c.UserContext(), principal.User.Email)
	if err != nil {
		return err
	}
	response := make(map[string]int64, len(counts))
	for status, count := range counts {
		response[string(status)] = count
	}
	return c.JSON(response)
}
