package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Destination string                `json:"destination"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeEmail string `json:"assignee_email"`
}

// TicketResponse is the plain ticket representation handed to the chat
// front end.
type TicketResponse struct {
	Number            string                `json:"number"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	CreatorEmail      string                `json:"creator_email"`
	AssigneeEmail     *string               `json:"assignee_email,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	ResolvedAt        *time.Time            `json:"resolved_at,omitempty"`
	Overdue           bool                  `json:"overdue"`
	EscalationAdvised bool                  `json:"escalation_advised"`
}

// FromTicket maps an entity to its response shape.
func FromTicket(ticket *domain.Ticket, advice service.EscalationAdvice) TicketResponse {
	return TicketResponse{
		Number:            ticket.Number,
		Title:             ticket.Title,
		Description:       ticket.Description,
		Status:            ticket.Status,
		Priority:          ticket.Priority,
		CreatorEmail:      ticket.CreatorEmail,
		AssigneeEmail:     ticket.AssigneeEmail,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
		ResolvedAt:        ticket.ResolvedAt,
		Overdue:           advice.Overdue,
		EscalationAdvised: advice.EscalationAdvised,
	}
}

// FromTickets maps a ticket list without SLA advice.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, FromTicket(&tickets[i], service.EscalationAdvice{}))
	}
	return result
}
