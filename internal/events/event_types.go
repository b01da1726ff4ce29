package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	ActorEmail   string      `json:"actor_email"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Destination string                `json:"destination"`
	Priority    domain.TicketPriority `json:"priority"`
	Title       string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeEmail string `json:"assignee_email"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   int64              `json:"comment_id"`
	CommentType domain.CommentType `json:"comment_type"`
	AuthorEmail string             `json:"author_email"`
	BodyPreview string             `json:"body_preview"`
}
