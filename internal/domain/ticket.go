package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. Number is the
// destination-prefixed human identifier and is unique across both
// physical schemas.
type Ticket struct {
	Number        string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CreatorEmail  string
	AssigneeEmail *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}

// NewTicket validates and builds a ticket in the Open state.
func NewTicket(number, title, description, creatorEmail string, priority TicketPriority) (*Ticket, error) {
	number = strings.TrimSpace(number)
	title = strings.TrimSpace(title)
	if number == "" {
		return nil, apperrors.NewValidationError("ticket number must not be empty", nil)
	}
	if title == "" {
		return nil, apperrors.NewValidationError("ticket title must not be empty", nil)
	}
	if !strings.Contains(creatorEmail, "@") {
		return nil, apperrors.NewValidationError("creator email is malformed", map[string]any{"email": creatorEmail})
	}
	if priority == "" {
		priority = TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}
	now := time.Now().UTC()
	return &Ticket{
		Number:       number,
		Title:        title,
		Description:  strings.TrimSpace(description),
		Status:       TicketStatusOpen,
		Priority:     priority,
		CreatorEmail: creatorEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Valid reports whether the priority is one of the known levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Terminal reports whether the ticket no longer counts against its SLA.
func (t *Ticket) Terminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// SetStatus applies an already-authorized transition, stamping or
// clearing ResolvedAt. Authorization lives in CanTransition; this only
// keeps the timestamps consistent.
func (t *Ticket) SetStatus(next TicketStatus, now time.Time) {
	if next == TicketStatusResolved && t.Status != TicketStatusResolved {
		resolved := now
		t.ResolvedAt = &resolved
	}
	if next == TicketStatusOpen || next == TicketStatusInProgress {
		t.ResolvedAt = nil
	}
	t.Status = next
	t.UpdatedAt = now
}

// Touch bumps UpdatedAt, used when a comment lands on the ticket.
func (t *Ticket) Touch(now time.Time) {
	t.UpdatedAt = now
}
