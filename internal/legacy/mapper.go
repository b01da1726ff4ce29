package legacy

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketModel is the legacy polymorphic model name message rows point at.
const TicketModel = "helpdesk.ticket"

// Legacy stage codes. Code 5 (cancelled) collapses into Closed; the
// collapse is accepted and intentional, not a round-trip bug.
const (
	stageOpen       = 1
	stageInProgress = 2
	stageResolved   = 3
	stageClosed     = 4
	stageCancelled  = 5
)

// TicketRow is a raw row from one of the per-destination legacy tables.
type TicketRow struct {
	ID            int64
	Number        string
	Name          string
	Description   string
	StageID       int64
	Priority      string
	PartnerEmail  string
	AssigneeEmail *string
	TeamID        int64
	CreateDate    time.Time
	WriteDate     time.Time
}

// MessageRow is a raw row from the shared legacy message table, keyed
// by (model, res_id).
type MessageRow struct {
	ID          int64
	Model       string
	ResID       int64
	Body        string
	MessageType string
	SubtypeID   *int64
	EmailFrom   string
	CreateDate  time.Time
}

// internalSubtypes are the mail subtype ids the ERP used for agent-only
// notes.
var internalSubtypes = map[int64]struct{}{2: {}, 3: {}}

// StatusFromStage maps a legacy stage code to a domain status. Unknown
// codes fall back to Open; the second return flags the fallback so the
// caller can record a mapping warning.
func StatusFromStage(code int64) (domain.TicketStatus, bool) {
	switch code {
	case stageOpen:
		return domain.TicketStatusOpen, true
	case stageInProgress:
		return domain.TicketStatusInProgress, true
	case stageResolved:
		return domain.TicketStatusResolved, true
	case stageClosed, stageCancelled:
		return domain.TicketStatusClosed, true
	default:
		return domain.TicketStatusOpen, false
	}
}

// StageFromStatus re-derives the stage code for writes.
func StageFromStatus(status domain.TicketStatus) int64 {
	switch status {
	case domain.TicketStatusInProgress:
		return stageInProgress
	case domain.TicketStatusResolved:
		return stageResolved
	case domain.TicketStatusClosed:
		return stageClosed
	default:
		return stageOpen
	}
}

// PriorityFromCode accepts the numeric "0".."3" codes and the literal
// names, case-insensitively. Unrecognized values fall back to Medium;
// the second return flags the fallback.
func PriorityFromCode(code string) (domain.TicketPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "0", "low":
		return domain.TicketPriorityLow, true
	case "1", "medium":
		return domain.TicketPriorityMedium, true
	case "2", "high":
		return domain.TicketPriorityHigh, true
	case "3", "urgent":
		return domain.TicketPriorityUrgent, true
	default:
		return domain.TicketPriorityMedium, false
	}
}

// CodeFromPriority re-derives the numeric priority code for writes.
func CodeFromPriority(priority domain.TicketPriority) string {
	switch priority {
	case domain.TicketPriorityLow:
		return "0"
	case domain.TicketPriorityHigh:
		return "2"
	case domain.TicketPriorityUrgent:
		return "3"
	default:
		return "1"
	}
}

// CommentTypeFromMessage classifies a legacy message row.
func CommentTypeFromMessage(messageType string, subtypeID *int64) domain.CommentType {
	if strings.EqualFold(messageType, "notification") {
		return domain.CommentTypeSystem
	}
	if subtypeID != nil {
		if _, ok := internalSubtypes[*subtypeID]; ok {
			return domain.CommentTypeInternal
		}
	}
	return domain.CommentTypePublic
}

// MessageTypeFromComment re-derives the (message_type, subtype_id) pair
// for writes into the legacy message table.
func MessageTypeFromComment(commentType domain.CommentType) (string, *int64) {
	switch commentType {
	case domain.CommentTypeSystem:
		return "notification", nil
	case domain.CommentTypeInternal:
		subtype := int64(2)
		return "comment", &subtype
	default:
		return "comment", nil
	}
}

// TicketFromRow converts a legacy row into a ticket entity. Fallbacks
// on unknown stage or priority codes are reported as warnings rather
// than rejected; existing malformed rows must stay readable.
func TicketFromRow(row TicketRow) (*domain.Ticket, []string) {
	var warnings []string
	status, known := StatusFromStage(row.StageID)
	if !known {
		warnings = append(warnings, fmt.Sprintf("ticket %s: unknown stage code %d, defaulting to %s", row.Number, row.StageID, status))
	}
	priority, known := PriorityFromCode(row.Priority)
	if !known {
		warnings = append(warnings, fmt.Sprintf("ticket %s: unknown priority %q, defaulting to %s", row.Number, row.Priority, priority))
	}

	ticket := &domain.Ticket{
		Number:        row.Number,
		Title:         StripMarkup(row.Name),
		Description:   StripMarkup(row.Description),
		Status:        status,
		Priority:      priority,
		CreatorEmail:  row.PartnerEmail,
		AssigneeEmail: row.AssigneeEmail,
		CreatedAt:     row.CreateDate,
		UpdatedAt:     row.WriteDate,
	}
	if status == domain.TicketStatusResolved {
		resolved := row.WriteDate
		ticket.ResolvedAt = &resolved
	}
	return ticket, warnings
}

// RowFromTicket re-encodes an entity for a legacy write. The internal
// numeric id and team routing are supplied by the caller since they are
// addressing concerns, not entity state.
func RowFromTicket(ticket *domain.Ticket, id, teamID int64) TicketRow {
	return TicketRow{
		ID:            id,
		Number:        ticket.Number,
		Name:          ticket.Title,
		Description:   WrapMarkup(ticket.Description),
		StageID:       StageFromStatus(ticket.Status),
		Priority:      CodeFromPriority(ticket.Priority),
		PartnerEmail:  ticket.CreatorEmail,
		AssigneeEmail: ticket.AssigneeEmail,
		TeamID:        teamID,
		CreateDate:    ticket.CreatedAt,
		WriteDate:     ticket.UpdatedAt,
	}
}

// CommentFromMessage converts a legacy message row into a comment.
func CommentFromMessage(row MessageRow, ticketNumber string) *domain.Comment {
	return &domain.Comment{
		ID:           row.ID,
		TicketNumber: ticketNumber,
		Content:      StripMarkup(row.Body),
		AuthorEmail:  row.EmailFrom,
		Type:         CommentTypeFromMessage(row.MessageType, row.SubtypeID),
		CreatedAt:    row.CreateDate,
	}
}

// MessageFromComment re-encodes a comment for the legacy message table.
func MessageFromComment(comment *domain.Comment, resID int64) MessageRow {
	messageType, subtypeID := MessageTypeFromComment(comment.Type)
	return MessageRow{
		ID:          comment.ID,
		Model:       TicketModel,
		ResID:       resID,
		Body:        WrapMarkup(comment.Content),
		MessageType: messageType,
		SubtypeID:   subtypeID,
		EmailFrom:   comment.AuthorEmail,
		CreateDate:  comment.CreatedAt,
	}
}
