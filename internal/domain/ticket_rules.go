package domain

import (
	"fmt"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// transitionGate says who may take a given status edge.
type transitionGate int

const (
	gateAnyAccessor transitionGate = iota
	gateStaff
	gatePrivileged
)

// allowedTransitions is the single source of truth for the status
// machine. Any edge missing here is rejected. From Resolved a non-staff
// accessor may only reopen; closing is a staff action. Closed can only
// be reopened to Open, never moved back to Resolved directly.
var allowedTransitions = map[TicketStatus]map[TicketStatus]transitionGate{
	TicketStatusOpen: {
		TicketStatusInProgress: gateStaff,
	},
	TicketStatusInProgress: {
		TicketStatusResolved: gateStaff,
	},
	TicketStatusResolved: {
		TicketStatusClosed: gateStaff,
		TicketStatusOpen:   gateAnyAccessor,
	},
	TicketStatusClosed: {
		TicketStatusOpen: gatePrivileged,
	},
}

// CanAccess reports whether the user may see or act on the ticket:
// creator, assignee, or a privileged role.
func CanAccess(user *User, ticket *Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.Email == ticket.CreatorEmail {
		return true
	}
	if ticket.AssigneeEmail != nil && user.Email == *ticket.AssigneeEmail {
		return true
	}
	return user.Role.IsPrivileged()
}

// CheckTransition validates a status edge for the given user. The caller
// is expected to have verified ticket access already.
func CheckTransition(user *User, from, to TicketStatus) error {
	if !to.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(to)})
	}
	gate, ok := allowedTransitions[from][to]
	if !ok {
		return apperrors.NewInvalidTransition(
			fmt.Sprintf("cannot move ticket from %s to %s", from, to),
			map[string]any{"from": string(from), "to": string(to)})
	}
	switch gate {
	case gateStaff:
		if !user.Role.IsStaff() {
			return apperrors.NewPermissionDenied(fmt.Sprintf("role %s may not move ticket to %s", user.Role, to))
		}
	case gatePrivileged:
		if !user.Role.IsPrivileged() {
			return apperrors.NewPermissionDenied("only admins and managers may reopen a closed ticket")
		}
	}
	return nil
}
