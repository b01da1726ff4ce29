package domain

import "time"

// slaWindows is the maximum age before an unresolved ticket is overdue.
var slaWindows = map[TicketPriority]time.Duration{
	TicketPriorityUrgent: 24 * time.Hour,
	TicketPriorityHigh:   3 * 24 * time.Hour,
	TicketPriorityMedium: 7 * 24 * time.Hour,
	TicketPriorityLow:    14 * 24 * time.Hour,
}

// SLAWindow returns the window for a priority, defaulting to the
// Medium window for anything unknown.
func SLAWindow(priority TicketPriority) time.Duration {
	if window, ok := slaWindows[priority]; ok {
		return window
	}
	return slaWindows[TicketPriorityMedium]
}

// IsOverdue reports whether the ticket has outlived its SLA window
// without reaching a terminal state.
func IsOverdue(ticket *Ticket, now time.Time) bool {
	if ticket.Terminal() {
		return false
	}
	return now.Sub(ticket.CreatedAt) > SLAWindow(ticket.Priority)
}

// ShouldEscalate recommends escalation for overdue high-urgency
// tickets. The recommendation is advisory; nothing is auto-applied.
func ShouldEscalate(ticket *Ticket, now time.Time) bool {
	if ticket.Priority != TicketPriorityHigh && ticket.Priority != TicketPriorityUrgent {
		return false
	}
	return IsOverdue(ticket, now)
}
