package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/numbering"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

type ticketFixture struct {
	service    *TicketService
	tickets    *memTicketRepo
	comments   *memCommentRepo
	users      *memUserRepo
	dispatcher *recordingDispatcher
}

func newTicketFixture(users ...*domain.User) *ticketFixture {
	tickets := newMemTicketRepo()
	comments := newMemCommentRepo()
	userRepo := newMemUserRepo(users...)
	dispatcher := &recordingDispatcher{}

	service := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		UserRepo:    userRepo,
		Registry:    destination.Defaults(),
		Generator:   numbering.NewGenerator(tickets.NumberExists),
		Dispatcher:  dispatcher,
		Logger:      nopLogger(),
	})
	return &ticketFixture{
		service:    service,
		tickets:    tickets,
		comments:   comments,
		users:      userRepo,
		dispatcher: dispatcher,
	}
}

func TestCreateTicketRoutesToThailand(t *testing.T) {
	fx := newTicketFixture(mustUser("alice@example.com", domain.RoleUser))
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Printer on fire",
		Description: "Please send water",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !regexp.MustCompile(`^TH\d{9}$`).MatchString(ticket.Number) {
		t.Errorf("number %q does not match TH + DDMMYY + 3 digits", ticket.Number)
	}
	wantDate := time.Now().Format("020106")
	if ticket.Number[2:8] != wantDate {
		t.Errorf("date part %q, want %q", ticket.Number[2:8], wantDate)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("new tickets start open, got %s", ticket.Status)
	}

	thread, _ := fx.comments.ListByTicket(ctx, ticket.Number)
	if len(thread) != 1 || thread[0].Type != domain.CommentTypeSystem {
		t.Error("creation must leave one system comment on the thread")
	}

	created := fx.dispatcher.byType(events.EventTicketCreated)
	if len(created) != 1 {
		t.Fatalf("expected one creation event, got %d", len(created))
	}
	payload, ok := created[0].Payload.(events.TicketCreatedPayload)
	if !ok || payload.Destination != "Thailand" {
		t.Errorf("event payload = %+v", created[0].Payload)
	}
}

func TestCreateTicketRejectsUnknownDestination(t *testing.T) {
	fx := newTicketFixture(mustUser("alice@example.com", domain.RoleUser))

	_, err := fx.service.CreateTicket(context.Background(), "alice@example.com", TicketCreateInput{
		Destination: "Atlantis",
		Title:       "Lost city",
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTicketRetriesOnceOnNumberConflict(t *testing.T) {
	fx := newTicketFixture(mustUser("alice@example.com", domain.RoleUser))
	fx.tickets.failCreates = 1

	ticket, err := fx.service.CreateTicket(context.Background(), "alice@example.com", TicketCreateInput{
		Destination: "Vietnam",
		Title:       "Keyboard stuck",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ticket == nil {
		t.Fatal("expected ticket after retry")
	}
	if fx.tickets.createCalls != 2 {
		t.Errorf("expected exactly 2 create attempts, got %d", fx.tickets.createCalls)
	}
}

func TestCreateTicketGivesUpAfterSecondConflict(t *testing.T) {
	fx := newTicketFixture(mustUser("alice@example.com", domain.RoleUser))
	fx.tickets.failCreates = 2

	_, err := fx.service.CreateTicket(context.Background(), "alice@example.com", TicketCreateInput{
		Destination: "Vietnam",
		Title:       "Keyboard stuck",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("second conflict must surface, got %v", err)
	}
	if fx.tickets.createCalls != 2 {
		t.Errorf("retry must be bounded to one, got %d attempts", fx.tickets.createCalls)
	}
}

func TestGetTicketEnforcesAccess(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("eve@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
	)
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Singapore",
		Title:       "Monitor flickers",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := fx.service.GetTicket(ctx, "alice@example.com", ticket.Number); err != nil {
		t.Errorf("creator must read own ticket: %v", err)
	}
	if _, _, err := fx.service.GetTicket(ctx, "agent@example.com", ticket.Number); err != nil {
		t.Errorf("staff must read any ticket: %v", err)
	}
	if _, _, err := fx.service.GetTicket(ctx, "eve@example.com", ticket.Number); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Errorf("stranger must be denied, got %v", err)
	}
	if _, _, err := fx.service.GetTicket(ctx, "alice@example.com", "TH000000000"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("missing ticket must be NOT_FOUND, got %v", err)
	}
}

func TestGetTicketReportsEscalationAdvice(t *testing.T) {
	fx := newTicketFixture(mustUser("alice@example.com", domain.RoleUser))
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Malaysia",
		Title:       "Server room too warm",
		Priority:    domain.TicketPriorityUrgent,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Age the ticket past the urgent SLA window.
	stored, _ := fx.tickets.GetByNumber(ctx, ticket.Number)
	stored.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := fx.tickets.Update(ctx, stored); err != nil {
		t.Fatal(err)
	}

	_, advice, err := fx.service.GetTicket(ctx, "alice@example.com", ticket.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !advice.Overdue || !advice.EscalationAdvised {
		t.Errorf("aged urgent ticket should advise escalation, got %+v", advice)
	}
}

func TestChangeStatusWorkflow(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
	)
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Cannot log in",
	})
	if err != nil {
		t.Fatal(err)
	}

	// End users may not start work on a ticket.
	if _, err := fx.service.ChangeStatus(ctx, "alice@example.com", ticket.Number, domain.TicketStatusInProgress); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end user starting work must be denied, got %v", err)
	}

	updated, err := fx.service.ChangeStatus(ctx, "agent@example.com", ticket.Number, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %s", updated.Status)
	}

	updated, err = fx.service.ChangeStatus(ctx, "agent@example.com", ticket.Number, domain.TicketStatusResolved)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ResolvedAt == nil {
		t.Error("resolution must stamp ResolvedAt")
	}

	// From Resolved the creator may only reopen; closing is staff work.
	if _, err := fx.service.ChangeStatus(ctx, "alice@example.com", ticket.Number, domain.TicketStatusClosed); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end user closing a resolved ticket must be denied, got %v", err)
	}

	updated, err = fx.service.ChangeStatus(ctx, "agent@example.com", ticket.Number, domain.TicketStatusClosed)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.TicketStatusClosed {
		t.Errorf("status = %s", updated.Status)
	}

	changes := fx.dispatcher.byType(events.EventTicketStatusChanged)
	if len(changes) != 3 {
		t.Errorf("expected 3 status events, got %d", len(changes))
	}

	thread, _ := fx.comments.ListByTicket(ctx, ticket.Number)
	systemCount := 0
	for _, c := range thread {
		if c.Type == domain.CommentTypeSystem {
			systemCount++
		}
	}
	// One from creation plus one per transition.
	if systemCount != 4 {
		t.Errorf("expected 4 system comments, got %d", systemCount)
	}
}

func TestChangeStatusRejectsIllegalEdge(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
	)
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Cannot log in",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fx.service.ChangeStatus(ctx, "agent@example.com", ticket.Number, domain.TicketStatusClosed); !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("open to closed must be an invalid transition, got %v", err)
	}
}

func TestAssignRequiresStaffAssignee(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
		mustUser("bob@example.com", domain.RoleUser),
	)
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Mouse missing",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fx.service.Assign(ctx, "agent@example.com", ticket.Number, "bob@example.com"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("assigning to an end user must fail, got %v", err)
	}
	if _, err := fx.service.Assign(ctx, "alice@example.com", ticket.Number, "agent@example.com"); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end users may not assign, got %v", err)
	}

	updated, err := fx.service.Assign(ctx, "agent@example.com", ticket.Number, "agent@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if updated.AssigneeEmail == nil || *updated.AssigneeEmail != "agent@example.com" {
		t.Error("assignee not recorded")
	}
	if len(fx.dispatcher.byType(events.EventTicketAssigned)) != 1 {
		t.Error("assignment must publish an event")
	}
}

func TestDeleteTicketIsAdminOnly(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
		mustUser("root@example.com", domain.RoleAdmin),
	)
	ctx := context.Background()

	ticket, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Spam ticket",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := fx.service.DeleteTicket(ctx, "agent@example.com", ticket.Number); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("agents may not delete, got %v", err)
	}
	if err := fx.service.DeleteTicket(ctx, "root@example.com", ticket.Number); err != nil {
		t.Fatal(err)
	}
	if got, _ := fx.tickets.GetByNumber(ctx, ticket.Number); got != nil {
		t.Error("ticket should be gone")
	}
}

func TestSearchAndStatsAreStaffOnly(t *testing.T) {
	fx := newTicketFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("boss@example.com", domain.RoleManager),
	)
	ctx := context.Background()

	if _, err := fx.service.CreateTicket(ctx, "alice@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "Printer jam",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := fx.service.Search(ctx, "alice@example.com", "printer", 10); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end users may not search, got %v", err)
	}
	results, err := fx.service.Search(ctx, "boss@example.com", "printer", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected one hit, got %d", len(results))
	}

	if _, err := fx.service.CountByStatus(ctx, "alice@example.com"); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end users may not read stats, got %v", err)
	}
	counts, err := fx.service.CountByStatus(ctx, "boss@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.TicketStatusOpen] != 1 {
		t.Errorf("open count = %d", counts[domain.TicketStatusOpen])
	}
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	ghost := mustUser("ghost@example.com", domain.RoleUser)
	ghost.IsActive = false
	fx := newTicketFixture(ghost)

	_, err := fx.service.CreateTicket(context.Background(), "ghost@example.com", TicketCreateInput{
		Destination: "Thailand",
		Title:       "From beyond",
	})
	if !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("deactivated accounts must be rejected, got %v", err)
	}
}
