package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/numbering"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

type commentFixture struct {
	tickets    *TicketService
	comments   *CommentService
	ticketRepo *memTicketRepo
	dispatcher *recordingDispatcher
}

func newCommentFixture(users ...*domain.User) *commentFixture {
	ticketRepo := newMemTicketRepo()
	commentRepo := newMemCommentRepo()
	userRepo := newMemUserRepo(users...)
	dispatcher := &recordingDispatcher{}

	ticketService := NewTicketService(TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		Registry:    destination.Defaults(),
		Generator:   numbering.NewGenerator(ticketRepo.NumberExists),
		Dispatcher:  dispatcher,
		Logger:      nopLogger(),
	})
	commentService := NewCommentService(CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Logger:      nopLogger(),
	})
	return &commentFixture{
		tickets:    ticketService,
		comments:   commentService,
		ticketRepo: ticketRepo,
		dispatcher: dispatcher,
	}
}

func (fx *commentFixture) createTicket(t *testing.T, creator string) *domain.Ticket {
	t.Helper()
	ticket, err := fx.tickets.CreateTicket(context.Background(), creator, TicketCreateInput{
		Destination: "Thailand",
		Title:       "Laptop will not boot",
	})
	if err != nil {
		t.Fatal(err)
	}
	return ticket
}

func TestAddCommentVisibilityAcrossRoles(t *testing.T) {
	fx := newCommentFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("agent@example.com", domain.RoleAgent),
	)
	ctx := context.Background()
	ticket := fx.createTicket(t, "alice@example.com")

	// End users cannot author internal notes.
	_, err := fx.comments.AddComment(ctx, "alice@example.com", ticket.Number, "please look at this soon", domain.CommentTypeInternal)
	if !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("end user authoring internal note must be denied, got %v", err)
	}

	// Agents can.
	if _, err := fx.comments.AddComment(ctx, "agent@example.com", ticket.Number, "customer has history of spills", domain.CommentTypeInternal); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.comments.AddComment(ctx, "alice@example.com", ticket.Number, "any update on this?", domain.CommentTypePublic); err != nil {
		t.Fatal(err)
	}

	// The creator sees the system comment and their reply, not the note.
	visible, err := fx.comments.ListVisible(ctx, "alice@example.com", ticket.Number)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range visible {
		if c.Type == domain.CommentTypeInternal {
			t.Fatal("internal note leaked to the ticket creator")
		}
	}
	if len(visible) != 2 {
		t.Errorf("creator should see 2 comments, got %d", len(visible))
	}

	// The unassigned agent sees the system comment and the internal
	// note; public replies stay between the thread participants.
	visible, err = fx.comments.ListVisible(ctx, "agent@example.com", ticket.Number)
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 2 {
		t.Errorf("unassigned agent should see 2 comments, got %d", len(visible))
	}

	// Once assigned, the agent has ticket access and sees the thread.
	if _, err := fx.tickets.Assign(ctx, "agent@example.com", ticket.Number, "agent@example.com"); err != nil {
		t.Fatal(err)
	}
	visible, err = fx.comments.ListVisible(ctx, "agent@example.com", ticket.Number)
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 3 {
		t.Errorf("assigned agent should see 3 comments, got %d", len(visible))
	}
}

func TestAddCommentBumpsTicketActivity(t *testing.T) {
	fx := newCommentFixture(mustUser("alice@example.com", domain.RoleUser))
	ctx := context.Background()
	ticket := fx.createTicket(t, "alice@example.com")

	before, _ := fx.ticketRepo.GetByNumber(ctx, ticket.Number)
	time.Sleep(5 * time.Millisecond)

	if _, err := fx.comments.AddComment(ctx, "alice@example.com", ticket.Number, "forgot to mention the beeping", domain.CommentTypePublic); err != nil {
		t.Fatal(err)
	}

	after, _ := fx.ticketRepo.GetByNumber(ctx, ticket.Number)
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("a new comment must bump the ticket's activity timestamp")
	}

	added := fx.dispatcher.byType(events.EventCommentAdded)
	if len(added) != 1 {
		t.Fatalf("expected one comment event, got %d", len(added))
	}
}

func TestAddCommentValidatesContent(t *testing.T) {
	fx := newCommentFixture(mustUser("alice@example.com", domain.RoleUser))
	ticket := fx.createTicket(t, "alice@example.com")

	_, err := fx.comments.AddComment(context.Background(), "alice@example.com", ticket.Number, "hm", domain.CommentTypePublic)
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("short comment must be rejected, got %v", err)
	}
}

func TestEditCommentRules(t *testing.T) {
	fx := newCommentFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("bob@example.com", domain.RoleAgent),
		mustUser("root@example.com", domain.RoleAdmin),
	)
	ctx := context.Background()
	ticket := fx.createTicket(t, "alice@example.com")

	comment, err := fx.comments.AddComment(ctx, "alice@example.com", ticket.Number, "originl text with typo", domain.CommentTypePublic)
	if err != nil {
		t.Fatal(err)
	}

	// Author edits within the window.
	edited, err := fx.comments.EditComment(ctx, "alice@example.com", ticket.Number, comment.ID, "original text without typo")
	if err != nil {
		t.Fatal(err)
	}
	if !edited.IsEdited {
		t.Error("edit must set the edited flag")
	}

	// Another user cannot edit.
	if _, err := fx.comments.EditComment(ctx, "bob@example.com", ticket.Number, comment.ID, "rewriting history"); !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("non-author edit must be denied, got %v", err)
	}

	// Admins can.
	if _, err := fx.comments.EditComment(ctx, "root@example.com", ticket.Number, comment.ID, "moderated content"); err != nil {
		t.Fatal(err)
	}

	// Missing comments are NotFound.
	if _, err := fx.comments.EditComment(ctx, "alice@example.com", ticket.Number, 9999, "does not matter"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("missing comment must be NOT_FOUND, got %v", err)
	}
}

func TestListVisibleRequiresTicketAccess(t *testing.T) {
	fx := newCommentFixture(
		mustUser("alice@example.com", domain.RoleUser),
		mustUser("eve@example.com", domain.RoleUser),
	)
	ticket := fx.createTicket(t, "alice@example.com")

	_, err := fx.comments.ListVisible(context.Background(), "eve@example.com", ticket.Number)
	if !apperrors.IsCode(err, "PERMISSION_DENIED") {
		t.Fatalf("strangers must not read the thread, got %v", err)
	}
}
