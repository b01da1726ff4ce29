package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/numbering"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketService coordinates ticket workflows above the dual-schema
// repositories. Lookup misses from the repository become explicit
// NotFound errors at this boundary.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	registry   *destination.Registry
	generator  *numbering.Generator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Registry    *destination.Registry
	Generator   *numbering.Generator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes a ticket creation request.
type TicketCreateInput struct {
	Destination string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// EscalationAdvice flags SLA state for a ticket.
type EscalationAdvice struct {
	Overdue           bool
	EscalationAdvised bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		registry:   deps.Registry,
		generator:  deps.Generator,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket routes a new ticket to its destination table with a
// collision-checked number. A unique violation on insert gets exactly
// one retry with a freshly generated number.
func (s *TicketService) CreateTicket(ctx context.Context, creatorEmail string, input TicketCreateInput) (*domain.Ticket, error) {
	if _, err := s.requireUser(ctx, creatorEmail); err != nil {
		return nil, err
	}
	dest, err := s.registry.Get(input.Destination)
	if err != nil {
		return nil, err
	}

	ticket, err := s.createWithFreshNumber(ctx, creatorEmail, input, dest)
	if err != nil {
		return nil, err
	}

	system := domain.NewSystemComment(ticket.Number,
		fmt.Sprintf("Ticket created and routed to %s", dest.Name))
	if err := s.comments.Create(ctx, system); err != nil {
		s.logger.Warn("could not record creation comment",
			zap.String("ticket", ticket.Number), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.Number,
		ActorEmail:   creatorEmail,
		Payload: events.TicketCreatedPayload{
			Destination: dest.Name,
			Priority:    ticket.Priority,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

func (s *TicketService) createWithFreshNumber(ctx context.Context, creatorEmail string, input TicketCreateInput, dest destination.Destination) (*domain.Ticket, error) {
	number, err := s.generator.Generate(ctx, dest)
	if err != nil {
		return nil, err
	}
	ticket, err := domain.NewTicket(number, input.Title, input.Description, creatorEmail, input.Priority)
	if err != nil {
		return nil, err
	}

	err = s.tickets.Create(ctx, ticket, dest)
	if err == nil {
		return ticket, nil
	}
	if !apperrors.IsCode(err, "CONFLICT") {
		return nil, err
	}

	// Two creations raced past the existence check. The storage
	// uniqueness constraint caught it; draw once more and retry.
	number, genErr := s.generator.Generate(ctx, dest)
	if genErr != nil {
		return nil, genErr
	}
	ticket.Number = number
	if err := s.tickets.Create(ctx, ticket, dest); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetTicket returns a ticket with its SLA advice, enforcing access.
func (s *TicketService) GetTicket(ctx context.Context, userEmail, number string) (*domain.Ticket, EscalationAdvice, error) {
	user, err := s.requireUser(ctx, userEmail)
	if err != nil {
		return nil, EscalationAdvice{}, err
	}
	ticket, err := s.requireTicket(ctx, number)
	if err != nil {
		return nil, EscalationAdvice{}, err
	}
	if !domain.CanAccess(user, ticket) && !user.Role.IsStaff() {
		return nil, EscalationAdvice{}, apperrors.NewPermissionDenied("no access to ticket")
	}
	now := time.Now().UTC()
	advice := EscalationAdvice{
		Overdue:           domain.IsOverdue(ticket, now),
		EscalationAdvised: domain.ShouldEscalate(ticket, now),
	}
	return ticket, advice, nil
}

// ListRecent returns the user's most recently touched tickets.
func (s *TicketService) ListRecent(ctx context.Context, userEmail string, limit int) ([]domain.Ticket, error) {
	if _, err := s.requireUser(ctx, userEmail); err != nil {
		return nil, err
	}
	return s.tickets.ListRecentByUser(ctx, userEmail, limit)
}

// Search is a staff operation across all tickets.
func (s *TicketService) Search(ctx context.Context, userEmail, term string, limit int) ([]domain.Ticket, error) {
	user, err := s.requireUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("search requires a staff role")
	}
	return s.tickets.Search(ctx, term, limit)
}

// ChangeStatus applies a status transition through the rules table.
func (s *TicketService) ChangeStatus(ctx context.Context, actorEmail, number string, next domain.TicketStatus) (*domain.Ticket, error) {
	user, err := s.requireUser(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	ticket, err := s.requireTicket(ctx, number)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(user, ticket) && !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("no access to ticket")
	}
	if err := domain.CheckTransition(user, ticket.Status, next); err != nil {
		return nil, err
	}

	old := ticket.Status
	ticket.SetStatus(next, time.Now().UTC())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	system := domain.NewSystemComment(ticket.Number,
		fmt.Sprintf("Status changed from %s to %s by %s", old, next, actorEmail))
	if err := s.comments.Create(ctx, system); err != nil {
		s.logger.Warn("could not record status comment",
			zap.String("ticket", ticket.Number), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketStatusChanged,
		TicketNumber: ticket.Number,
		ActorEmail:   actorEmail,
		Payload:      events.TicketStatusChangedPayload{OldStatus: old, NewStatus: next},
	})
	return ticket, nil
}

// ChangePriority is a staff operation.
func (s *TicketService) ChangePriority(ctx context.Context, actorEmail, number string, priority domain.TicketPriority) (*domain.Ticket, error) {
	user, err := s.requireUser(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("changing priority requires a staff role")
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}
	ticket, err := s.requireTicket(ctx, number)
	if err != nil {
		return nil, err
	}
	ticket.Priority = priority
	ticket.Touch(time.Now().UTC())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Assign sets the ticket assignee. Staff only.
func (s *TicketService) Assign(ctx context.Context, actorEmail, number, assigneeEmail string) (*domain.Ticket, error) {
	user, err := s.requireUser(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("assignment requires a staff role")
	}
	assignee, err := s.users.GetByEmail(ctx, assigneeEmail)
	if err != nil {
		return nil, err
	}
	if assignee == nil || !assignee.Role.IsStaff() {
		return nil, apperrors.NewValidationError("assignee must be an active staff member",
			map[string]any{"assignee": assigneeEmail})
	}
	ticket, err := s.requireTicket(ctx, number)
	if err != nil {
		return nil, err
	}
	ticket.AssigneeEmail = &assignee.Email
	ticket.Touch(time.Now().UTC())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketAssigned,
		TicketNumber: ticket.Number,
		ActorEmail:   actorEmail,
		Payload:      events.TicketAssignedPayload{AssigneeEmail: assignee.Email},
	})
	return ticket, nil
}

// DeleteTicket is the administrative escape hatch. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, actorEmail, number string) error {
	user, err := s.requireUser(ctx, actorEmail)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAdmin {
		return apperrors.NewPermissionDenied("only admins may delete tickets")
	}
	return s.tickets.Delete(ctx, number)
}

// CountByStatus is a staff reporting operation.
func (s *TicketService) CountByStatus(ctx context.Context, userEmail string) (map[domain.TicketStatus]int64, error) {
	user, err := s.requireUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("reporting requires a staff role")
	}
	return s.tickets.CountByStatus(ctx)
}

func (s *TicketService) requireUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if !user.IsActive {
		return nil, apperrors.NewPermissionDenied("account is deactivated")
	}
	return user, nil
}

func (s *TicketService) requireTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
