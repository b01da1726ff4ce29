package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// CommentService coordinates the ticket discussion thread.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AddComment authors a comment on a ticket, enforcing the authoring
// matrix, and bumps the ticket's activity timestamp.
func (s *CommentService) AddComment(ctx context.Context, authorEmail, ticketNumber, content string, commentType domain.CommentType) (*domain.Comment, error) {
	user, err := s.requireUser(ctx, authorEmail)
	if err != nil {
		return nil, err
	}
	ticket, err := s.requireTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckCommentAuthoring(user, ticket, commentType); err != nil {
		return nil, err
	}

	comment, err := domain.NewComment(ticketNumber, authorEmail, content, commentType)
	if err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	ticket.Touch(time.Now().UTC())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Warn("could not bump ticket activity",
			zap.String("ticket", ticket.Number), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventCommentAdded,
		TicketNumber: ticketNumber,
		ActorEmail:   authorEmail,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			CommentType: comment.Type,
			AuthorEmail: authorEmail,
			BodyPreview: preview(comment.Content, 120),
		},
	})
	return comment, nil
}

// EditComment replaces a comment's content within the edit rules.
func (s *CommentService) EditComment(ctx context.Context, actorEmail, ticketNumber string, commentID int64, content string) (*domain.Comment, error) {
	user, err := s.requireUser(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, ticketNumber, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperrors.NewNotFound("comment", map[string]any{"id": commentID})
	}

	now := time.Now().UTC()
	if !comment.CanBeEditedBy(user, now) {
		return nil, apperrors.NewPermissionDenied("comment can no longer be edited by this account")
	}
	if err := comment.Edit(content, now); err != nil {
		return nil, err
	}
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListVisible returns the thread filtered by the visibility matrix.
func (s *CommentService) ListVisible(ctx context.Context, userEmail, ticketNumber string) ([]domain.Comment, error) {
	user, err := s.requireUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	ticket, err := s.requireTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(user, ticket) && !user.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("no access to ticket")
	}
	comments, err := s.comments.ListByTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	return domain.FilterVisibleComments(user, comments, ticket), nil
}

func (s *CommentService) requireUser(ctx context.Context, email string) (*domain.User, error) {
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

func (s *CommentService) requireTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
	}
	return ticket, nil
}

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
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

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
