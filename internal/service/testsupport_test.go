package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// In-memory repository fakes mirroring the persistence contracts:
// lookup misses return (nil, nil), duplicate keys return CONFLICT.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return apperrors.NewConflict("user already registered", nil)
	}
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; !ok {
		return apperrors.NewNotFound("user", nil)
	}
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[email], nil
}

func (r *memUserRepo) GetByChatUserID(_ context.Context, chatUserID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ChatUserID != nil && *u.ChatUserID == chatUserID {
			return u, nil
		}
	}
	return nil, nil
}

type memTicketRepo struct {
	mu          sync.Mutex
	tickets     map[string]*domain.Ticket
	createCalls int
	failCreates int // first N creates fail with CONFLICT
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *memTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[number]
	if !ok {
		return nil, nil
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) ListRecentByUser(_ context.Context, email string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.CreatorEmail == email || (t.AssigneeEmail != nil && *t.AssigneeEmail == email) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memTicketRepo) Search(_ context.Context, term string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term = strings.ToLower(term)
	var result []domain.Ticket
	for _, t := range r.tickets {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) ||
			strings.Contains(strings.ToLower(t.Number), term) {
			result = append(result, *t)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket, _ destination.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreates > 0 {
		r.failCreates--
		return apperrors.NewConflict("ticket number already exists", nil)
	}
	if _, ok := r.tickets[ticket.Number]; ok {
		return apperrors.NewConflict("ticket number already exists", nil)
	}
	copied := *ticket
	r.tickets[ticket.Number] = &copied
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.Number]; !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	copied := *ticket
	r.tickets[ticket.Number] = &copied
	return nil
}

func (r *memTicketRepo) Delete(_ context.Context, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[number]; !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	delete(r.tickets, number)
	return nil
}

func (r *memTicketRepo) CountByStatus(context.Context) (map[domain.TicketStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TicketStatus]int64)
	for _, t := range r.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *memTicketRepo) ListCompletedSince(_ context.Context, since time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.Terminal() && t.UpdatedAt.After(since) {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *memTicketRepo) NumberExists(_ context.Context, _ destination.Destination, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tickets[number]
	return ok, nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
	nextID   int64
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{nextID: 1}
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) Update(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.comments {
		if r.comments[i].ID == comment.ID {
			r.comments[i] = *comment
			return nil
		}
	}
	return apperrors.NewNotFound("comment", nil)
}

func (r *memCommentRepo) GetByID(_ context.Context, ticketNumber string, id int64) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.comments {
		if r.comments[i].ID == id && r.comments[i].TicketNumber == ticketNumber {
			copied := r.comments[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketNumber string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for i := range r.comments {
		if r.comments[i].TicketNumber == ticketNumber {
			result = append(result, r.comments[i])
		}
	}
	return result, nil
}

// recordingDispatcher captures every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func mustUser(email string, role domain.UserRole) *domain.User {
	user, err := domain.NewUser(email, "Test Person", role)
	if err != nil {
		panic(err)
	}
	return user
}

func nopLogger() *zap.Logger { return zap.NewNop() }
