package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketRepository encapsulates ticket persistence across both physical
// schema generations. Lookup misses return (nil, nil); only real query
// failures surface as errors.
type TicketRepository interface {
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListRecentByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket, dest destination.Destination) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, number string) error
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error)
	NumberExists(ctx context.Context, dest destination.Destination, number string) (bool, error)
}

// ticketStore is one schema strategy. Both implementations are
// stateless; the dual repository picks one per operation entry based on
// the memoized schema mode.
type ticketStore interface {
	getByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	listRecentByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error)
	search(ctx context.Context, term string, limit int) ([]domain.Ticket, error)
	create(ctx context.Context, ticket *domain.Ticket, dest destination.Destination) error
	update(ctx context.Context, ticket *domain.Ticket) error
	delete(ctx context.Context, number string) error
	countByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error)
	listCompletedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error)
	numberExists(ctx context.Context, dest destination.Destination, number string) (bool, error)
}

type dualSchemaTicketRepository struct {
	detector *SchemaDetector
	clean    ticketStore
	legacy   ticketStore
}

// NewTicketRepository builds the schema-dispatching ticket repository.
func NewTicketRepository(pool *pgxpool.Pool, detector *SchemaDetector, registry *destination.Registry, logger *zap.Logger) TicketRepository {
	return &dualSchemaTicketRepository{
		detector: detector,
		clean:    &ticketCleanStore{pool: pool},
		legacy:   &ticketLegacyStore{pool: pool, registry: registry, logger: logger},
	}
}

func (r *dualSchemaTicketRepository) store(ctx context.Context) (ticketStore, error) {
	mode, err := r.detector.Mode(ctx)
	if err != nil {
		return nil, err
	}
	if mode == SchemaModeLegacy {
		return r.legacy, nil
	}
	return r.clean, nil
}

func (r *dualSchemaTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.getByNumber(ctx, number)
}

func (r *dualSchemaTicketRepository) ListRecentByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.listRecentByUser(ctx, email, normalizeLimit(limit))
}

func (r *dualSchemaTicketRepository) Search(ctx context.Context, term string, limit int) ([]domain.Ticket, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.search(ctx, term, normalizeLimit(limit))
}

func (r *dualSchemaTicketRepository) Create(ctx context.Context, ticket *domain.Ticket, dest destination.Destination) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error { return store.create(ctx, ticket, dest) })
}

func (r *dualSchemaTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error { return store.update(ctx, ticket) })
}

func (r *dualSchemaTicketRepository) Delete(ctx context.Context, number string) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	return store.delete(ctx, number)
}

func (r *dualSchemaTicketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.countByStatus(ctx)
}

func (r *dualSchemaTicketRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.listCompletedSince(ctx, since)
}

func (r *dualSchemaTicketRepository) NumberExists(ctx context.Context, dest destination.Destination, number string) (bool, error) {
	store, err := r.store(ctx)
	if err != nil {
		return false, err
	}
	return store.numberExists(ctx, dest, number)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
