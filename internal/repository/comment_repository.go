package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CommentRepository encapsulates comment persistence across both
// physical schema generations. Lookup misses return (nil, nil).
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, ticketNumber string, id int64) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketNumber string) ([]domain.Comment, error)
}

type commentStore interface {
	create(ctx context.Context, comment *domain.Comment) error
	update(ctx context.Context, comment *domain.Comment) error
	getByID(ctx context.Context, ticketNumber string, id int64) (*domain.Comment, error)
	listByTicket(ctx context.Context, ticketNumber string) ([]domain.Comment, error)
}

type dualSchemaCommentRepository struct {
	detector *SchemaDetector
	clean    commentStore
	legacy   commentStore
}

// NewCommentRepository builds the schema-dispatching comment repository.
func NewCommentRepository(pool *pgxpool.Pool, detector *SchemaDetector, registry *destination.Registry, logger *zap.Logger) CommentRepository {
	return &dualSchemaCommentRepository{
		detector: detector,
		clean:    &commentCleanStore{pool: pool},
		legacy:   &commentLegacyStore{pool: pool, registry: registry, logger: logger},
	}
}

func (r *dualSchemaCommentRepository) store(ctx context.Context) (commentStore, error) {
	mode, err := r.detector.Mode(ctx)
	if err != nil {
		return nil, err
	}
	if mode == SchemaModeLegacy {
		return r.legacy, nil
	}
	return r.clean, nil
}

func (r *dualSchemaCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error { return store.create(ctx, comment) })
}

func (r *dualSchemaCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error { return store.update(ctx, comment) })
}

func (r *dualSchemaCommentRepository) GetByID(ctx context.Context, ticketNumber string, id int64) (*domain.Comment, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.getByID(ctx, ticketNumber, id)
}

func (r *dualSchemaCommentRepository) ListByTicket(ctx context.Context, ticketNumber string) ([]domain.Comment, error) {
	store, err := r.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.listByTicket(ctx, ticketNumber)
}
