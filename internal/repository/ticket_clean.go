package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const ticketColumns = `number, title, description, status, priority, creator_email, assignee_email,
               created_at, updated_at, resolved_at`

// ticketCleanStore implements the strategy against the normalized
// tickets table.
type ticketCleanStore struct {
	pool *pgxpool.Pool
}

func (s *ticketCleanStore) getByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE number=$1`
	ticket, err := s.fetchSingle(ctx, query, number)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ticket, err
}

func (s *ticketCleanStore) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := s.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.Number,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatorEmail,
		&ticket.AssigneeEmail,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *ticketCleanStore) listRecentByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE creator_email=$1 OR assignee_email=$1
        ORDER BY updated_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *ticketCleanStore) search(ctx context.Context, term string, limit int) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE LOWER(title) LIKE $1 OR LOWER(description) LIKE $1 OR number = $2
        ORDER BY updated_at DESC LIMIT $3`
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	rows, err := s.pool.Query(ctx, query, pattern, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *ticketCleanStore) create(ctx context.Context, ticket *domain.Ticket, _ destination.Destination) error {
	const query = `
        INSERT INTO tickets (number, title, description, status, priority, creator_email, assignee_email,
                             created_at, updated_at, resolved_at, last_activity_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$9)`
	_, err := s.pool.Exec(ctx, query,
		ticket.Number,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatorEmail,
		ticket.AssigneeEmail,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("ticket number already taken", map[string]any{"number": ticket.Number})
		}
		return apperrors.NewPersistenceError("create ticket", ticket.Number, err)
	}
	return nil
}

func (s *ticketCleanStore) update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, assignee_email=$5,
            updated_at=$6, resolved_at=$7, last_activity_at=$6
        WHERE number=$8`
	cmd, err := s.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeEmail,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.Number,
	)
	if err != nil {
		return apperrors.NewPersistenceError("update ticket", ticket.Number, err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"number": ticket.Number})
	}
	return nil
}

func (s *ticketCleanStore) delete(ctx context.Context, number string) error {
	// Comments go with the ticket; both statements share one
	// transaction so a partial delete never survives.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE ticket_number=$1`, number); err != nil {
		return apperrors.NewPersistenceError("delete ticket comments", number, err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE number=$1`, number)
	if err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"number": number})
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	return nil
}

func (s *ticketCleanStore) countByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM tickets GROUP BY status`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64)
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *ticketCleanStore) listCompletedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status IN ($1,$2) AND updated_at > $3
        ORDER BY updated_at ASC`
	rows, err := s.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *ticketCleanStore) numberExists(ctx context.Context, _ destination.Destination, number string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE number=$1)`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.Number,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatorEmail,
			&ticket.AssigneeEmail,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
