package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/legacy"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const legacyTicketColumns = `id, number, name, description, stage_id, priority, partner_email,
               user_email, team_id, create_date, write_date`

// ticketLegacyStore implements the strategy against the per-destination
// ERP tables. Every write first resolves the human ticket number to the
// table's internal numeric id; the rest of the mapping stays
// addressing-scheme-agnostic.
type ticketLegacyStore struct {
	pool     *pgxpool.Pool
	registry *destination.Registry
	logger   *zap.Logger
}

func (s *ticketLegacyStore) tableFor(number string) (destination.Destination, error) {
	return s.registry.ByPrefix(number)
}

func (s *ticketLegacyStore) getByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	dest, err := s.tableFor(number)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE number=$1`, legacyTicketColumns, dest.PhysicalTable)
	row, err := s.fetchRow(ctx, query, number)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.mapRow(*row), nil
}

func (s *ticketLegacyStore) fetchRow(ctx context.Context, query string, args ...any) (*legacy.TicketRow, error) {
	var row legacy.TicketRow
	if err := s.pool.QueryRow(ctx, query, args...).Scan(
		&row.ID,
		&row.Number,
		&row.Name,
		&row.Description,
		&row.StageID,
		&row.Priority,
		&row.PartnerEmail,
		&row.AssigneeEmail,
		&row.TeamID,
		&row.CreateDate,
		&row.WriteDate,
	); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *ticketLegacyStore) mapRow(row legacy.TicketRow) *domain.Ticket {
	ticket, warnings := legacy.TicketFromRow(row)
	for _, warning := range warnings {
		s.logger.Warn("legacy row mapping fallback", zap.String("warning", warning))
	}
	return ticket
}

// resolveInternalID translates a ticket number into the legacy table's
// numeric primary key. Returns 0 with no error on a lookup miss.
func (s *ticketLegacyStore) resolveInternalID(ctx context.Context, dest destination.Destination, number string) (int64, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE number=$1`, dest.PhysicalTable)
	var id int64
	err := s.pool.QueryRow(ctx, query, number).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *ticketLegacyStore) listRecentByUser(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for _, dest := range s.registry.All() {
		query := fmt.Sprintf(`
            SELECT %s FROM %s
            WHERE partner_email=$1 OR user_email=$1
            ORDER BY write_date DESC LIMIT $2`, legacyTicketColumns, dest.PhysicalTable)
		tickets, err := s.queryTickets(ctx, query, email, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, tickets...)
	}
	sortByUpdatedDesc(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *ticketLegacyStore) search(ctx context.Context, term string, limit int) ([]domain.Ticket, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var all []domain.Ticket
	for _, dest := range s.registry.All() {
		query := fmt.Sprintf(`
            SELECT %s FROM %s
            WHERE LOWER(name) LIKE $1 OR LOWER(description) LIKE $1 OR number=$2
            ORDER BY write_date DESC LIMIT $3`, legacyTicketColumns, dest.PhysicalTable)
		tickets, err := s.queryTickets(ctx, query, pattern, strings.TrimSpace(term), limit)
		if err != nil {
			return nil, err
		}
		all = append(all, tickets...)
	}
	sortByUpdatedDesc(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *ticketLegacyStore) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var row legacy.TicketRow
		if err := rows.Scan(
			&row.ID,
			&row.Number,
			&row.Name,
			&row.Description,
			&row.StageID,
			&row.Priority,
			&row.PartnerEmail,
			&row.AssigneeEmail,
			&row.TeamID,
			&row.CreateDate,
			&row.WriteDate,
		); err != nil {
			return nil, err
		}
		result = append(result, *s.mapRow(row))
	}
	return result, rows.Err()
}

func (s *ticketLegacyStore) create(ctx context.Context, ticket *domain.Ticket, dest destination.Destination) error {
	row := legacy.RowFromTicket(ticket, 0, dest.DefaultTeamID)
	query := fmt.Sprintf(`
        INSERT INTO %s (number, name, description, stage_id, priority, partner_email, user_email, team_id, create_date, write_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, dest.PhysicalTable)
	_, err := s.pool.Exec(ctx, query,
		row.Number,
		row.Name,
		row.Description,
		row.StageID,
		row.Priority,
		row.PartnerEmail,
		row.AssigneeEmail,
		row.TeamID,
		row.CreateDate,
		row.WriteDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("ticket number already taken", map[string]any{"number": ticket.Number})
		}
		return apperrors.NewPersistenceError("create ticket", ticket.Number, err)
	}
	return nil
}

func (s *ticketLegacyStore) update(ctx context.Context, ticket *domain.Ticket) error {
	dest, err := s.tableFor(ticket.Number)
	if err != nil {
		return err
	}
	id, err := s.resolveInternalID(ctx, dest, ticket.Number)
	if err != nil {
		return apperrors.NewPersistenceError("update ticket", ticket.Number, err)
	}
	if id == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"number": ticket.Number})
	}

	row := legacy.RowFromTicket(ticket, id, dest.DefaultTeamID)
	query := fmt.Sprintf(`
        UPDATE %s SET name=$1, description=$2, stage_id=$3, priority=$4, user_email=$5, write_date=$6
        WHERE id=$7`, dest.PhysicalTable)
	if _, err := s.pool.Exec(ctx, query,
		row.Name,
		row.Description,
		row.StageID,
		row.Priority,
		row.AssigneeEmail,
		row.WriteDate,
		row.ID,
	); err != nil {
		return apperrors.NewPersistenceError("update ticket", ticket.Number, err)
	}
	return nil
}

func (s *ticketLegacyStore) delete(ctx context.Context, number string) error {
	dest, err := s.tableFor(number)
	if err != nil {
		return err
	}
	id, err := s.resolveInternalID(ctx, dest, number)
	if err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	if id == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"number": number})
	}

	// Message rows and the ticket row must go together.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM mail_message WHERE model=$1 AND res_id=$2`, legacy.TicketModel, id); err != nil {
		return apperrors.NewPersistenceError("delete ticket messages", number, err)
	}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, dest.PhysicalTable), id); err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistenceError("delete ticket", number, err)
	}
	return nil
}

func (s *ticketLegacyStore) countByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	counts := make(map[domain.TicketStatus]int64)
	for _, dest := range s.registry.All() {
		query := fmt.Sprintf(`SELECT stage_id, COUNT(*) FROM %s GROUP BY stage_id`, dest.PhysicalTable)
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var stageID int64
			var count int64
			if err := rows.Scan(&stageID, &count); err != nil {
				rows.Close()
				return nil, err
			}
			status, _ := legacy.StatusFromStage(stageID)
			counts[status] += count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return counts, nil
}

func (s *ticketLegacyStore) listCompletedSince(ctx context.Context, since time.Time) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for _, dest := range s.registry.All() {
		query := fmt.Sprintf(`
            SELECT %s FROM %s
            WHERE stage_id IN (3,4) AND write_date > $1
            ORDER BY write_date ASC`, legacyTicketColumns, dest.PhysicalTable)
		tickets, err := s.queryTickets(ctx, query, since)
		if err != nil {
			return nil, err
		}
		all = append(all, tickets...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.Before(all[j].UpdatedAt) })
	return all, nil
}

func (s *ticketLegacyStore) numberExists(ctx context.Context, dest destination.Destination, number string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE number=$1)`, dest.PhysicalTable)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func sortByUpdatedDesc(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt) })
}
