package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/legacy"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// commentLegacyStore implements the strategy against the shared legacy
// message table. Rows are keyed by (model, res_id), so every operation
// first resolves the ticket number to the destination table's internal
// id.
type commentLegacyStore struct {
	pool     *pgxpool.Pool
	registry *destination.Registry
	logger   *zap.Logger
}

func (s *commentLegacyStore) resolveTicketID(ctx context.Context, ticketNumber string) (int64, error) {
	dest, err := s.registry.ByPrefix(ticketNumber)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE number=$1`, dest.PhysicalTable)
	var id int64
	err = s.pool.QueryRow(ctx, query, ticketNumber).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *commentLegacyStore) create(ctx context.Context, comment *domain.Comment) error {
	ticketID, err := s.resolveTicketID(ctx, comment.TicketNumber)
	if err != nil {
		return apperrors.NewPersistenceError("create comment", comment.TicketNumber, err)
	}
	if ticketID == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"number": comment.TicketNumber})
	}

	row := legacy.MessageFromComment(comment, ticketID)
	const query = `
        INSERT INTO mail_message (model, res_id, body, message_type, subtype_id, email_from, create_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	if err := s.pool.QueryRow(ctx, query,
		row.Model,
		row.ResID,
		row.Body,
		row.MessageType,
		row.SubtypeID,
		row.EmailFrom,
		row.CreateDate,
	).Scan(&comment.ID); err != nil {
		return apperrors.NewPersistenceError("create comment", comment.TicketNumber, err)
	}
	return nil
}

func (s *commentLegacyStore) update(ctx context.Context, comment *domain.Comment) error {
	// The legacy table has no edit metadata; edits rewrite the body.
	const query = `UPDATE mail_message SET body=$1 WHERE id=$2 AND model=$3`
	cmd, err := s.pool.Exec(ctx, query, legacy.WrapMarkup(comment.Content), comment.ID, legacy.TicketModel)
	if err != nil {
		return apperrors.NewPersistenceError("update comment", fmt.Sprintf("%s/%d", comment.TicketNumber, comment.ID), err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("comment", map[string]any{"id": comment.ID})
	}
	return nil
}

func (s *commentLegacyStore) getByID(ctx context.Context, ticketNumber string, id int64) (*domain.Comment, error) {
	ticketID, err := s.resolveTicketID(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticketID == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, model, res_id, body, message_type, subtype_id, email_from, create_date
        FROM mail_message WHERE id=$1 AND model=$2 AND res_id=$3`
	var row legacy.MessageRow
	err = s.pool.QueryRow(ctx, query, id, legacy.TicketModel, ticketID).Scan(
		&row.ID,
		&row.Model,
		&row.ResID,
		&row.Body,
		&row.MessageType,
		&row.SubtypeID,
		&row.EmailFrom,
		&row.CreateDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return legacy.CommentFromMessage(row, ticketNumber), nil
}

func (s *commentLegacyStore) listByTicket(ctx context.Context, ticketNumber string) ([]domain.Comment, error) {
	ticketID, err := s.resolveTicketID(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticketID == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, model, res_id, body, message_type, subtype_id, email_from, create_date
        FROM mail_message WHERE model=$1 AND res_id=$2 ORDER BY create_date ASC`
	rows, err := s.pool.Query(ctx, query, legacy.TicketModel, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var row legacy.MessageRow
		if err := rows.Scan(
			&row.ID,
			&row.Model,
			&row.ResID,
			&row.Body,
			&row.MessageType,
			&row.SubtypeID,
			&row.EmailFrom,
			&row.CreateDate,
		); err != nil {
			return nil, err
		}
		result = append(result, *legacy.CommentFromMessage(row, ticketNumber))
	}
	return result, rows.Err()
}
