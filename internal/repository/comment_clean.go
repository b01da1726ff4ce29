package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const commentColumns = `id, ticket_number, content, author_email, comment_type,
               created_at, updated_at, is_edited, parent_comment_id`

// commentCleanStore implements the strategy against the normalized
// comments table.
type commentCleanStore struct {
	pool *pgxpool.Pool
}

func (s *commentCleanStore) create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_number, content, author_email, comment_type, created_at, parent_comment_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	if err := s.pool.QueryRow(ctx, query,
		comment.TicketNumber,
		comment.Content,
		comment.AuthorEmail,
		comment.Type,
		comment.CreatedAt,
		comment.ParentCommentID,
	).Scan(&comment.ID); err != nil {
		return apperrors.NewPersistenceError("create comment", comment.TicketNumber, err)
	}
	return nil
}

func (s *commentCleanStore) update(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET content=$1, updated_at=$2, is_edited=$3
        WHERE id=$4`
	cmd, err := s.pool.Exec(ctx, query,
		comment.Content,
		comment.UpdatedAt,
		comment.IsEdited,
		comment.ID,
	)
	if err != nil {
		return apperrors.NewPersistenceError("update comment", fmt.Sprintf("%s/%d", comment.TicketNumber, comment.ID), err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("comment", map[string]any{"id": comment.ID})
	}
	return nil
}

func (s *commentCleanStore) getByID(ctx context.Context, ticketNumber string, id int64) (*domain.Comment, error) {
	const query = `
        SELECT ` + commentColumns + `
        FROM comments WHERE id=$1 AND ticket_number=$2`
	var comment domain.Comment
	err := s.pool.QueryRow(ctx, query, id, ticketNumber).Scan(
		&comment.ID,
		&comment.TicketNumber,
		&comment.Content,
		&comment.AuthorEmail,
		&comment.Type,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&comment.IsEdited,
		&comment.ParentCommentID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *commentCleanStore) listByTicket(ctx context.Context, ticketNumber string) ([]domain.Comment, error) {
	const query = `
        SELECT ` + commentColumns + `
        FROM comments WHERE ticket_number=$1 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query, ticketNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketNumber,
			&comment.Content,
			&comment.AuthorEmail,
			&comment.Type,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&comment.IsEdited,
			&comment.ParentCommentID,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
