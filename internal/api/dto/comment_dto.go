package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateCommentRequest is the chat front end's comment shape.
type CreateCommentRequest struct {
	Content     string             `json:"content"`
	CommentType domain.CommentType `json:"comment_type,omitempty"`
}

// EditCommentRequest payload.
type EditCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is the plain comment representation.
type CommentResponse struct {
	ID              int64              `json:"id"`
	TicketNumber    string             `json:"ticket_number"`
	Content         string             `json:"content"`
	AuthorEmail     string             `json:"author_email"`
	Type            domain.CommentType `json:"type"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`
	IsEdited        bool               `json:"is_edited"`
	ParentCommentID *int64             `json:"parent_comment_id,omitempty"`
}

// FromComment maps an entity to its response shape.
func FromComment(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:              comment.ID,
		TicketNumber:    comment.TicketNumber,
		Content:         comment.Content,
		AuthorEmail:     comment.AuthorEmail,
		Type:            comment.Type,
		CreatedAt:       comment.CreatedAt,
		UpdatedAt:       comment.UpdatedAt,
		IsEdited:        comment.IsEdited,
		ParentCommentID: comment.ParentCommentID,
	}
}

// FromComments maps a comment list.
func FromComments(comments []domain.Comment) []CommentResponse {
	result := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, FromComment(&comments[i]))
	}
	return result
}
