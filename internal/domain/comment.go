package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// CommentType differentiates replies, internal notes and system events.
type CommentType string

const (
	CommentTypePublic   CommentType = "PUBLIC"
	CommentTypeInternal CommentType = "INTERNAL"
	CommentTypeSystem   CommentType = "SYSTEM"
)

// Content length bounds enforced at construction.
const (
	CommentMinLength = 5
	CommentMaxLength = 5000
)

// CommentEditWindow is how long the author may edit their own comment.
const CommentEditWindow = 24 * time.Hour

// Comment captures one entry in a ticket thread.
type Comment struct {
	ID              int64
	TicketNumber    string
	Content         string
	AuthorEmail     string
	Type            CommentType
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	IsEdited        bool
	ParentCommentID *int64
}

// NewComment validates and builds a comment. System comments are built
// through NewSystemComment only.
func NewComment(ticketNumber, authorEmail, content string, commentType CommentType) (*Comment, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	if ticketNumber == "" {
		return nil, apperrors.NewValidationError("comment requires a ticket number", nil)
	}
	if !strings.Contains(authorEmail, "@") {
		return nil, apperrors.NewValidationError("author email is malformed", map[string]any{"email": authorEmail})
	}
	content = strings.TrimSpace(content)
	// Bounds count characters, not bytes; multibyte content must not be
	// over-rejected near the maximum.
	if n := utf8.RuneCountInString(content); n < CommentMinLength || n > CommentMaxLength {
		return nil, apperrors.NewValidationError("comment content must be 5-5000 characters",
			map[string]any{"length": n})
	}
	if commentType == "" {
		commentType = CommentTypePublic
	}
	switch commentType {
	case CommentTypePublic, CommentTypeInternal:
	case CommentTypeSystem:
		return nil, apperrors.NewValidationError("system comments cannot be authored", nil)
	default:
		return nil, apperrors.NewValidationError("unknown comment type", map[string]any{"type": string(commentType)})
	}
	return &Comment{
		TicketNumber: ticketNumber,
		Content:      content,
		AuthorEmail:  authorEmail,
		Type:         commentType,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NewSystemComment builds a system-generated thread entry. Length bounds
// do not apply; the caller is trusted machinery, not user input.
func NewSystemComment(ticketNumber, content string) *Comment {
	return &Comment{
		TicketNumber: ticketNumber,
		Content:      content,
		AuthorEmail:  "system@helpdesk.local",
		Type:         CommentTypeSystem,
		CreatedAt:    time.Now().UTC(),
	}
}

// CanBeEditedBy reports whether the user may edit this comment now.
// System comments are immutable. Authors get a 24 hour window;
// administrators may edit at any time.
func (c *Comment) CanBeEditedBy(user *User, now time.Time) bool {
	if c.Type == CommentTypeSystem {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	if user.Email != c.AuthorEmail {
		return false
	}
	return now.Sub(c.CreatedAt) <= CommentEditWindow
}

// Edit replaces the content after the authorization check has passed.
func (c *Comment) Edit(content string, now time.Time) error {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < CommentMinLength || n > CommentMaxLength {
		return apperrors.NewValidationError("comment content must be 5-5000 characters",
			map[string]any{"length": n})
	}
	c.Content = content
	c.IsEdited = true
	updated := now
	c.UpdatedAt = &updated
	return nil
}
