package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// CommentsHandler serves the ticket discussion thread.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs the handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// Create handles POST /tickets/:number/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	comment, err := h.comments.AddComment(c.UserContext(),
		principal.User.Email, c.Params("number"), req.Content, req.CommentType)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromComment(comment))
}

// List handles GET /tickets/:number/comments, filtered by visibility.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	comments, err := h.comments.ListVisible(c.UserContext(), principal.User.Email, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromComments(comments))
}

// Edit handles PATCH /tickets/:number/comments/:id.
func (h *CommentsHandler) Edit(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	commentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid comment id", nil)
	}

	var req dto.EditCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	comment, err := h.comments.EditComment(c.UserContext(),
		principal.User.Email, c.Params("number"), commentID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromComment(comment))
}
