package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// UsersHandler serves registration, login and chat-account linkage.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	user, err := h.users.Register(c.UserContext(), req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromUser(user))
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	token, expiresAt, err := h.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// LinkChat handles POST /users/me/chat-link.
func (h *UsersHandler) LinkChat(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.LinkChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	user, err := h.users.LinkChatAccount(c.UserContext(), principal.User.Email, req.ChatUserID, req.ChatUsername)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromUser(user))
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	return c.JSON(dto.FromUser(principal.User))
}

// SetRole handles PATCH /users/role. Admin only.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	user, err := h.users.SetRole(c.UserContext(), principal.User.Email, req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromUser(user))
}
