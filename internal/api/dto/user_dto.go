package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkChatRequest binds a chat identity to the account.
type LinkChatRequest struct {
	ChatUserID   int64  `json:"chat_user_id"`
	ChatUsername string `json:"chat_username"`
}

// SetRoleRequest payload.
type SetRoleRequest struct {
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
}

// UserResponse is the plain user representation.
type UserResponse struct {
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         domain.UserRole `json:"role"`
	IsActive     bool            `json:"is_active"`
	ChatUserID   *int64          `json:"chat_user_id,omitempty"`
	ChatUsername *string         `json:"chat_username,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FromUser maps an entity to its response shape.
func FromUser(user *domain.User) UserResponse {
	return UserResponse{
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		IsActive:     user.IsActive,
		ChatUserID:   user.ChatUserID,
		ChatUsername: user.ChatUsername,
		CreatedAt:    user.CreatedAt,
	}
}
