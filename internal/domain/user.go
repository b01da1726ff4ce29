package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// UserRole enumerates the permission tiers.
type UserRole string

const (
	RoleUser    UserRole = "USER"
	RoleAgent   UserRole = "AGENT"
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
)

// User is identified by email. Chat linkage is optional and set when an
// end user binds their chat account to a helpdesk identity.
type User struct {
	Email        string
	Name         string
	Role         UserRole
	IsActive     bool
	PasswordHash string
	ChatUserID   *int64
	ChatUsername *string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// NewUser validates and builds an active user.
func NewUser(email, name string, role UserRole) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return nil, apperrors.NewValidationError("email is malformed", map[string]any{"email": email})
	}
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, apperrors.NewValidationError("name must be at least 2 characters", nil)
	}
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	now := time.Now().UTC()
	return &User{
		Email:        email,
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		LastActiveAt: now,
	}, nil
}

// Valid reports whether the role is one of the known tiers.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin, RoleManager:
		return true
	}
	return false
}

// IsStaff reports whether the role may handle other people's tickets.
func (r UserRole) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin || r == RoleManager
}

// IsPrivileged reports whether the role bypasses ownership checks.
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager
}
