package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// UserService manages helpdesk identities and issues access tokens for
// the chat front end.
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, cfg config.AuthConfig) *UserService {
	return &UserService{
		users:  users,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:    cfg,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *UserService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a new end-user account.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	user, err := domain.NewUser(email, name, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil || auth.ComparePassword(user.PasswordHash, password) != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return "", time.Time{}, apperrors.NewPermissionDenied("account is deactivated")
	}

	user.LastActiveAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.GenerateToken(user.Email, user.Role)
}

// LinkChatAccount binds a chat identity to the user.
func (s *UserService) LinkChatAccount(ctx context.Context, email string, chatUserID int64, chatUsername string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	existing, err := s.users.GetByChatUserID(ctx, chatUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Email != user.Email {
		return nil, apperrors.NewConflict("chat account already linked",
			map[string]any{"chat_user_id": chatUserID})
	}

	user.ChatUserID = &chatUserID
	if chatUsername != "" {
		user.ChatUsername = &chatUsername
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveChatUser finds the helpdesk identity behind a chat account.
func (s *UserService) ResolveChatUser(ctx context.Context, chatUserID int64) (*domain.User, error) {
	user, err := s.users.GetByChatUserID(ctx, chatUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"chat_user_id": chatUserID})
	}
	return user, nil
}

// SetRole changes a user's role. Admin only.
func (s *UserService) SetRole(ctx context.Context, actorEmail, targetEmail string, role domain.UserRole) (*domain.User, error) {
	actor, err := s.users.GetByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewPermissionDenied("only admins may change roles")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": targetEmail})
	}
	target.Role = role
	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
