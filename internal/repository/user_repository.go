package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// UserRepository defines persistence access for helpdesk identities.
// Users live only in the clean schema; the legacy ERP kept its own
// partner records which this system never writes.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByChatUserID(ctx context.Context, chatUserID int64) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `email, name, role, is_active, password_hash, chat_user_id, chat_username, created_at, last_active_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, name, role, is_active, password_hash, chat_user_id, chat_username, created_at, last_active_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.IsActive,
		user.PasswordHash,
		user.ChatUserID,
		user.ChatUsername,
		user.CreatedAt,
		user.LastActiveAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("user already registered", map[string]any{"email": user.Email})
		}
		return apperrors.NewPersistenceError("create user", user.Email, err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, role=$2, is_active=$3, password_hash=$4,
            chat_user_id=$5, chat_username=$6, last_active_at=$7
        WHERE email=$8`
	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Role,
		user.IsActive,
		user.PasswordHash,
		user.ChatUserID,
		user.ChatUsername,
		user.LastActiveAt,
		user.Email,
	)
	if err != nil {
		return apperrors.NewPersistenceError("update user", user.Email, err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("user", map[string]any{"email": user.Email})
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) GetByChatUserID(ctx context.Context, chatUserID int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE chat_user_id=$1`
	return r.fetchSingle(ctx, query, chatUserID)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.Email,
		&user.Name,
		&user.Role,
		&user.IsActive,
		&user.PasswordHash,
		&user.ChatUserID,
		&user.ChatUsername,
		&user.CreatedAt,
		&user.LastActiveAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
