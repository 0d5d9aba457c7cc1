// ===============================
// FILE: internal/repositories/user_repository.go
// ===============================

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"threadhub/internal/database"
)

// User is the author record joined into listings. Account mechanics
// live outside this service; rows are provisioned from token claims.
type User struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserRepository resolves and provisions author records.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// EnsureExists upserts an author row from identity claims so
	// foreign keys always resolve.
	EnsureExists(ctx context.Context, id int64, username string) (*User, error)
}

type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.QueryRowContext(ctx,
		`SELECT id, username, display_name, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.QueryRowContext(ctx,
		`SELECT id, username, display_name, created_at FROM users WHERE username = $1`, username,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &user, nil
}

func (r *userRepository) EnsureExists(ctx context.Context, id int64, username string) (*User, error) {
	var user User
	err := r.QueryRowContext(ctx, `
		INSERT INTO users (id, username, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, display_name, created_at`,
		id, username,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensure user %d: %w", id, err)
	}
	return &user, nil
}
