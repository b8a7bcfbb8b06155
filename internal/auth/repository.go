package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proconnect/internal/database"
)

// usernameConstraint is the name of the UNIQUE constraint on users.username.
const usernameConstraint = "users_username_key"

// UserRepository defines data access for accounts
type UserRepository interface {
	Create(ctx context.Context, user *User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

type postgresUserRepository struct {
	db database.Service
}

// NewPostgresUserRepository returns a UserRepository backed by the users table.
func NewPostgresUserRepository(db database.Service) UserRepository {
	return &postgresUserRepository{db: db}
}

// Create inserts user and returns the assigned id. A username collision
// returns ErrDuplicateUsername.
func (r *postgresUserRepository) Create(ctx context.Context, user *User) (int64, error) {
	query := `
		INSERT INTO users (username, password, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, user.Username, user.PasswordHash, user.CreatedAt).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err, usernameConstraint) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	return id, nil
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username, password, created_at FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, username, password, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *postgresUserRepository) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
