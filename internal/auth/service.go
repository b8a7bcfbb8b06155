// Package auth implements username/password accounts on top of the password
// hasher, and resolves session tokens into request identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"proconnect/internal/password"
)

var (
	// ErrDuplicateUsername is returned when the username is already registered
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingFields is returned when username or password is empty
	ErrMissingFields = errors.New("all fields required")
	// ErrUserNotFound is returned when user is not found
	ErrUserNotFound = errors.New("user not found")
)

// dummyHash is verified against when the username does not exist, so that
// both failure paths of AuthenticateCredentials do the same hashing work.
const dummyHash = "0000000000000000$9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

// Service defines the credential store interface
type Service interface {
	Register(ctx context.Context, username, password string) (int64, error)
	AuthenticateCredentials(ctx context.Context, username, password string) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// service implements the Service interface
type service struct {
	users UserRepository
	now   func() time.Time
}

// NewService creates a new credential store. A nil clock means time.Now.
func NewService(users UserRepository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		users: users,
		now:   now,
	}
}

// Register creates an account and returns its id. Leading and trailing
// whitespace is stripped from the username; the password is taken verbatim.
func (s *service) Register(ctx context.Context, username, pw string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || pw == "" {
		return 0, ErrMissingFields
	}

	hash, err := password.Hash(pw)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.users.Create(ctx, &User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().Unix(),
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Created new user", "user_id", id, "username", username)

	return id, nil
}

// AuthenticateCredentials returns the id of the account matching username
// and password. It never reveals whether the username exists.
func (s *service) AuthenticateCredentials(ctx context.Context, username, pw string) (int64, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			password.Verify(pw, dummyHash)
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	if !password.Verify(pw, user.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return user.ID, nil
}

// GetUserByID retrieves a user by their ID
func (s *service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}
