// Package session issues, resolves and revokes session tokens.
// Expired sessions are removed lazily, on the first resolve after expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultTTL is how long a new session stays valid.
	DefaultTTL = 7 * 24 * time.Hour
	// TokenBytes is the entropy of a session token before encoding.
	TokenBytes = 32
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
)

// Manager defines the interface for session management operations
type Manager interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
}

// Option customizes a manager.
type Option func(*manager)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *manager) {
		m.now = now
	}
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *manager) {
		m.ttl = ttl
	}
}

// manager implements Manager interface
type manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a new session manager
func NewManager(store Store, opts ...Option) Manager {
	m := &manager{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create issues a new session for userID and returns its token.
func (m *manager) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	sess := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl).Unix(),
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Resolve returns the user bound to token. Unknown and empty tokens yield
// ErrSessionNotFound; an expired session is deleted and yields ErrSessionExpired.
func (m *manager) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to load session: %w", err)
	}

	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			slog.Warn("Failed to delete expired session", "user_id", sess.UserID, "error", err)
		}
		return 0, ErrSessionExpired
	}

	return sess.UserID, nil
}

// Revoke removes a session. Revoking an unknown token is not an error.
func (m *manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// newToken returns TokenBytes of randomness, URL-safe encoded without padding.
func newToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
