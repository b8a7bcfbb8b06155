package auth

import (
	"context"
	"errors"

	"proconnect/internal/session"
)

// IdentityResolver turns a session token into the identity of the caller.
type IdentityResolver struct {
	sessions session.Manager
	users    UserRepository
}

// NewIdentityResolver creates a resolver over the session manager and user store.
func NewIdentityResolver(sessions session.Manager, users UserRepository) *IdentityResolver {
	return &IdentityResolver{
		sessions: sessions,
		users:    users,
	}
}

// Authenticate returns the identity bound to token, or nil for an anonymous
// caller. Missing, unknown or expired tokens and sessions whose user no
// longer exists are all anonymous. Only storage failures return an error.
func (r *IdentityResolver) Authenticate(ctx context.Context, token string) (*Identity, error) {
	userID, err := r.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			return nil, nil
		}
		return nil, err
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &Identity{ID: user.ID, Username: user.Username}, nil
}
