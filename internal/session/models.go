package session

import "time"

// Session binds an opaque token to a user until ExpiresAt (unix seconds).
type Session struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now. A session
// whose ExpiresAt equals the current second is still valid.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt < now.Unix()
}
