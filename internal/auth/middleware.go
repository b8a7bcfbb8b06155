package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "session"

	identityKey = "identity"
)

// IdentityMiddleware resolves the session cookie and stores the caller's
// identity in the context. Anonymous callers pass through with no identity.
func IdentityMiddleware(resolver *IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A missing cookie resolves to anonymous like any unknown token.
		token, _ := c.Cookie(SessionCookieName)

		identity, err := resolver.Authenticate(c.Request.Context(), token)
		if err != nil {
			slog.Error("Failed to resolve session",
				"error", err,
				"request_id", c.GetString("request_id"),
			)
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if identity != nil {
			c.Set(identityKey, identity)
			c.Set("user_id", identity.ID)
		}

		c.Next()
	}
}

// RequireLogin redirects anonymous callers to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by IdentityMiddleware, or nil.
func CurrentIdentity(c *gin.Context) *Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*Identity)
	return identity
}
