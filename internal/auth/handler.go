package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"proconnect/internal/metrics"
	"proconnect/internal/session"

	"github.com/gin-gonic/gin"
)

// Messages shown on the signup and login forms.
const (
	msgMissingFields      = "All fields required."
	msgUsernameTaken      = "Username taken."
	msgInvalidCredentials = "Invalid credentials."
)

// Handler handles authentication-related HTTP requests
type Handler struct {
	service       Service
	sessionMgr    session.Manager
	secureCookies bool
}

// NewHandler creates a new authentication handler. secureCookies marks the
// session cookie Secure and should be set in production only.
func NewHandler(service Service, sessionMgr session.Manager, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		sessionMgr:    sessionMgr,
		secureCookies: secureCookies,
	}
}

// SignupPage handles GET /signup
func (h *Handler) SignupPage(c *gin.Context) {
	h.renderForm(c, "signup.html", "Sign Up", "")
}

// Signup handles POST /signup
func (h *Handler) Signup(c *gin.Context) {
	var form CredentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, "signup.html", "Sign Up", msgMissingFields)
		return
	}

	userID, err := h.service.Register(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			h.renderForm(c, "signup.html", "Sign Up", msgMissingFields)
		case errors.Is(err, ErrDuplicateUsername):
			metrics.AuthEvent(metrics.EventSignupTaken)
			h.renderForm(c, "signup.html", "Sign Up", msgUsernameTaken)
		default:
			h.fail(c, "Failed to register user", err)
		}
		return
	}

	metrics.AuthEvent(metrics.EventSignup)
	h.startSession(c, userID)
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(c *gin.Context) {
	h.renderForm(c, "login.html", "Login", "")
}

// Login handles POST /login
func (h *Handler) Login(c *gin.Context) {
	var form CredentialsForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, "login.html", "Login", msgInvalidCredentials)
		return
	}

	userID, err := h.service.AuthenticateCredentials(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.AuthEvent(metrics.EventLoginFailed)
			h.renderForm(c, "login.html", "Login", msgInvalidCredentials)
			return
		}
		h.fail(c, "Failed to authenticate user", err)
		return
	}

	metrics.AuthEvent(metrics.EventLoginOK)
	h.startSession(c, userID)
}

// Logout handles GET and POST /logout
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		if err := h.sessionMgr.Revoke(c.Request.Context(), token); err != nil {
			slog.Error("Failed to revoke session",
				"error", err,
				"request_id", c.GetString("request_id"),
			)
		}
	}

	h.clearSessionCookie(c)
	metrics.AuthEvent(metrics.EventLogout)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) startSession(c *gin.Context, userID int64) {
	token, err := h.sessionMgr.Create(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "Failed to create session", err)
		return
	}

	h.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) renderForm(c *gin.Context, name, title, message string) {
	c.HTML(http.StatusOK, name, gin.H{
		"Title":    title,
		"Error":    message,
		"Identity": CurrentIdentity(c),
	})
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	slog.Error(msg,
		"error", err,
		"request_id", c.GetString("request_id"),
	)
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":    "Error",
		"Message":  "Something went wrong. Please try again.",
		"Identity": CurrentIdentity(c),
	})
}
