// Package server assembles the ProConnect HTTP surface: routing, middleware,
// HTML templates, static assets and the health and metrics endpoints.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"proconnect/internal/auth"
	"proconnect/internal/config"
	"proconnect/internal/database"
	"proconnect/internal/files"
	"proconnect/internal/posts"
)

// Dependencies are the services the HTTP layer is built from
type Dependencies struct {
	DB       database.Service
	Identity *auth.IdentityResolver
	Auth     *auth.Handler
	Posts    *posts.Handler
	Files    *files.Service
	Logger   *slog.Logger
}

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg  config.HTTP
	deps Dependencies
}

// New creates the application server
func New(cfg config.HTTP, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{cfg: cfg, deps: deps}
}

// HTTPServer wraps the routes in an *http.Server listening on addr
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
