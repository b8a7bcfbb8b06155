package server

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"proconnect/internal/auth"
	"proconnect/internal/files"
	"proconnect/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// RegisterRoutes builds the gin engine with every route mounted
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.deps.Logger))
	r.Use(MetricsMiddleware())

	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	files.NewHandler(s.deps.Files).RegisterRoutes(r)

	identity := auth.IdentityMiddleware(s.deps.Identity)

	site := r.Group("/")
	site.Use(identity)
	{
		site.GET("/signup", s.deps.Auth.SignupPage)
		site.POST("/signup", s.deps.Auth.Signup)
		site.GET("/login", s.deps.Auth.LoginPage)
		site.POST("/login", s.deps.Auth.Login)
		site.GET("/logout", s.deps.Auth.Logout)
		site.POST("/logout", s.deps.Auth.Logout)

		s.deps.Posts.RegisterRoutes(site, auth.RequireLogin())
	}

	r.NoRoute(identity, s.notFoundHandler)

	return r
}

func (s *Server) notFoundHandler(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{
		"Title":    "Not Found",
		"Identity": auth.CurrentIdentity(c),
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	response := make(map[string]any)
	status := http.StatusOK

	dbHealth := s.deps.DB.Health()
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	response["database"] = dbHealth

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storageHealth := make(map[string]string)
	if err := s.deps.Files.HealthCheck(ctx); err != nil {
		storageHealth["status"] = "down"
		storageHealth["error"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		storageHealth["status"] = "up"
	}
	response["storage"] = storageHealth

	c.JSON(status, response)
}
