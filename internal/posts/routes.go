package posts

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the feed and post routes. requireLogin guards the
// routes that need an identity.
func (h *Handler) RegisterRoutes(r gin.IRouter, requireLogin gin.HandlerFunc) {
	r.GET("/", h.Feed)

	authed := r.Group("/")
	authed.Use(requireLogin)
	{
		authed.POST("/post", h.CreatePost)
		authed.GET("/profile", h.Profile)
	}
}
