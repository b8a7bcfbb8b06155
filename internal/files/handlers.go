package files

import (
	"errors"
	"log/slog"
	"net/http"

	"proconnect/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for uploaded files
type Handler struct {
	service *Service
}

// NewHandler creates a new files handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ServeUpload handles GET /uploads/:name
// Backends with presigned links redirect; others stream the object.
func (h *Handler) ServeUpload(c *gin.Context) {
	key := c.Param("name")
	ctx := c.Request.Context()

	url, ok, err := h.service.DownloadURL(ctx, key)
	if err != nil {
		h.notFound(c, key, err)
		return
	}
	if ok {
		c.Redirect(http.StatusFound, url)
		return
	}

	obj, err := h.service.Open(ctx, key)
	if err != nil {
		h.notFound(c, key, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}

func (h *Handler) notFound(c *gin.Context, key string, err error) {
	if !errors.Is(err, storage.ErrObjectNotFound) {
		slog.Error("Failed to open upload",
			"key", key,
			"error", err,
			"request_id", c.GetString("request_id"),
		)
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.String(http.StatusNotFound, "not found")
}
