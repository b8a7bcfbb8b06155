package files

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the upload routes on r
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/uploads/:name", h.ServeUpload)
	r.HEAD("/uploads/:name", h.ServeUpload)
}
