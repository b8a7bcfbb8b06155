package posts

import (
	"errors"
	"log/slog"
	"net/http"

	"proconnect/internal/auth"
	"proconnect/internal/files"

	"github.com/gin-gonic/gin"
)

// Messages shown above the post form.
const (
	msgEmptyPost    = "Write something or attach an image."
	msgInvalidImage = "Images must be JPEG, PNG, GIF or WebP."
	msgImageTooBig  = "Images must be 10 MB or smaller."
)

// maxRequestBytes bounds a POST /post body: the image plus form overhead.
const maxRequestBytes = files.MaxFileSize + 1<<20

// Handler handles HTTP requests for posts
type Handler struct {
	service *Service
	files   *files.Service
}

// NewHandler creates a new posts handler
func NewHandler(service *Service, files *files.Service) *Handler {
	return &Handler{
		service: service,
		files:   files,
	}
}

// Feed handles GET /
func (h *Handler) Feed(c *gin.Context) {
	h.renderFeed(c, http.StatusOK, "")
}

// CreatePost handles POST /post
func (h *Handler) CreatePost(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	var form CreatePostForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderFeed(c, http.StatusRequestEntityTooLarge, msgImageTooBig)
			return
		}
		h.renderFeed(c, http.StatusBadRequest, msgEmptyPost)
		return
	}

	image, err := h.saveImage(c)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrInvalidImage):
			h.renderFeed(c, http.StatusOK, msgInvalidImage)
		case errors.Is(err, files.ErrTooLarge):
			h.renderFeed(c, http.StatusOK, msgImageTooBig)
		default:
			h.fail(c, "Failed to store image", err)
		}
		return
	}

	if _, err := h.service.CreatePost(ctx, identity.ID, form.Content, image); err != nil {
		if image != "" {
			if delErr := h.files.DeleteFile(ctx, image); delErr != nil {
				slog.Warn("Failed to remove orphaned image", "key", image, "error", delErr)
			}
		}
		if errors.Is(err, ErrEmptyPost) {
			h.renderFeed(c, http.StatusOK, msgEmptyPost)
			return
		}
		h.fail(c, "Failed to create post", err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Profile handles GET /profile
func (h *Handler) Profile(c *gin.Context) {
	identity := auth.CurrentIdentity(c)

	posts, err := h.service.UserPosts(c.Request.Context(), identity.ID)
	if err != nil {
		h.fail(c, "Failed to load profile", err)
		return
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Title":    "Profile",
		"Identity": identity,
		"Posts":    posts,
	})
}

// saveImage stores the optional image part and returns its key, or "" when
// no file was attached.
func (h *Handler) saveImage(c *gin.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	if header.Filename == "" {
		return "", nil
	}

	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.files.SaveImage(c.Request.Context(), header.Filename, f, header.Size)
}

func (h *Handler) renderFeed(c *gin.Context, status int, message string) {
	posts, err := h.service.Feed(c.Request.Context(), FeedLimit)
	if err != nil {
		h.fail(c, "Failed to load feed", err)
		return
	}

	c.HTML(status, "index.html", gin.H{
		"Title":    "Home",
		"Identity": auth.CurrentIdentity(c),
		"Posts":    posts,
		"Error":    message,
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
		"Identity": auth.CurrentIdentity(c),
	})
}
