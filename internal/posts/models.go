package posts

import (
	"time"
)

// TimeLayout is how post timestamps are shown.
const TimeLayout = "2006-01-02 15:04"

// Post represents a status update with an optional image
type Post struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Posted returns the creation time formatted for display
func (p Post) Posted() string {
	return time.Unix(p.CreatedAt, 0).Format(TimeLayout)
}

// CreatePostForm is the multipart form for POST /post.
// The optional image part is read separately.
type CreatePostForm struct {
	Content string `form:"content"`
}
