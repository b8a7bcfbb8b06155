package posts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"proconnect/internal/database"
)

// Repository handles all database operations for posts
type Repository struct {
	db database.Service
}

// NewRepository creates a new posts repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post. An empty image is stored as NULL.
func (r *Repository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (user_id, content, image, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	image := sql.NullString{String: post.Image, Valid: post.Image != ""}
	err := r.db.QueryRow(ctx, query, post.UserID, post.Content, image, post.CreatedAt).Scan(&post.ID)
	if err != nil {
		slog.Error("Error creating post", "user_id", post.UserID, "error", err)
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// Feed retrieves the newest posts of all users with their usernames
func (r *Repository) Feed(ctx context.Context, limit int) ([]Post, error) {
	query := `
		SELECT posts.id, posts.user_id, users.username, posts.content, posts.image, posts.created_at
		FROM posts
		JOIN users ON users.id = posts.user_id
		ORDER BY posts.created_at DESC, posts.id DESC
		LIMIT $1
	`
	return r.queryRows(ctx, query, limit)
}

// GetByUserID retrieves all posts by a specific user, newest first
func (r *Repository) GetByUserID(ctx context.Context, userID int64) ([]Post, error) {
	query := `
		SELECT posts.id, posts.user_id, users.username, posts.content, posts.image, posts.created_at
		FROM posts
		JOIN users ON users.id = posts.user_id
		WHERE posts.user_id = $1
		ORDER BY posts.created_at DESC, posts.id DESC
	`
	return r.queryRows(ctx, query, userID)
}

// Helper method to scan multiple rows
func (r *Repository) queryRows(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		slog.Error("Error querying posts", "error", err)
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var (
			post  Post
			image sql.NullString
		)
		err := rows.Scan(
			&post.ID,
			&post.UserID,
			&post.Username,
			&post.Content,
			&image,
			&post.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.Image = image.String
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}
