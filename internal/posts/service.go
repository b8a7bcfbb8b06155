// Package posts stores status updates and serves the feed and profile pages.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"proconnect/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedLimit is the default and maximum number of posts in the feed
	FeedLimit = 50

	listCacheTTL = 2 * time.Minute
)

// ErrEmptyPost is returned when a post has neither text nor an image
var ErrEmptyPost = errors.New("post is empty")

// Service handles business logic for posts with optional caching
type Service struct {
	repo  *Repository
	cache *redis.Client
	now   func() time.Time
}

// NewService creates a new posts service. A nil cache disables caching.
func NewService(repo *Repository, cache *redis.Client) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// CreatePost creates a new post and invalidates relevant caches
func (s *Service) CreatePost(ctx context.Context, userID int64, content, image string) (*Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && image == "" {
		return nil, ErrEmptyPost
	}

	post := &Post{
		UserID:    userID,
		Content:   content,
		Image:     image,
		CreatedAt: s.now().Unix(),
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	metrics.PostCreated(image != "")

	s.invalidateUserPostsCache(ctx, userID)
	s.invalidateFeedCache(ctx)

	return post, nil
}

// Feed returns the newest posts of all users. limit is clamped to FeedLimit.
func (s *Service) Feed(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}

	cacheKey := fmt.Sprintf("posts:feed:%d", limit)
	if posts, ok := s.cached(ctx, cacheKey); ok {
		return posts, nil
	}

	posts, err := s.repo.Feed(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, posts)
	return posts, nil
}

// UserPosts returns every post by userID, newest first
func (s *Service) UserPosts(ctx context.Context, userID int64) ([]Post, error) {
	cacheKey := fmt.Sprintf("posts:user:%d", userID)
	if posts, ok := s.cached(ctx, cacheKey); ok {
		return posts, nil
	}

	posts, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, posts)
	return posts, nil
}

// cached reads a post list; any cache failure is a miss.
func (s *Service) cached(ctx context.Context, key string) ([]Post, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Posts cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false
	}
	slog.Debug("Cache hit for posts", "key", key)
	return posts, true
}

func (s *Service) store(ctx context.Context, key string, posts []Post) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, listCacheTTL).Err(); err != nil {
		slog.Warn("Posts cache write failed", "key", key, "error", err)
	}
}

// Cache invalidation helpers
func (s *Service) invalidateUserPostsCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		cacheKey := fmt.Sprintf("posts:user:%d", userID)
		if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
			slog.Warn("Posts cache invalidation failed", "key", cacheKey, "error", err)
		}
	}
}

func (s *Service) invalidateFeedCache(ctx context.Context) {
	if s.cache != nil {
		s.deleteByPattern(ctx, "posts:feed:*")
	}
}

func (s *Service) deleteByPattern(ctx context.Context, pattern string) {
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.cache.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Error scanning cache keys", "pattern", pattern, "error", err)
	}
}
