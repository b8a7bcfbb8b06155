package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store defines the interface for session storage operations
type Store interface {
	Save(ctx context.Context, sess Session) error
	// Get returns ErrSessionNotFound when no record exists for token.
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes every session with ExpiresAt < now and reports how many.
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

const redisKeyPrefix = "session:"

// redisStore implements Store interface using Redis
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{
		client: client,
	}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

// Save stores the session as JSON. The key TTL runs one second past expiry so
// the record is still readable during its final valid second; expiry itself is
// decided by the manager.
func (s *redisStore) Save(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.client.Set(ctx, redisKey(sess.Token), data, redisTTL(sess.ExpiresAt, time.Now())).Err()
}

// minRedisTTL bounds the key TTL from below; a zero TTL would make go-redis
// store the key without expiry.
const minRedisTTL = time.Millisecond

func redisTTL(expiresAt int64, now time.Time) time.Duration {
	ttl := time.Unix(expiresAt+1, 0).Sub(now)
	if ttl < minRedisTTL {
		return minRedisTTL
	}
	return ttl
}

func (s *redisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKey(token)).Err()
}

func (s *redisStore) Exists(ctx context.Context, token string) (bool, error) {
	count, err := s.client.Exists(ctx, redisKey(token)).Result()
	return count > 0, err
}

// DeleteExpired scans all session keys. Keys normally expire on their own;
// this catches records saved without a TTL.
func (s *redisStore) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	var removed int64

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, err
		}

		var sess Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			slog.Warn("Skipping unreadable session record", "key", key, "error", err)
			continue
		}

		if sess.ExpiresAt < now {
			n, err := s.client.Del(ctx, key).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
	}

	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan session keys: %w", err)
	}

	return removed, nil
}
