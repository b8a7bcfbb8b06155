// Package storage keeps uploaded images in an object store: a local directory
// for single-node setups or an S3-compatible bucket such as MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when no object exists under the key
var ErrObjectNotFound = errors.New("object not found")

// Service defines the interface for storage operations
type Service interface {
	// Put stores size bytes read from r under key
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error

	// Open returns the object stored under key. The caller closes Body.
	Open(ctx context.Context, key string) (*Object, error)

	// Delete removes an object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Health checks if the storage backend is accessible
	Health(ctx context.Context) error
}

// Presigner is implemented by backends that can hand out time-limited
// direct download links.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Object is an opened stored object
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// validateKey rejects keys that could escape the bucket or directory.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("object key %q contains invalid characters", key)
	}
	return nil
}
