// Package files accepts image uploads, stores them through the storage
// service and serves them back.
package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"proconnect/internal/storage"
)

// Service handles business logic for file operations
type Service struct {
	storage   storage.Service
	validator *Validator
}

// NewService creates a new files service
func NewService(storage storage.Service, validator *Validator) *Service {
	if validator == nil {
		validator = NewValidator(MaxFileSize)
	}
	return &Service{
		storage:   storage,
		validator: validator,
	}
}

// SaveImage validates an uploaded image and stores it under a fresh random
// key, which it returns.
func (s *Service) SaveImage(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	contentType, ext, body, err := s.validator.Validate(filename, r, size)
	if err != nil {
		return "", err
	}

	key, err := NewKey(ext)
	if err != nil {
		return "", err
	}

	if err := s.storage.Put(ctx, key, contentType, body, size); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	slog.Info("Stored image", "key", key, "content_type", contentType, "size", size)

	return key, nil
}

// DownloadURL returns a presigned link for key when the backend supports it.
// ok is false for backends that must be streamed through Open instead.
func (s *Service) DownloadURL(ctx context.Context, key string) (url string, ok bool, err error) {
	presigner, ok := s.storage.(storage.Presigner)
	if !ok {
		return "", false, nil
	}

	url, err = presigner.PresignGet(ctx, key, DownloadURLTTL)
	if err != nil {
		return "", true, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, true, nil
}

// Open returns the stored image under key
func (s *Service) Open(ctx context.Context, key string) (*storage.Object, error) {
	return s.storage.Open(ctx, key)
}

// DeleteFile removes a file from storage
func (s *Service) DeleteFile(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// HealthCheck checks storage service health
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.storage.Health(ctx)
}
