package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
)

type local struct {
	dir string
}

// NewLocal stores objects as files in dir, creating it if needed.
func NewLocal(dir string) (Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	slog.Info("Using local storage", "dir", dir)
	return &local{dir: dir}, nil
}

func (l *local) Put(_ context.Context, key, _ string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.LimitReader(r, size))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", key, err)
	}
	if written != size {
		return fmt.Errorf("failed to write file %s: short write (%d of %d bytes)", key, written, size)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, key)); err != nil {
		return fmt.Errorf("failed to store file %s: %w", key, err)
	}
	return nil
}

func (l *local) Open(_ context.Context, key string) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, ErrObjectNotFound
	}

	f, err := os.Open(filepath.Join(l.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file %s: %w", key, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Object{
		Body:        f,
		ContentType: contentType,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

func (l *local) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (l *local) Health(_ context.Context) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage health check failed: %s is not a directory", l.dir)
	}
	return nil
}
