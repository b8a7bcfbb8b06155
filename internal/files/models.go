package files

import (
	"errors"
	"time"
)

var (
	// ErrInvalidImage is returned when an upload is not an accepted image
	ErrInvalidImage = errors.New("invalid image")
	// ErrTooLarge is returned when an upload exceeds MaxFileSize
	ErrTooLarge = errors.New("image too large")
)

// Constants for file operations
const (
	MaxFilenameLength = 255
	MaxFileSize       = 10 << 20 // 10 MiB
	// KeyBytes is the random part of an object key, hex encoded.
	KeyBytes = 8
	// DownloadURLTTL is the lifetime of presigned download links.
	DownloadURLTTL = 1 * time.Hour
)

// AllowedExtensions lists the accepted upload filename extensions
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AllowedContentTypes defines whitelist for security
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}
