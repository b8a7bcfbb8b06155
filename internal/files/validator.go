package files

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// Validator checks uploads before they reach storage.
type Validator struct {
	maxSize int64
}

// NewValidator creates a validator. A non-positive maxSize means MaxFileSize.
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Validator{maxSize: maxSize}
}

// ValidateFilename reduces filename to its base name and returns the
// lower-cased extension if it is allowed.
func ValidateFilename(filename string) (string, error) {
	// Browsers on Windows may send full paths.
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("%w: filename cannot be empty", ErrInvalidImage)
	}
	if len(base) > MaxFilenameLength {
		return "", fmt.Errorf("%w: filename too long (max %d characters)", ErrInvalidImage, MaxFilenameLength)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !AllowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q is not allowed", ErrInvalidImage, ext)
	}
	return ext, nil
}

// Validate checks filename and size, then sniffs the leading bytes of r.
// It returns the detected content type, the extension for the object key,
// and a reader that still yields the full content.
func (v *Validator) Validate(filename string, r io.Reader, size int64) (string, string, io.Reader, error) {
	ext, err := ValidateFilename(filename)
	if err != nil {
		return "", "", nil, err
	}
	if size <= 0 {
		return "", "", nil, fmt.Errorf("%w: file is empty", ErrInvalidImage)
	}
	if size > v.maxSize {
		return "", "", nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, v.maxSize)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	contentType := mtype.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !AllowedContentTypes[contentType] {
		return "", "", nil, fmt.Errorf("%w: content type %s is not allowed", ErrInvalidImage, contentType)
	}

	return contentType, ext, io.MultiReader(bytes.NewReader(head), r), nil
}

// NewKey returns a random object key with the given extension.
func NewKey(ext string) (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate file key: %w", err)
	}
	return hex.EncodeToString(buf) + ext, nil
}
