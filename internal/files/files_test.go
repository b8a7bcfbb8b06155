package files

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proconnect/internal/storage"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 64)...)
	gifBytes  = append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 64)...)
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{16}\.(jpg|jpeg|png|gif|webp)$`)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		filename string
		wantExt  string
		wantErr  bool
	}{
		{"photo.jpg", ".jpg", false},
		{"PHOTO.JPEG", ".jpeg", false},
		{"cat.png", ".png", false},
		{"anim.gif", ".gif", false},
		{"pic.webp", ".webp", false},
		{`C:\Users\bob\me.PNG`, ".png", false},
		{"../../etc/passwd.png", ".png", false},
		{"", "", true},
		{"noext", "", true},
		{"script.svg", "", true},
		{"page.html", "", true},
		{strings.Repeat("a", 300) + ".png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			ext, err := ValidateFilename(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(0)

	contentType, ext, body, err := v.Validate("me.png", bytes.NewReader(pngBytes), int64(len(pngBytes)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	full, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, full, "sniffing must not consume the content")
}

func TestValidator_DetectsByContentNotExtension(t *testing.T) {
	v := NewValidator(0)

	contentType, _, _, err := v.Validate("me.png", bytes.NewReader(jpegBytes), int64(len(jpegBytes)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)

	_, _, _, err = v.Validate("me.png", strings.NewReader("<html><script>alert(1)</script></html>"), 38)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestValidator_Size(t *testing.T) {
	v := NewValidator(16)

	_, _, _, err := v.Validate("me.gif", bytes.NewReader(gifBytes), int64(len(gifBytes)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, _, err = v.Validate("me.gif", bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNewKey(t *testing.T) {
	a, err := NewKey(".png")
	require.NoError(t, err)
	b, err := NewKey(".png")
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, a)
	assert.NotEqual(t, a, b)
}

func newLocalService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewService(store, nil)
}

func TestService_SaveImageAndServe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newLocalService(t)

	key, err := svc.SaveImage(context.Background(), "Holiday.JPG", bytes.NewReader(jpegBytes), int64(len(jpegBytes)))
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key)
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+key, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, jpegBytes, w.Body.Bytes())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestService_SaveImageRejectsInvalid(t *testing.T) {
	svc := newLocalService(t)

	_, err := svc.SaveImage(context.Background(), "x.exe", bytes.NewReader(pngBytes), int64(len(pngBytes)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

// presigningStorage is a storage.Service that also hands out links.
type presigningStorage struct {
	storage.Service
}

func (p presigningStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	obj, err := p.Open(ctx, key)
	if err != nil {
		return "", err
	}
	obj.Body.Close()
	return "https://cdn.example.com/" + key + "?ttl=" + ttl.String(), nil
}

func TestHandler_RedirectsWhenPresigned(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	NewHandler(NewService(presigningStorage{store}, nil)).RegisterRoutes(r)

	require.NoError(t, store.Put(context.Background(), "0123456789abcdef.png", "image/png", bytes.NewReader(pngBytes), int64(len(pngBytes))))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/0123456789abcdef.png", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdn.example.com/0123456789abcdef.png?ttl=1h0m0s", w.Header().Get("Location"))
}

func TestHandler_PresignedMissingIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	NewHandler(NewService(presigningStorage{store}, nil)).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/fedcba9876543210.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}
