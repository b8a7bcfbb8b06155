package posts

import (
	"bytes"
	"context"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proconnect/internal/auth"
	"proconnect/internal/database"
	"proconnect/internal/files"
	"proconnect/internal/session"
	"proconnect/internal/storage"
)

const testTemplates = `
{{define "index.html"}}{{with .Identity}}me={{.Username}};{{end}}err={{.Error}};{{range .Posts}}[{{.Username}}:{{.Content}}]{{end}}{{end}}
{{define "profile.html"}}profile={{.Identity.Username}};{{range .Posts}}[{{.Content}}]{{end}}{{end}}
{{define "error.html"}}error{{end}}
`

type singleUser struct {
	user auth.User
}

func (s *singleUser) Create(context.Context, *auth.User) (int64, error) { return s.user.ID, nil }
func (s *singleUser) GetByUsername(context.Context, string) (*auth.User, error) {
	return &s.user, nil
}
func (s *singleUser) GetByID(_ context.Context, id int64) (*auth.User, error) {
	if id != s.user.ID {
		return nil, auth.ErrUserNotFound
	}
	return &s.user, nil
}

type handlerEnv struct {
	router    *gin.Engine
	mock      sqlmock.Sqlmock
	uploadDir string
	cookie    *http.Cookie
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadDir := t.TempDir()
	store, err := storage.NewLocal(uploadDir)
	require.NoError(t, err)

	sessions := session.NewManager(session.NewMemoryStore())
	token, err := sessions.Create(context.Background(), 1)
	require.NoError(t, err)

	users := &singleUser{user: auth.User{ID: 1, Username: "alice"}}
	h := NewHandler(NewService(NewRepository(database.NewWithDB(db)), nil), files.NewService(store, nil))

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(testTemplates)))
	r.Use(auth.IdentityMiddleware(auth.NewIdentityResolver(sessions, users)))
	h.RegisterRoutes(r, auth.RequireLogin())

	return &handlerEnv{
		router:    r,
		mock:      mock,
		uploadDir: uploadDir,
		cookie:    &http.Cookie{Name: auth.SessionCookieName, Value: token},
	}
}

func (e *handlerEnv) do(req *http.Request, withCookie bool) *httptest.ResponseRecorder {
	if withCookie {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, content, filename string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", content))
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_FeedAnonymousEscapesContent(t *testing.T) {
	env := newHandlerEnv(t)

	env.mock.ExpectQuery(`SELECT posts.id`).WithArgs(FeedLimit).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(int64(1), int64(2), "bob", "<script>alert(1)</script>", nil, int64(100)))

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "me=")
	assert.NotContains(t, w.Body.String(), "<script>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestHandler_FeedLoggedIn(t *testing.T) {
	env := newHandlerEnv(t)

	env.mock.ExpectQuery(`SELECT posts.id`).WithArgs(FeedLimit).WillReturnRows(sqlmock.NewRows(postColumns))

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me=alice;")
}

func TestHandler_LoginRequired(t *testing.T) {
	env := newHandlerEnv(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/profile", nil),
		httptest.NewRequest(http.MethodPost, "/post", nil),
	} {
		w := env.do(req, false)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	}
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandler_CreatePostWithImage(t *testing.T) {
	env := newHandlerEnv(t)
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

	env.mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "look", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	body, contentType := multipartBody(t, "look", "pic.PNG", png)
	req := httptest.NewRequest(http.MethodPost, "/post", body)
	req.Header.Set("Content-Type", contentType)

	w := env.do(req, true)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.NoError(t, env.mock.ExpectationsWereMet())

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^[0-9a-f]{16}\.png$`, entries[0].Name())
}

func TestHandler_CreatePostRejectsNonImage(t *testing.T) {
	env := newHandlerEnv(t)

	env.mock.ExpectQuery(`SELECT posts.id`).WithArgs(FeedLimit).WillReturnRows(sqlmock.NewRows(postColumns))

	body, contentType := multipartBody(t, "hi", "evil.png", []byte("<html>not an image</html>"))
	req := httptest.NewRequest(http.MethodPost, "/post", body)
	req.Header.Set("Content-Type", contentType)

	w := env.do(req, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "err="+msgInvalidImage)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandler_CreatePostEmpty(t *testing.T) {
	env := newHandlerEnv(t)

	env.mock.ExpectQuery(`SELECT posts.id`).WithArgs(FeedLimit).WillReturnRows(sqlmock.NewRows(postColumns))

	body, contentType := multipartBody(t, "   ", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/post", body)
	req.Header.Set("Content-Type", contentType)

	w := env.do(req, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "err="+msgEmptyPost)
}

func TestHandler_Profile(t *testing.T) {
	env := newHandlerEnv(t)

	env.mock.ExpectQuery(`WHERE posts.user_id = \$1`).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(int64(5), int64(1), "alice", "mine", nil, int64(100)))

	w := env.do(httptest.NewRequest(http.MethodGet, "/profile", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "profile=alice;[mine]", w.Body.String())
}
