package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proconnect/internal/database"
)

func newPostgresStoreWithMock(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(database.NewWithDB(db)), mock
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectExec(`^INSERT INTO sessions \(token, user_id, expires\) VALUES \(\$1, \$2, \$3\)$`).
		WithArgs("tok", int64(1), int64(1_700_604_800)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), Session{Token: "tok", UserID: 1, ExpiresAt: 1_700_604_800})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectQuery(`^SELECT user_id, expires FROM sessions WHERE token = \$1$`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires"}).AddRow(int64(9), int64(123)))

	sess, err := store.Get(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &Session{Token: "tok", UserID: 9, ExpiresAt: 123}, sess)
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectQuery(`^SELECT user_id, expires FROM sessions`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPostgresStore_GetDBError(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectQuery(`^SELECT user_id, expires FROM sessions`).
		WithArgs("tok").
		WillReturnError(errors.New("db down"))

	_, err := store.Get(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestPostgresStore_DeleteAndExists(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(`^DELETE FROM sessions WHERE token = \$1$`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT EXISTS \(SELECT 1 FROM sessions WHERE token = \$1\)$`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	require.NoError(t, store.Delete(ctx, "tok"))
	exists, err := store.Exists(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectExec(`^DELETE FROM sessions WHERE expires < \$1$`).
		WithArgs(int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.DeleteExpired(context.Background(), 500)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestManager_WithPostgresStore_LazyExpiry(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)
	now := time.Unix(2_000, 0)
	mgr := NewManager(store, WithClock(func() time.Time { return now }))

	mock.ExpectQuery(`^SELECT user_id, expires FROM sessions`).
		WithArgs("stale").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires"}).AddRow(int64(1), int64(1_999)))
	mock.ExpectExec(`^DELETE FROM sessions WHERE token = \$1$`).
		WithArgs("stale").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := mgr.Resolve(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrSessionExpired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{Token: "a", UserID: 1, ExpiresAt: 10}))
	require.NoError(t, store.Save(ctx, Session{Token: "b", UserID: 1, ExpiresAt: 20}))
	require.NoError(t, store.Save(ctx, Session{Token: "c", UserID: 2, ExpiresAt: 30}))

	n, err := store.DeleteExpired(ctx, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for token, want := range map[string]bool{"a": false, "b": true, "c": true} {
		got, err := store.Exists(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, want, got, "token %s", token)
	}
}

func TestSweeper_SweepOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, Session{Token: "a", UserID: 1, ExpiresAt: 10}))
	require.NoError(t, store.Save(ctx, Session{Token: "b", UserID: 1, ExpiresAt: 100}))

	sw := NewSweeper(store, time.Minute, nil)
	sw.now = func() time.Time { return time.Unix(50, 0) }

	n, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestRedisStore_Key(t *testing.T) {
	assert.Equal(t, "session:abc", redisKey("abc"))
}

func TestRedisTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, DefaultTTL+time.Second, redisTTL(now.Add(DefaultTTL).Unix(), now))
	assert.Equal(t, time.Second, redisTTL(now.Unix(), now))
	assert.Equal(t, minRedisTTL, redisTTL(now.Add(-time.Hour).Unix(), now))
	assert.Equal(t, minRedisTTL, redisTTL(now.Unix()-1, now))
}

func TestRedisStore_UnreachableIsNotNotFound(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	m := NewManager(NewRedisStore(client))

	_, err := m.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
	assert.False(t, errors.Is(err, ErrSessionExpired))
}
