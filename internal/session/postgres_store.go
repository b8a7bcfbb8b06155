package session

import (
	"context"
	"database/sql"
	"errors"

	"proconnect/internal/database"
)

type postgresStore struct {
	db database.Service
}

// NewPostgresStore returns a Store backed by the sessions table.
func NewPostgresStore(db database.Service) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Save(ctx context.Context, sess Session) error {
	const q = `INSERT INTO sessions (token, user_id, expires) VALUES ($1, $2, $3)`
	_, err := s.db.Exec(ctx, q, sess.Token, sess.UserID, sess.ExpiresAt)
	return err
}

func (s *postgresStore) Get(ctx context.Context, token string) (*Session, error) {
	const q = `SELECT user_id, expires FROM sessions WHERE token = $1`

	sess := Session{Token: token}
	err := s.db.QueryRow(ctx, q, token).Scan(&sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

func (s *postgresStore) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM sessions WHERE token = $1`
	_, err := s.db.Exec(ctx, q, token)
	return err
}

func (s *postgresStore) Exists(ctx context.Context, token string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM sessions WHERE token = $1)`
	var exists bool
	err := s.db.QueryRow(ctx, q, token).Scan(&exists)
	return exists, err
}

func (s *postgresStore) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires < $1`
	res, err := s.db.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
