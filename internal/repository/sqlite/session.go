package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/repository"
)

// SessionStore maps bearer tokens to user ids. Constructed by New.
type SessionStore struct {
	conn *sql.DB
}

var _ repository.SessionRepository = (*SessionStore)(nil)

// Replace stores the user's session token, overwriting any previous one.
//
// user_id is the primary key of sessions, so the upsert is the "latest
// login wins" rule: a second login replaces the token in place, which
// immediately invalidates the old one — no append, no cleanup job.
func (s *SessionStore) Replace(ctx context.Context, userID int64, token string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (user_id, token) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET token = excluded.token`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: replacing session for user %d: %w", userID, err)
	}
	return nil
}

// UserIDByToken resolves a bearer token to a user id.
// Returns apperror.ErrNotFound for an unknown token — the caller decides
// how (and whether) to distinguish that from a malformed credential.
func (s *SessionStore) UserIDByToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token = ?`, token,
	).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFoundMsg("no session for token")
		}
		return 0, fmt.Errorf("sqlite: resolving session token: %w", err)
	}
	return userID, nil
}
