package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/repository"
)

// UserStore persists user accounts. Constructed by New; shares the DB pool.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user and fills in user.ID.
//
// Emails are lowercased before storage so the UNIQUE (NOCASE) constraint
// and every later lookup agree on the canonical form. A duplicate email is
// reported as a conflict, not an internal error — the constraint violation
// IS the "already registered" check.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, street_address)
		 VALUES (?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.StreetAddress,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user with that email already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, street_address
		 FROM users WHERE id = ?`, id,
	), fmt.Sprintf("id %d", id))
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, street_address
		 FROM users WHERE email = ?`, strings.ToLower(email),
	), fmt.Sprintf("email %s", email))
}

func (s *UserStore) scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.StreetAddress)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundMsg("user not found with " + key)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", key, err)
	}
	return &u, nil
}

// UpdateDetails changes only the fields that are non-nil.
// Email and id are immutable; password changes go through UpdatePassword.
func (s *UserStore) UpdateDetails(ctx context.Context, id int64, name, streetAddress *string) error {
	if name == nil && streetAddress == nil {
		return nil
	}

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if streetAddress != nil {
		sets = append(sets, "street_address = ?")
		args = append(args, *streetAddress)
	}
	args = append(args, id)

	res, err := s.conn.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// UpdatePassword replaces the stored credential hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
