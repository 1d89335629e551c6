// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works, and ":memory:" databases
// keep the tests fast.
//
// One *DB owns the connection pool; the per-table stores hanging off it
// (Users, Sessions, Games, Exchanges) share that pool. All tables live in
// one database file, which is what lets the accept transition span the
// games and exchanges tables inside one transaction.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and exposes one store per table.
type DB struct {
	conn *sql.DB

	Users     *UserStore
	Sessions  *SessionStore
	Games     *GameStore
	Exchanges *ExchangeStore
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection in that case.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// issue surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress; the busy
	// timeout makes a second writer wait instead of failing with
	// SQLITE_BUSY. Foreign keys are off by default in SQLite.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.Users = &UserStore{conn: conn}
	db.Sessions = &SessionStore{conn: conn}
	db.Games = &GameStore{conn: conn}
	db.Exchanges = &ExchangeStore{conn: conn}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
//
// The two constraints the rest of the system leans on:
//   - users.email is UNIQUE (NOCASE) — duplicate registration → conflict
//   - exchanges.game_id is the PRIMARY KEY — at most one pending offer per
//     game, enforced by the store even under concurrent inserts
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash  TEXT NOT NULL,
			street_address TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS games (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL,
			publisher       TEXT NOT NULL,
			year            INTEGER NOT NULL,
			condition       TEXT NOT NULL,
			previous_owners INTEGER NOT NULL DEFAULT 0,
			owned_by        INTEGER NOT NULL REFERENCES users(id)
		);
		CREATE INDEX IF NOT EXISTS idx_games_owned_by ON games(owned_by);

		CREATE TABLE IF NOT EXISTS game_platforms (
			platform TEXT NOT NULL,
			game_id  INTEGER NOT NULL REFERENCES games(id),
			PRIMARY KEY (platform, game_id)
		);

		CREATE TABLE IF NOT EXISTS sessions (
			user_id INTEGER PRIMARY KEY REFERENCES users(id),
			token   TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS exchanges (
			game_id    INTEGER PRIMARY KEY REFERENCES games(id),
			to_user_id INTEGER NOT NULL REFERENCES users(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique/primary-key
// constraint failure. The driver's result codes are checked first; the
// message match is a fallback for wrapped errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
