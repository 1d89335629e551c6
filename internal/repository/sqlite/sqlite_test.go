package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/game-exchange/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database.
// Each test gets a fresh schema; the connection is closed on cleanup.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(\":memory:\") error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// createTestUser inserts a user with a derived email and returns it.
func createTestUser(t *testing.T, db *DB, tag string) *model.User {
	t.Helper()

	user := &model.User{
		Name:          "Test " + tag,
		Email:         fmt.Sprintf("%s@example.com", tag),
		PasswordHash:  "$2a$04$notarealhashbutlongenough1234567890abcdef",
		StreetAddress: "1 Test Street",
	}
	if err := db.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %q: %v", tag, err)
	}
	return user
}

// createTestGame inserts a game owned by ownerID and returns it.
func createTestGame(t *testing.T, db *DB, ownerID int64) *model.Game {
	t.Helper()

	game := &model.Game{
		Name:      "Chrono Trigger",
		Publisher: "Square",
		Year:      1995,
		Condition: model.ConditionGood,
		Platforms: []string{"snes"},
		OwnedBy:   ownerID,
	}
	if err := db.Games.Create(context.Background(), game); err != nil {
		t.Fatalf("creating test game: %v", err)
	}
	return game
}
