// Package repository declares the storage contracts the services depend on.
//
// Services receive these interfaces, never a concrete *sqlite.DB — tests
// inject in-memory mocks, and the storage backend can change without the
// business logic noticing.
package repository

import (
	"context"

	"github.com/sakif/game-exchange/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user and fills in its ID.
	// Returns apperror.ErrConflict if the email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByEmail looks up a user by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateDetails changes only the non-nil fields.
	UpdateDetails(ctx context.Context, id int64, name, streetAddress *string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionRepository maps opaque bearer tokens to user identities.
type SessionRepository interface {
	// Replace stores the user's session token, overwriting any previous
	// one. A user has at most one live token; the newest login wins.
	Replace(ctx context.Context, userID int64, token string) error
	// UserIDByToken resolves a token to a user id.
	// Returns apperror.ErrNotFound for an unknown token.
	UserIDByToken(ctx context.Context, token string) (int64, error)
}

// GamePatch carries a partial game update. Nil fields are left unchanged;
// a nil Platforms slice means "keep the existing platform set".
type GamePatch struct {
	Name           *string
	Publisher      *string
	Year           *int
	Condition      *model.Condition
	PreviousOwners *int64
	Platforms      []string
}

// GameRepository persists games and their platform tags.
type GameRepository interface {
	// Create inserts a game (and its platforms) and fills in its ID.
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id int64) (*model.Game, error)
	// OwnerID returns the current owner without loading the whole record.
	// Returns apperror.ErrNotFound if the game doesn't exist.
	OwnerID(ctx context.Context, id int64) (int64, error)
	Update(ctx context.Context, game *model.Game) error
	Patch(ctx context.Context, id int64, patch GamePatch) error
	// Delete removes the game, its platforms, and any pending exchange.
	Delete(ctx context.Context, id int64) error
}

// ExchangeRepository persists pending transfer offers.
//
// The one-offer-per-game invariant lives HERE, not in the services: the
// store's uniqueness constraint on game id is the authoritative conflict
// signal. Any check the service performs beforehand is advisory only.
type ExchangeRepository interface {
	// Create inserts an offer. Returns apperror.ErrConflict if an offer
	// already exists for the game — including when two concurrent creates
	// race, in which case exactly one wins.
	Create(ctx context.Context, gameID, toUserID int64) error
	GetByGameID(ctx context.Context, gameID int64) (*model.Exchange, error)
	// Delete removes a pending offer.
	// Returns apperror.ErrNotFound if there is none.
	Delete(ctx context.Context, gameID int64) error
	// Accept commits the ownership handoff as one atomic unit: the offer
	// row for (gameID, toUserID) is deleted, the game's owner becomes
	// toUserID, and its transfer counter is incremented — all in a single
	// transaction. No observer ever sees a partial state.
	// Returns apperror.ErrNotFound if no such offer exists (e.g. it was
	// cancelled or already accepted), and the updated game on success.
	Accept(ctx context.Context, gameID, toUserID int64) (*model.Game, error)
}
