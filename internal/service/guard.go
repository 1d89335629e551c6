package service

import (
	"context"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/repository"
)

// OwnershipGuard decides whether a user may mutate a given game.
//
// Existence is checked before ownership, so a request against a missing
// game reports not-found rather than forbidden — the two failures stay
// distinct for callers. Pure read, no mutation, and never cached: after an
// accepted offer the next call already reflects the new owner.
type OwnershipGuard struct {
	games repository.GameRepository
}

func NewOwnershipGuard(games repository.GameRepository) *OwnershipGuard {
	return &OwnershipGuard{games: games}
}

// Authorize returns nil iff userID is the game's current owner.
// Returns apperror.ErrNotFound if the game doesn't exist and
// apperror.ErrForbidden for any other user.
func (g *OwnershipGuard) Authorize(ctx context.Context, userID, gameID int64) error {
	ownerID, err := g.games.OwnerID(ctx, gameID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return apperror.Forbidden("user is not authorized to modify this game")
	}
	return nil
}
