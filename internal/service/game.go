package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/repository"
)

// GameService handles the game catalogue: creation, reads, and the
// owner-only mutations. Every mutating operation checks existence first
// (not-found) and ownership second (forbidden) through the OwnershipGuard,
// so the two failures never blur together.
type GameService struct {
	games  repository.GameRepository
	guard  *OwnershipGuard
	logger *slog.Logger
}

func NewGameService(games repository.GameRepository, guard *OwnershipGuard, logger *slog.Logger) *GameService {
	return &GameService{
		games:  games,
		guard:  guard,
		logger: logger,
	}
}

// NewGame carries the caller-supplied fields for a game creation or a full
// replacement.
type NewGame struct {
	Name           string
	Publisher      string
	Year           int
	Condition      string
	PreviousOwners int64
	Platforms      []string
}

func (s *GameService) validateNewGame(in NewGame) (*model.Game, error) {
	name := strings.TrimSpace(in.Name)
	publisher := strings.TrimSpace(in.Publisher)

	if err := validateName("name", name); err != nil {
		return nil, err
	}
	if err := validateName("publisher", publisher); err != nil {
		return nil, err
	}
	if err := validateYear(in.Year); err != nil {
		return nil, err
	}
	condition, err := validateCondition(in.Condition)
	if err != nil {
		return nil, err
	}
	if err := validatePreviousOwners(in.PreviousOwners); err != nil {
		return nil, err
	}
	if len(in.Platforms) == 0 {
		return nil, errPlatformsRequired()
	}

	return &model.Game{
		Name:           name,
		Publisher:      publisher,
		Year:           in.Year,
		Condition:      condition,
		PreviousOwners: in.PreviousOwners,
		Platforms:      in.Platforms,
	}, nil
}

// Create validates and stores a new game owned by the creator.
func (s *GameService) Create(ctx context.Context, ownerID int64, in NewGame) (*model.Game, error) {
	game, err := s.validateNewGame(in)
	if err != nil {
		return nil, err
	}
	game.OwnedBy = ownerID

	if err := s.games.Create(ctx, game); err != nil {
		s.logger.Error("failed to create game",
			slog.String("name", game.Name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("game created",
		slog.Int64("gameID", game.ID),
		slog.Int64("ownerID", ownerID),
	)
	return game, nil
}

// GetByID returns a game. Any authenticated user may read any game.
func (s *GameService) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	return s.games.GetByID(ctx, id)
}

// Update fully replaces a game's descriptive fields. Owner only.
func (s *GameService) Update(ctx context.Context, requesterID, gameID int64, in NewGame) (*model.Game, error) {
	if err := s.guard.Authorize(ctx, requesterID, gameID); err != nil {
		return nil, err
	}

	game, err := s.validateNewGame(in)
	if err != nil {
		return nil, err
	}
	game.ID = gameID

	if err := s.games.Update(ctx, game); err != nil {
		return nil, err
	}

	s.logger.Info("game updated", slog.Int64("gameID", gameID))
	return s.games.GetByID(ctx, gameID)
}

// GameUpdate carries a partial game update. Nil fields are unchanged.
type GameUpdate struct {
	Name           *string
	Publisher      *string
	Year           *int
	Condition      *string
	PreviousOwners *int64
	Platforms      []string
}

// Empty reports whether the patch would change nothing.
func (u GameUpdate) Empty() bool {
	return u.Name == nil && u.Publisher == nil && u.Year == nil &&
		u.Condition == nil && u.PreviousOwners == nil && u.Platforms == nil
}

// Patch applies a partial update. Owner only. Returns the current record
// unchanged when the patch is empty.
func (s *GameService) Patch(ctx context.Context, requesterID, gameID int64, update GameUpdate) (*model.Game, error) {
	if err := s.guard.Authorize(ctx, requesterID, gameID); err != nil {
		return nil, err
	}

	if update.Empty() {
		return s.games.GetByID(ctx, gameID)
	}

	patch := repository.GamePatch{
		Year:           update.Year,
		PreviousOwners: update.PreviousOwners,
		Platforms:      update.Platforms,
	}
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if err := validateName("name", trimmed); err != nil {
			return nil, err
		}
		patch.Name = &trimmed
	}
	if update.Publisher != nil {
		trimmed := strings.TrimSpace(*update.Publisher)
		if err := validateName("publisher", trimmed); err != nil {
			return nil, err
		}
		patch.Publisher = &trimmed
	}
	if update.Year != nil {
		if err := validateYear(*update.Year); err != nil {
			return nil, err
		}
	}
	if update.Condition != nil {
		condition, err := validateCondition(*update.Condition)
		if err != nil {
			return nil, err
		}
		patch.Condition = &condition
	}
	if update.PreviousOwners != nil {
		if err := validatePreviousOwners(*update.PreviousOwners); err != nil {
			return nil, err
		}
	}

	if err := s.games.Patch(ctx, gameID, patch); err != nil {
		return nil, err
	}

	s.logger.Info("game patched", slog.Int64("gameID", gameID))
	return s.games.GetByID(ctx, gameID)
}

// Delete removes a game. Owner only. Returns the record as it was, so the
// caller can echo what was deleted.
func (s *GameService) Delete(ctx context.Context, requesterID, gameID int64) (*model.Game, error) {
	if err := s.guard.Authorize(ctx, requesterID, gameID); err != nil {
		return nil, err
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err := s.games.Delete(ctx, gameID); err != nil {
		return nil, err
	}

	s.logger.Info("game deleted",
		slog.Int64("gameID", gameID),
		slog.Int64("ownerID", requesterID),
	)
	return game, nil
}
