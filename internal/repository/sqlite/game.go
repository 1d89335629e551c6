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

// GameStore persists games and their platform tags. Constructed by New.
type GameStore struct {
	conn *sql.DB
}

var _ repository.GameRepository = (*GameStore)(nil)

// Create inserts a game and its platform tags, and fills in game.ID.
// The game row and its platforms are written in one transaction so a crash
// can't leave a game with half its platform set.
func (s *GameStore) Create(ctx context.Context, game *model.Game) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning game insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO games (name, publisher, year, condition, previous_owners, owned_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		game.Name,
		game.Publisher,
		game.Year,
		game.Condition,
		game.PreviousOwners,
		game.OwnedBy,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting game %q: %w", game.Name, err)
	}
	game.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted game id: %w", err)
	}

	if err := replacePlatforms(ctx, tx, game.ID, game.Platforms); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing game insert: %w", err)
	}
	return nil
}

// GetByID retrieves a game with its platform tags.
// Returns apperror.ErrNotFound if no game exists with that id.
func (s *GameStore) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	return getGame(ctx, s.conn, id)
}

// querier lets the game read path run against either the pool or an open
// transaction (Accept needs the latter).
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getGame(ctx context.Context, q querier, id int64) (*model.Game, error) {
	var g model.Game
	err := q.QueryRowContext(ctx,
		`SELECT id, name, publisher, year, condition, previous_owners, owned_by
		 FROM games WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Publisher, &g.Year, &g.Condition, &g.PreviousOwners, &g.OwnedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %d: %w", id, err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT platform FROM game_platforms WHERE game_id = ? ORDER BY platform`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting platforms for game %d: %w", id, err)
	}
	defer rows.Close()

	g.Platforms = []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("sqlite: scanning platform for game %d: %w", id, err)
		}
		g.Platforms = append(g.Platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: reading platforms for game %d: %w", id, err)
	}

	return &g, nil
}

// OwnerID returns the game's current owner without loading the full record.
func (s *GameStore) OwnerID(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT owned_by FROM games WHERE id = ?`, id,
	).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("game", id)
		}
		return 0, fmt.Errorf("sqlite: getting owner of game %d: %w", id, err)
	}
	return ownerID, nil
}

// Update replaces every descriptive field and the platform set.
// Ownership and the transfer counter are NOT touched here — those only
// change through the exchange accept path.
func (s *GameStore) Update(ctx context.Context, game *model.Game) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning game update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET name = ?, publisher = ?, year = ?, condition = ?, previous_owners = ?
		 WHERE id = ?`,
		game.Name, game.Publisher, game.Year, game.Condition, game.PreviousOwners, game.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating game %d: %w", game.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("game", game.ID)
	}

	if game.Platforms != nil {
		if err := replacePlatforms(ctx, tx, game.ID, game.Platforms); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing game update: %w", err)
	}
	return nil
}

// Patch updates only the fields set in patch.
func (s *GameStore) Patch(ctx context.Context, id int64, patch repository.GamePatch) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning game patch: %w", err)
	}
	defer tx.Rollback()

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Publisher != nil {
		sets = append(sets, "publisher = ?")
		args = append(args, *patch.Publisher)
	}
	if patch.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *patch.Year)
	}
	if patch.Condition != nil {
		sets = append(sets, "condition = ?")
		args = append(args, *patch.Condition)
	}
	if patch.PreviousOwners != nil {
		sets = append(sets, "previous_owners = ?")
		args = append(args, *patch.PreviousOwners)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			"UPDATE games SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return fmt.Errorf("sqlite: patching game %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperror.NotFound("game", id)
		}
	}

	if patch.Platforms != nil {
		if err := replacePlatforms(ctx, tx, id, patch.Platforms); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing game patch: %w", err)
	}
	return nil
}

// Delete removes a game together with its platform tags and any pending
// exchange, so no dangling references survive.
func (s *GameStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning game delete: %w", err)
	}
	defer tx.Rollback()

	// Referencing rows first — foreign keys are enforced.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exchanges WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting exchange for game %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM game_platforms WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting platforms for game %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting game %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("game", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing game delete: %w", err)
	}
	return nil
}

// replacePlatforms rewrites the full platform set for a game inside tx.
// Platforms are stored lowercase; duplicates after normalisation collapse
// onto the composite primary key, so they're skipped up front.
func replacePlatforms(ctx context.Context, tx *sql.Tx, gameID int64, platforms []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM game_platforms WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("sqlite: clearing platforms for game %d: %w", gameID, err)
	}

	seen := make(map[string]bool, len(platforms))
	for _, platform := range platforms {
		p := strings.ToLower(platform)
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_platforms (platform, game_id) VALUES (?, ?)`, p, gameID); err != nil {
			return fmt.Errorf("sqlite: inserting platform %q for game %d: %w", p, gameID, err)
		}
	}
	return nil
}
