package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/repository"
)

// ExchangeStore persists pending transfer offers. Constructed by New.
type ExchangeStore struct {
	conn *sql.DB
}

var _ repository.ExchangeRepository = (*ExchangeStore)(nil)

// Create inserts a pending offer.
//
// game_id is the primary key of exchanges, so this insert — not any prior
// read — is what enforces "at most one offer per game". When two creates
// race, SQLite lets exactly one through and the loser gets a constraint
// violation, which comes back as a conflict.
func (s *ExchangeStore) Create(ctx context.Context, gameID, toUserID int64) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO exchanges (game_id, to_user_id) VALUES (?, ?)`,
		gameID, toUserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("an offer already exists for game %d", gameID))
		}
		return fmt.Errorf("sqlite: inserting exchange for game %d: %w", gameID, err)
	}
	return nil
}

// GetByGameID retrieves the pending offer for a game, if any.
func (s *ExchangeStore) GetByGameID(ctx context.Context, gameID int64) (*model.Exchange, error) {
	var ex model.Exchange
	err := s.conn.QueryRowContext(ctx,
		`SELECT game_id, to_user_id FROM exchanges WHERE game_id = ?`, gameID,
	).Scan(&ex.GameID, &ex.ToUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("exchange", gameID)
		}
		return nil, fmt.Errorf("sqlite: getting exchange for game %d: %w", gameID, err)
	}
	return &ex, nil
}

// Delete removes a pending offer.
func (s *ExchangeStore) Delete(ctx context.Context, gameID int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM exchanges WHERE game_id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting exchange for game %d: %w", gameID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("exchange", gameID)
	}
	return nil
}

// Accept commits the ownership handoff atomically.
//
// The offer delete, the owner change, and the counter increment run in one
// transaction, and the conditional DELETE is the gate: it only matches a
// row naming toUserID as the offeree, so if the offer was cancelled,
// already accepted, or re-created for someone else in the meantime, zero
// rows match and the whole transition aborts with NotFound. No observer
// ever sees ownership changed with the offer still present, or vice versa.
func (s *ExchangeStore) Accept(ctx context.Context, gameID, toUserID int64) (*model.Game, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning accept: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM exchanges WHERE game_id = ? AND to_user_id = ?`,
		gameID, toUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deleting accepted exchange for game %d: %w", gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking accepted exchange for game %d: %w", gameID, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("exchange", gameID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET owned_by = ?, previous_owners = previous_owners + 1
		 WHERE id = ?`,
		toUserID, gameID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: transferring game %d: %w", gameID, err)
	}

	game, err := getGame(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing accept for game %d: %w", gameID, err)
	}
	return game, nil
}
