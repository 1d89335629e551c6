package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/notify"
	"github.com/sakif/game-exchange/internal/repository"
)

// ExchangeService runs the ownership-transfer state machine.
//
// Per game the states are Owned(owner) ⇄ OfferPending(owner, offeree) →
// Owned(offeree). The state is never stored as a column: the existence of
// an exchange row IS the pending state.
//
// Two store guarantees carry all the concurrency weight:
//   - the exchanges primary key on game id makes the insert the one true
//     "no offer yet" check, so two racing CreateOffer calls can't both win;
//   - Accept's transaction makes owner change + counter increment + row
//     delete indivisible.
//
// Any service-level read before those operations is advisory only — it
// produces nicer error ordering, never correctness.
type ExchangeService struct {
	games     repository.GameRepository
	users     repository.UserRepository
	exchanges repository.ExchangeRepository
	guard     *OwnershipGuard
	events    notify.Publisher
	logger    *slog.Logger
}

func NewExchangeService(
	games repository.GameRepository,
	users repository.UserRepository,
	exchanges repository.ExchangeRepository,
	guard *OwnershipGuard,
	events notify.Publisher,
	logger *slog.Logger,
) *ExchangeService {
	return &ExchangeService{
		games:     games,
		users:     users,
		exchanges: exchanges,
		guard:     guard,
		events:    events,
		logger:    logger,
	}
}

// Offer is the outward view of a pending exchange: the game and who it was
// offered to, by email rather than internal id.
type Offer struct {
	GameID      int64  `json:"gameID"`
	ToUserEmail string `json:"toUserEmail"`
}

// CreateOffer records that the game's owner offers it to the user behind
// offereeEmail.
//
// Preconditions, checked in order, each with its own failure:
//  1. game exists            → not found
//  2. requester is the owner → forbidden
//  3. offeree email resolves → not found
//  4. offeree ≠ requester    → validation (no self-transfer)
//  5. no offer exists yet    → conflict, decided by the insert itself
func (s *ExchangeService) CreateOffer(ctx context.Context, requesterID, gameID int64, offereeEmail string) (*Offer, error) {
	if err := s.guard.Authorize(ctx, requesterID, gameID); err != nil {
		return nil, err
	}

	if err := validateEmail(offereeEmail); err != nil {
		return nil, err
	}
	offeree, err := s.users.GetByEmail(ctx, offereeEmail)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMsg("no user found with email " + strings.ToLower(offereeEmail))
		}
		return nil, err
	}

	if offeree.ID == requesterID {
		return nil, apperror.ValidationFailed("toUserEmail", "cannot offer a game to yourself")
	}

	// The store's uniqueness constraint is authoritative here: under
	// concurrency exactly one insert succeeds and the rest surface as
	// conflicts.
	if err := s.exchanges.Create(ctx, gameID, offeree.ID); err != nil {
		return nil, err
	}

	s.logger.Info("offer created",
		slog.Int64("gameID", gameID),
		slog.Int64("offerorID", requesterID),
		slog.Int64("offereeID", offeree.ID),
	)
	s.publishOfferEvent(ctx, notify.KindOfferCreated, requesterID, offeree.Email)

	return &Offer{GameID: gameID, ToUserEmail: offeree.Email}, nil
}

// GetOffer returns the pending offer for a game.
//
// Readable by the game's owner and the named offeree; anyone else gets
// forbidden. The game is checked first so a missing game reads as not
// found, not as a permission problem.
func (s *ExchangeService) GetOffer(ctx context.Context, requesterID, gameID int64) (*Offer, error) {
	ownerID, err := s.games.OwnerID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	exchange, err := s.exchanges.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if requesterID != ownerID && requesterID != exchange.ToUserID {
		return nil, apperror.Forbidden("only the offeror or offeree may view this offer")
	}

	offeree, err := s.users.GetByID(ctx, exchange.ToUserID)
	if err != nil {
		return nil, err
	}
	return &Offer{GameID: gameID, ToUserEmail: offeree.Email}, nil
}

// CancelOffer withdraws a pending offer. Owner only; the game itself is
// untouched. Cancelling when no offer exists reports not found.
func (s *ExchangeService) CancelOffer(ctx context.Context, requesterID, gameID int64) error {
	if err := s.guard.Authorize(ctx, requesterID, gameID); err != nil {
		return err
	}

	exchange, err := s.exchanges.GetByGameID(ctx, gameID)
	if err != nil {
		return err
	}

	if err := s.exchanges.Delete(ctx, gameID); err != nil {
		return err
	}

	s.logger.Info("offer cancelled",
		slog.Int64("gameID", gameID),
		slog.Int64("offerorID", requesterID),
	)

	if offeree, err := s.users.GetByID(ctx, exchange.ToUserID); err == nil {
		s.publishOfferEvent(ctx, notify.KindOfferRejected, requesterID, offeree.Email)
	}
	return nil
}

// AcceptOffer commits the ownership handoff to the requester.
//
// Only the named offeree may accept. The repository's Accept performs the
// transition as one atomic unit; a vanished offer (cancelled, or already
// accepted) comes back as not found from the same gate, so racing accepts
// can't double-transfer.
func (s *ExchangeService) AcceptOffer(ctx context.Context, requesterID, gameID int64) (*model.Game, error) {
	previousOwnerID, err := s.games.OwnerID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	exchange, err := s.exchanges.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if exchange.ToUserID != requesterID {
		return nil, apperror.Forbidden("only the named offeree may accept this offer")
	}

	game, err := s.exchanges.Accept(ctx, gameID, requesterID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer accepted",
		slog.Int64("gameID", gameID),
		slog.Int64("previousOwnerID", previousOwnerID),
		slog.Int64("newOwnerID", requesterID),
	)

	// The previous owner read above may be stale only if the offer itself
	// changed underneath us, and then Accept would have failed. Safe to
	// use for the notification.
	if newOwner, err := s.users.GetByID(ctx, requesterID); err == nil {
		s.publishOfferEvent(ctx, notify.KindOfferAccepted, previousOwnerID, newOwner.Email)
	}

	return game, nil
}

// publishOfferEvent emits an offer lifecycle event carrying both parties'
// emails. Failures to resolve the offeror only cost the notification,
// never the transition — it already committed.
func (s *ExchangeService) publishOfferEvent(ctx context.Context, kind notify.Kind, offerorID int64, offereeEmail string) {
	offeror, err := s.users.GetByID(ctx, offerorID)
	if err != nil {
		s.logger.Error("offeror lookup for notification failed",
			slog.Int64("userID", offerorID),
			slog.String("error", err.Error()),
		)
		return
	}

	switch kind {
	case notify.KindOfferCreated:
		s.events.Publish(notify.OfferCreated(offeror.Email, offereeEmail))
	case notify.KindOfferAccepted:
		s.events.Publish(notify.OfferAccepted(offeror.Email, offereeEmail))
	case notify.KindOfferRejected:
		s.events.Publish(notify.OfferRejected(offeror.Email, offereeEmail))
	}
}
