package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/service"
)

// ExchangeHandler exposes the transfer-offer workflow: create, inspect,
// withdraw, and accept. All routes require auth; who may do what is
// decided by the ExchangeService.
type ExchangeHandler struct {
	exchanges *service.ExchangeService
	logger    *slog.Logger
}

func NewExchangeHandler(exchanges *service.ExchangeService, logger *slog.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges, logger: logger}
}

// HandleCreate offers a game to another user.
//
// HTTP: POST /exchange/{gameID} (owner only)
// Body: {"toUserEmail": "..."} — unknown fields are rejected.
func (h *ExchangeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		ToUserEmail string `json:"toUserEmail"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if field, ok := unknownField(err); ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "unknown field in the request body",
				Field:   field,
			})
			return
		}
		writeParseError(w)
		return
	}

	offer, err := h.exchanges.CreateOffer(r.Context(), userID, gameID, body.ToUserEmail)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// HandleGet returns the pending offer for a game.
//
// HTTP: GET /exchange/{gameID} (offeror or offeree)
func (h *ExchangeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.exchanges.GetOffer(r.Context(), userID, gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// HandleDelete withdraws a pending offer.
//
// HTTP: DELETE /exchange/{gameID} (owner only)
func (h *ExchangeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.exchanges.CancelOffer(r.Context(), userID, gameID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "offer cancelled",
	})
}

// HandleReceive accepts a pending offer, transferring ownership to the
// caller.
//
// HTTP: POST /receive/{gameID} (offeree only)
// Responds with the updated game: new owner, incremented transfer counter.
func (h *ExchangeHandler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "gameID")
	if err != nil {
		writeError(w, err)
		return
	}

	game, err := h.exchanges.AcceptOffer(r.Context(), userID, gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}
