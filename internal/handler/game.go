package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/service"
)

// GameHandler exposes the game catalogue. All routes sit behind the auth
// middleware; mutations are additionally owner-gated by the service.
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, logger: logger}
}

// gameBody is the request shape for create and full update.
type gameBody struct {
	Name           string   `json:"name"`
	Publisher      string   `json:"publisher"`
	Year           int      `json:"year"`
	Condition      string   `json:"condition"`
	PreviousOwners int64    `json:"previousOwners"`
	Platforms      []string `json:"platforms"`
}

func (b gameBody) toNewGame() service.NewGame {
	return service.NewGame{
		Name:           b.Name,
		Publisher:      b.Publisher,
		Year:           b.Year,
		Condition:      b.Condition,
		PreviousOwners: b.PreviousOwners,
		Platforms:      b.Platforms,
	}
}

// HandleCreate stores a new game owned by the caller.
//
// HTTP: POST /game
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var body gameBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeParseError(w)
		return
	}

	game, err := h.games.Create(r.Context(), userID, body.toNewGame())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

// HandleGet returns one game with its platform tags.
//
// HTTP: GET /game/{id}
func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.GetByID(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// HandleUpdate fully replaces a game's descriptive fields.
//
// HTTP: PUT /game/{id} (owner only)
func (h *GameHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body gameBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeParseError(w)
		return
	}

	game, err := h.games.Update(r.Context(), userID, gameID, body.toNewGame())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// HandlePatch applies a partial update.
//
// HTTP: PATCH /game/{id} (owner only)
// An empty patch returns 204 without touching the record; unknown fields
// are rejected.
func (h *GameHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Name           *string  `json:"name"`
		Publisher      *string  `json:"publisher"`
		Year           *int     `json:"year"`
		Condition      *string  `json:"condition"`
		PreviousOwners *int64   `json:"previousOwners"`
		Platforms      []string `json:"platforms"`
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

	update := service.GameUpdate{
		Name:           body.Name,
		Publisher:      body.Publisher,
		Year:           body.Year,
		Condition:      body.Condition,
		PreviousOwners: body.PreviousOwners,
		Platforms:      body.Platforms,
	}
	if update.Empty() {
		// Ownership still applies to a no-op patch, so route it through
		// the service rather than short-circuiting here.
		if _, err := h.games.Patch(r.Context(), userID, gameID, update); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	game, err := h.games.Patch(r.Context(), userID, gameID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// HandleDelete removes a game and echoes the deleted record.
//
// HTTP: DELETE /game/{id} (owner only)
func (h *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	gameID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.Delete(r.Context(), userID, gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// pathID parses a numeric id from a chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, "id must be a positive integer")
	}
	return id, nil
}
