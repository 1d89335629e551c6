package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/service"
)

// UserHandler exposes registration, login, and profile updates.
//
// Handlers only parse HTTP and translate results; every rule — validation,
// credential checks, session replacement — lives in the AuthService.
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUserHandler(authService *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: authService, logger: logger}
}

// tokenResponse is returned by both registration and login.
type tokenResponse struct {
	Token string `json:"token"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /user
// Body: {"name","email","password","streetAddress"}
// 201 {"token":...} on success, 409 if the email is taken.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		StreetAddress string `json:"streetAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeParseError(w)
		return
	}

	token, err := h.auth.Register(r.Context(), body.Name, body.Email, body.Password, body.StreetAddress)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// HandleLogin verifies credentials and issues a fresh session token.
//
// HTTP: PUT /user
// Body: {"email","password"}
// The new token supersedes any previous one for the same user.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeParseError(w)
		return
	}

	token, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// HandleUpdate applies a partial profile update to the authenticated user.
//
// HTTP: PATCH /user (requires auth)
// Body: any of {"name","streetAddress","password"} — unknown fields are
// rejected, an empty patch is a 204 no-op, and email is immutable.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	var body struct {
		Name          *string `json:"name"`
		StreetAddress *string `json:"streetAddress"`
		Password      *string `json:"password"`
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

	update := service.UserUpdate{
		Name:          body.Name,
		StreetAddress: body.StreetAddress,
		Password:      body.Password,
	}
	if update.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.auth.UpdateDetails(r.Context(), userID, update); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "user details updated successfully",
		"name":          body.Name,
		"streetAddress": body.StreetAddress,
	})
}

// unknownField extracts the field name from encoding/json's
// DisallowUnknownFields error. The stdlib only exposes it in the message
// (`json: unknown field "xyz"`), so this parses it out.
func unknownField(err error) (string, bool) {
	msg := err.Error()
	const prefix = `json: unknown field "`
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(msg, prefix), `"`), true
}
