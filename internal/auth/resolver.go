package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/repository"
)

// SessionResolver maps a raw Authorization header value to a user identity.
//
// Every failure — missing header, wrong scheme, empty token, token not in
// the store — collapses into the same unauthorized signal. Callers (and
// attackers) can't tell a malformed credential from an unknown one.
type SessionResolver struct {
	sessions repository.SessionRepository
}

func NewSessionResolver(sessions repository.SessionRepository) *SessionResolver {
	return &SessionResolver{sessions: sessions}
}

// Resolve parses a "Bearer <token>" header and looks the token up in the
// session store. Pure lookup, no side effects.
func (r *SessionResolver) Resolve(ctx context.Context, header string) (int64, error) {
	token, ok := parseBearer(header)
	if !ok {
		return 0, apperror.Unauthorized("missing or invalid bearer token in Authorization header")
	}

	userID, err := r.sessions.UserIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.Unauthorized("could not find user from provided bearer token")
		}
		return 0, err
	}
	return userID, nil
}

// parseBearer extracts the token from a two-part "Bearer <token>" header.
func parseBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
