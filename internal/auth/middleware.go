package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the user id stored in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes.
//
// It resolves the Authorization header through the SessionResolver and
// stores the user id in the request context. A missing or unresolvable
// credential stops the chain with 401 — the body mirrors the handler
// package's error shape so clients see one consistent format.
func RequireAuth(resolver *SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"missing or invalid bearer token in Authorization header"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's id from the request
// context. Returns (0, false) if the request never went through RequireAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id != 0
}
