package auth

import "github.com/google/uuid"

// NewSessionToken returns a fresh opaque bearer credential.
//
// Tokens are random v4 UUIDs, not signed claims: validity is decided purely
// by a lookup in the sessions store, which is what lets a newer login
// invalidate the previous token by overwriting it. There is nothing to
// decode client-side and nothing to expire — a token lives until the next
// login for the same user replaces it.
func NewSessionToken() string {
	return uuid.NewString()
}
