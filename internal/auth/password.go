// Package auth — credential primitives: bcrypt password hashing and opaque
// session tokens, plus the HTTP middleware that resolves a bearer token to
// a user identity.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which is the point: brute-forcing a stolen
// hash database becomes expensive. It also generates and embeds a random
// salt per hash, so no separate salt column is needed and two users with
// the same password get different hashes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for a login, brutal for an attacker.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// the minimum cost (4) to avoid paying ~250ms per hash, and deployments can
// tune the work factor through config.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// A cost of 0 (or anything below bcrypt's minimum) falls back to the
// default.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output embeds
// the salt and cost; store it directly.
//
// Plaintexts over 72 bytes are rejected explicitly — bcrypt would silently
// truncate them otherwise.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match. The underlying comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
