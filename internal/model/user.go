// Package model defines the data structures used throughout the application.
package model

// User represents a registered account that can own and trade games.
//
// WHY int64 FOR THE ID?
// IDs are generated by the database (AUTOINCREMENT). int64 matches what
// database/sql hands back from LastInsertId, so there's no conversion
// anywhere in the stack.
//
// The password hash never leaves the server: the `json:"-"` tag guarantees
// it is skipped by every encoder, so even a careless handler can't leak it.
type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"` // stored lowercase; unique
	PasswordHash  string `json:"-"`
	StreetAddress string `json:"streetAddress"`
}
