package model

// Exchange is a pending offer to transfer one game to a named user.
//
// The row's existence is the only thing distinguishing "listed" from
// "pending transfer" — the game record itself is untouched until the offer
// is accepted. At most one exchange exists per game; the store enforces
// that with a primary key on GameID.
type Exchange struct {
	GameID   int64 `json:"gameID"`
	ToUserID int64 `json:"toUserID"`
}
