package model

import "strings"

// Condition describes the physical state of a collectible game.
type Condition string

const (
	ConditionMint Condition = "mint"
	ConditionGood Condition = "good"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

// ParseCondition normalises and validates a condition string.
// Input is case-insensitive; the stored form is always lowercase.
func ParseCondition(s string) (Condition, bool) {
	c := Condition(strings.ToLower(s))
	switch c {
	case ConditionMint, ConditionGood, ConditionFair, ConditionPoor:
		return c, true
	}
	return "", false
}

// Game represents a physical game collectible with exactly one current owner.
//
// OwnedBy is a foreign reference to users.id — exactly one user id at any
// instant. PreviousOwners counts completed ownership transfers; it only
// moves forward, and only inside the atomic accept transition.
type Game struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Publisher      string    `json:"publisher"`
	Year           int       `json:"year"`
	Condition      Condition `json:"condition"`
	PreviousOwners int64     `json:"previousOwners"`
	Platforms      []string  `json:"platforms"` // stored lowercase
	OwnedBy        int64     `json:"ownedBy"`
}
