// Package service contains the business logic layer: input validation,
// authorization rules, and the offer state machine. Handlers parse HTTP and
// delegate here; repositories persist whatever this layer decides.
package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/model"
)

// Field length limits. Mirrors the column widths in the schema.
const (
	MinNameLength          = 2
	MaxNameLength          = 50
	MinPasswordLength      = 3
	MaxPasswordLength      = 60
	MinStreetAddressLength = 2
	MaxStreetAddressLength = 100
)

var emailPattern = regexp.MustCompile(`^(?i)(\w+(\.\w)?)+@(\w+(\.\w)?)+\.\w{2,4}$`)

func validateName(field, name string) error {
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be between %d and %d characters", field, MinNameLength, MaxNameLength))
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}
	return nil
}

func validateStreetAddress(address string) error {
	if len(address) < MinStreetAddressLength || len(address) > MaxStreetAddressLength {
		return apperror.ValidationFailed("streetAddress",
			fmt.Sprintf("street address must be between %d and %d characters", MinStreetAddressLength, MaxStreetAddressLength))
	}
	return nil
}

func validateYear(year int) error {
	if year <= 0 || year > time.Now().Year() {
		return apperror.ValidationFailed("year", "year must be positive and not in the future")
	}
	return nil
}

func validateCondition(raw string) (model.Condition, error) {
	condition, ok := model.ParseCondition(raw)
	if !ok {
		return "", apperror.ValidationFailed("condition",
			"condition must be one of: mint, good, fair, poor")
	}
	return condition, nil
}

func errPlatformsRequired() error {
	return apperror.ValidationFailed("platforms", "at least one platform is required")
}

func validatePreviousOwners(owners int64) error {
	if owners < 0 {
		return apperror.ValidationFailed("previousOwners", "previousOwners must not be negative")
	}
	return nil
}
