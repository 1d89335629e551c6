package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/notify"
	"github.com/sakif/game-exchange/internal/repository"
)

// AuthService handles registration, login, and profile updates.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users     repository.UserRepository    → account records
//   - sessions  repository.SessionRepository → token ↔ user mapping
//   - passwords *auth.PasswordService        → bcrypt hashing
//   - events    notify.Publisher             → post-commit notifications
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	passwords *auth.PasswordService
	events    notify.Publisher
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords *auth.PasswordService,
	events notify.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		events:    events,
		logger:    logger,
	}
}

// Register creates a new account and returns its first session token.
//
// The duplicate-email check is the store's unique constraint, surfaced as a
// conflict — no read-then-insert race.
func (s *AuthService) Register(ctx context.Context, name, email, password, streetAddress string) (string, error) {
	name = strings.TrimSpace(name)
	streetAddress = strings.TrimSpace(streetAddress)

	if err := validateName("name", name); err != nil {
		return "", err
	}
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if err := validateStreetAddress(streetAddress); err != nil {
		return "", err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		StreetAddress: streetAddress,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	token := auth.NewSessionToken()
	if err := s.sessions.Replace(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("service/auth: creating session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)
	return token, nil
}

// Login verifies credentials and issues a fresh session token, replacing
// any previous one for the same user.
//
// A wrong email and a wrong password both come back as the same
// unauthorized error — no account-existence oracle.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("email or password is incorrect")
		}
		return "", err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", apperror.Unauthorized("email or password is incorrect")
	}

	token := auth.NewSessionToken()
	if err := s.sessions.Replace(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("service/auth: replacing session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}

// UserUpdate carries a partial profile update. Nil fields are unchanged.
// Email is immutable; there is deliberately no field for it.
type UserUpdate struct {
	Name          *string
	StreetAddress *string
	Password      *string
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.StreetAddress == nil && u.Password == nil
}

// UpdateDetails applies a partial update to the authenticated user.
// A password change re-hashes the credential and emits a password-changed
// event after the write commits.
func (s *AuthService) UpdateDetails(ctx context.Context, userID int64, update UserUpdate) error {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if err := validateName("name", trimmed); err != nil {
			return err
		}
		update.Name = &trimmed
	}
	if update.StreetAddress != nil {
		trimmed := strings.TrimSpace(*update.StreetAddress)
		if err := validateStreetAddress(trimmed); err != nil {
			return err
		}
		update.StreetAddress = &trimmed
	}
	if update.Password != nil {
		if err := validatePassword(*update.Password); err != nil {
			return err
		}
	}

	if update.Name != nil || update.StreetAddress != nil {
		if err := s.users.UpdateDetails(ctx, userID, update.Name, update.StreetAddress); err != nil {
			return err
		}
	}

	if update.Password != nil {
		hash, err := s.passwords.Hash(*update.Password)
		if err != nil {
			return fmt.Errorf("service/auth: hashing new password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}

		// Post-commit only: the credential is already persisted, and a
		// notification failure must not undo that.
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("password changed but user lookup for notification failed",
				slog.Int64("userID", userID),
				slog.String("error", err.Error()),
			)
		} else {
			s.events.Publish(notify.PasswordChanged(user.Email))
		}

		s.logger.Info("password updated", slog.Int64("userID", userID))
	}

	return nil
}
