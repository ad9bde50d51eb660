package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/repository"
)

// AccountService handles user account operations.
type AccountService struct {
	users UserStore
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users}
}

// EnsureUser ensures a user exists, creating one if necessary.
// Returns the user and whether it was newly created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if !created && user.Username != username && username != "" {
		if err := s.users.UpdateUsername(ctx, telegramID, username); err != nil {
			// The account exists either way.
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to update username")
		} else {
			user.Username = username
		}
	}

	return user, created, nil
}

// GetUser retrieves a user by their Telegram ID.
func (s *AccountService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
