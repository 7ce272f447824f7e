package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/classfolio/classfolio-server/internal/logger"
	"github.com/classfolio/classfolio-server/internal/model"
)

// TokenPair bundles the two credentials returned by every issuing flow.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager with the user store
// that holds each account's refresh-token list.
type TokenService struct {
	manager model.TokenManager
	users   model.UserStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, users model.UserStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, users: users, logger: logger}
}

// Mint signs a fresh access/refresh pair without persisting anything.
// Callers that need the refresh token on the account row combine this
// with a single store update so both changes commit together.
func (s *TokenService) Mint(userID uuid.UUID) (TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Issue mints a pair and appends the refresh token to the account's list.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	pair, err := s.Mint(userID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.users.AppendRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return pair, nil
}

// Refresh rotates a presented refresh token: the old token leaves the
// account's list and a new pair is issued in its place. Every failure
// mode collapses to ErrInvalidRefreshToken so the caller reveals nothing
// about why a token was rejected.
func (s *TokenService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	userID, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		s.logger.Debug("Token service: refresh token failed verification",
			"error", err.Error())
		return TokenPair{}, model.ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, model.ErrInvalidRefreshToken
		}
		return TokenPair{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if !user.IsActive {
		return TokenPair{}, model.ErrInvalidRefreshToken
	}

	pair, err := s.Mint(userID)
	if err != nil {
		return TokenPair{}, err
	}

	rotated, err := s.users.RotateRefreshToken(ctx, userID, presented, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("rotate refresh: %w", err)
	}
	if !rotated {
		// The token verified but is not in the list: it was already
		// rotated away or revoked. Reuse is rejected.
		s.logger.Info("Token service: rejected reuse of rotated refresh token",
			"user_id", userID)
		return TokenPair{}, model.ErrInvalidRefreshToken
	}

	return pair, nil
}

// Revoke removes one refresh token from the account's list. Revoking a
// token that is already absent is a no-op.
func (s *TokenService) Revoke(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := s.users.RemoveRefreshToken(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// Authenticate resolves an access token to its active account. It is the
// checkpoint behind every protected route: deactivated accounts fail here
// regardless of token validity.
func (s *TokenService) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	userID, err := s.manager.ParseAccessToken(accessToken)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if !user.IsActive {
		return model.User{}, model.ErrUserInactive
	}

	return user, nil
}
