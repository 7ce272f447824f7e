package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classfolio/classfolio-server/internal/logger"
	"github.com/classfolio/classfolio-server/internal/model"
)

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Auth orchestrates the account lifecycle: registration, login, logout,
// password change and profile management.
type Auth struct {
	users        model.UserStore
	hasher       model.PasswordHasher
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(users model.UserStore, hasher model.PasswordHasher, tokenService *TokenService, logger *logger.Logger) *Auth {
	return &Auth{
		users:        users,
		hasher:       hasher,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates an account and issues its first token pair. Username
// collisions are case-sensitive, email collisions are not.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, TokenPair, error) {
	a.logger.Debug("Auth service: starting user registration",
		"username", params.Username)

	role := model.Role(params.Role)
	if params.Role == "" {
		role = model.RoleStaff
	}
	if !role.Valid() {
		return model.User{}, TokenPair{}, model.ErrInvalidRole
	}

	email := strings.ToLower(params.Email)

	existing, err := a.users.GetByUsernameOrEmail(ctx, params.Username, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to check for existing user",
			"username", params.Username,
			"error", err.Error())
		return model.User{}, TokenPair{}, fmt.Errorf("failed to get user by username or email: %w", err)
	}
	if err == nil {
		if existing.Username == params.Username {
			return model.User{}, TokenPair{}, model.ErrUsernameTaken
		}
		return model.User{}, TokenPair{}, model.ErrEmailTaken
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"username", params.Username,
			"error", err.Error())
		return model.User{}, TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user, err = a.users.Create(ctx, user)
	if err != nil {
		// The pre-check and the insert are not atomic; a concurrent
		// registration surfaces here as a unique violation.
		if errors.Is(err, model.ErrUsernameTaken) || errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, TokenPair{}, err
		}
		a.logger.Error("Auth service: failed to create user",
			"username", params.Username,
			"error", err.Error())
		return model.User{}, TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"username", user.Username,
		"user_id", user.ID)

	return user, pair, nil
}

// Login verifies credentials and issues a token pair. Absent account,
// deactivated account and wrong password all return ErrInvalidCredentials
// so responses cannot be used to enumerate accounts.
func (a *Auth) Login(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	a.logger.Debug("Auth service: starting user login",
		"username", username)

	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, TokenPair{}, model.ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if !user.IsActive {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		a.logger.Error("Auth service: failed to verify password",
			"username", username,
			"error", err.Error())
		return model.User{}, TokenPair{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.User{}, TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := a.tokenService.Mint(user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	now := time.Now()
	if err := a.users.RecordLogin(ctx, user.ID, now, pair.RefreshToken); err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	a.logger.Info("Auth service: user logged in",
		"username", user.Username,
		"user_id", user.ID)

	return user, pair, nil
}

// Logout removes one refresh token from the account's list. It succeeds
// even when the token was already absent.
func (a *Auth) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return a.tokenService.Revoke(ctx, userID, refreshToken)
}

// ChangePassword verifies the current password, stores the new hash and
// clears every refresh token, forcing re-login on all devices.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	ok, err := a.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.ErrInvalidCredentials
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password changed, sessions cleared",
		"user_id", userID)

	return nil
}

// UpdateProfile changes display names and email, rejecting an email that
// another account already uses.
func (a *Auth) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, email string) (model.User, error) {
	email = strings.ToLower(email)

	existing, err := a.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if err == nil && existing.ID != userID {
		return model.User{}, model.ErrEmailTaken
	}

	user, err := a.users.UpdateProfile(ctx, userID, firstName, lastName, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// ListUsers returns a page of accounts plus the unpaged total.
func (a *Auth) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	users, total, err := a.users.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}
