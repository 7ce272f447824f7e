// Package mocks provides testify mocks for the model interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classfolio/classfolio-server/internal/model"
)

var _ model.UserStore = (*UserStore)(nil)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	args := m.Called(ctx, filter)
	var users []model.User
	if args.Get(0) != nil {
		users = args.Get(0).([]model.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) (model.User, error) {
	args := m.Called(ctx, id, firstName, lastName, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, refreshToken string) error {
	args := m.Called(ctx, id, at, refreshToken)
	return args.Error(0)
}

func (m *UserStore) AppendRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *UserStore) RemoveRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *UserStore) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	args := m.Called(ctx, id, oldToken, newToken)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
