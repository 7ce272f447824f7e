package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/classfolio/classfolio-server/internal/model"
)

var _ model.PasswordHasher = (*PasswordHasher)(nil)

type PasswordHasher struct {
	mock.Mock
}

func (m *PasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}
