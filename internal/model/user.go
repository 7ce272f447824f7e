package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the set of permission levels an account can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStaff   Role = "staff"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStaff:
		return true
	}
	return false
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     *Role
	IsActive *bool
	Offset   int
	Limit    int
}

// UserStore defines persistence operations for users. Refresh-token
// membership lives on the user row, so session-list mutations are part of
// this interface rather than a separate store.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, filter UserFilter) ([]User, int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) (User, error)

	// RecordLogin sets the last-login timestamp and appends the refresh
	// token in a single statement so both commit together.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, refreshToken string) error

	AppendRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	RemoveRefreshToken(ctx context.Context, id uuid.UUID, token string) error

	// RotateRefreshToken atomically replaces oldToken with newToken and
	// reports whether oldToken was present. A false result means the token
	// was never issued or was already rotated away.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error)

	// UpdatePassword sets a new password hash and clears the refresh-token
	// list in a single statement, logging the user out everywhere.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// User represents a stored account with authentication material.
// PasswordHash and RefreshTokens never leave the service layer.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          Role
	IsActive      bool
	LastLoginAt   *time.Time
	RefreshTokens []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
