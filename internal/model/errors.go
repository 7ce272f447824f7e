package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken and ErrEmailTaken signal registration conflicts.
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")

	// ErrInvalidCredentials covers absent user, inactive account and wrong
	// password alike. Callers must not distinguish between them.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// expiry, unknown subject, inactive account and rotated-away reuse.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrInvalidRole signals a role outside the known set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrUserInactive signals a deactivated account at an authentication
	// checkpoint.
	ErrUserInactive = errors.New("user inactive")
)
