package model

import "github.com/google/uuid"

// TokenManager generates and validates access/refresh tokens. The two
// token kinds are signed with distinct secrets, so a token of one kind
// never parses as the other.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
	ParseRefreshToken(token string) (uuid.UUID, error)
}
