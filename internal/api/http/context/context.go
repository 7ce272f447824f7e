// Package context carries the authenticated user through request contexts.
package context

import (
	"context"

	"github.com/classfolio/classfolio-server/internal/model"
)

type contextKey struct{}

var userKey contextKey

// Manager implements model.ContextManager over standard request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserToContext returns a child context carrying the user.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext retrieves the user attached by the authentication
// middleware. The boolean is false on unauthenticated contexts.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}
