package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/classfolio/classfolio-server/internal/api/http/handler"
	"github.com/classfolio/classfolio-server/internal/logger"
	"github.com/classfolio/classfolio-server/internal/model"
)

// TokenAuthenticator resolves bearer access tokens to active accounts.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.User, error)
}

// Authenticate validates bearer tokens and attaches the account to the
// request context.
type Authenticate struct {
	tokenService   TokenAuthenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenAuthenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handler parses the Authorization header, verifies the access token and
// loads the account. Deactivated accounts are rejected here on every
// request, regardless of how much validity the token has left.
func (m *Authenticate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			handler.WriteError(w, http.StatusUnauthorized, "Access token is required")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := m.tokenService.Authenticate(r.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenInvalid):
				handler.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrUserInactive):
				handler.WriteError(w, http.StatusUnauthorized, "Invalid or inactive user")
			default:
				m.logger.Error("Authenticate middleware: unexpected error",
					"error", err.Error())
				handler.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		ctx := m.contextManager.SetUserToContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
