package middleware

import (
	"net/http"

	"github.com/classfolio/classfolio-server/internal/api/http/handler"
	"github.com/classfolio/classfolio-server/internal/model"
)

// Authorize gates routes on the authenticated account's role. It must run
// after Authenticate.
type Authorize struct {
	contextManager model.ContextManager
}

// NewAuthorize creates a new Authorize middleware instance.
func NewAuthorize(contextManager model.ContextManager) *Authorize {
	return &Authorize{contextManager: contextManager}
}

// Require allows only the listed roles through.
func (m *Authorize) Require(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := m.contextManager.GetUserFromContext(r.Context())
			if !ok {
				handler.WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if _, ok := allowed[user.Role]; !ok {
				handler.WriteError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
