package handler

import (
	"errors"
	"net/http"

	"github.com/classfolio/classfolio-server/internal/model"
)

// handleError maps service errors to the response envelope. Anything
// outside the known taxonomy becomes a generic 500; internal detail never
// reaches the client.
func (h *Auth) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUsernameTaken):
		WriteError(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, model.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, model.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, model.ErrInvalidRefreshToken):
		WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, model.ErrInvalidRole):
		WriteError(w, http.StatusBadRequest, "Role must be admin, teacher, or staff")
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error("Auth handler: unexpected error",
			"error", err.Error())
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
