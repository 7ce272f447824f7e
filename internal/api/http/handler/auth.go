package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/classfolio/classfolio-server/internal/logger"
	"github.com/classfolio/classfolio-server/internal/model"
	"github.com/classfolio/classfolio-server/internal/service"
)

// AuthService defines the account lifecycle operations behind the REST
// surface.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, service.TokenPair, error)
	Login(ctx context.Context, username, password string) (model.User, service.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, email string) (model.User, error)
	ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int, error)
}

// TokenService defines the refresh-rotation operation.
type TokenService interface {
	Refresh(ctx context.Context, refreshToken string) (service.TokenPair, error)
}

// Auth handles the REST endpoints for authentication.
type Auth struct {
	authService    AuthService
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type sessionPayload struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register creates a new account and returns it with its first token pair.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		WriteError(w, http.StatusBadRequest, "Username, email, password, first name and last name are required")
		return
	}

	user, pair, err := h.authService.Register(r.Context(), service.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "User registered successfully", sessionPayload{
		User:         toUserPayload(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a fresh token pair.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Login successful", sessionPayload{
		User:         toUserPayload(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token and returns a new pair.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, err := h.tokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Token refreshed successfully", tokenPairPayload{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout removes the presented refresh token from the authenticated
// account. It always answers 200, even for an already-removed token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if err := h.authService.Logout(r.Context(), user.ID, req.RefreshToken); err != nil {
			h.handleError(w, err)
			return
		}
	}

	WriteSuccess(w, http.StatusOK, "Logout successful", nil)
}

// Profile returns the authenticated account.
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	WriteSuccess(w, http.StatusOK, "Profile retrieved successfully", toUserPayload(user))
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// UpdateProfile changes the authenticated account's names and email.
func (h *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		WriteError(w, http.StatusBadRequest, "First name, last name and email are required")
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user.ID, req.FirstName, req.LastName, req.Email)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Profile updated successfully", toUserPayload(updated))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword verifies the current password and replaces it, clearing
// every session of the account.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		h.handleError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// ListUsers returns a page of accounts. Restricted to admins by the
// authorization middleware.
func (h *Auth) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	filter := model.UserFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	if roleStr := q.Get("role"); roleStr != "" {
		role := model.Role(roleStr)
		if !role.Valid() {
			WriteError(w, http.StatusBadRequest, "Role must be admin, teacher, or staff")
			return
		}
		filter.Role = &role
	}

	isActive := true
	if activeStr := q.Get("isActive"); activeStr != "" {
		parsed, err := strconv.ParseBool(activeStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "isActive must be a boolean")
			return
		}
		isActive = parsed
	}
	filter.IsActive = &isActive

	users, total, err := h.authService.ListUsers(r.Context(), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, toUserPayload(user))
	}

	pages := (total + limit - 1) / limit
	WriteSuccessPage(w, "Users retrieved successfully", payload, Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	})
}
