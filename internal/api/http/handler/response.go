package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/classfolio/classfolio-server/internal/model"
)

// Response is the envelope shared by every endpoint.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// userPayload is the outward shape of an account. The password hash and
// the refresh-token list never appear here.
type userPayload struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        model.Role `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toUserPayload(user model.User) userPayload {
	return userPayload{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// WriteSuccessPage writes a success envelope with a pagination block.
func WriteSuccessPage(w http.ResponseWriter, message string, data any, pagination Pagination) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data, Pagination: &pagination})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{Success: false, Message: message})
}
