package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/classfolio/classfolio-server/internal/api/http/context"
	"github.com/classfolio/classfolio-server/internal/model"
	"github.com/classfolio/classfolio-server/internal/service"
	"github.com/classfolio/classfolio-server/internal/testutil"
)

type fakeAuthService struct {
	mock.Mock
}

func (f *fakeAuthService) Register(ctx context.Context, params service.RegisterParams) (model.User, service.TokenPair, error) {
	args := f.Called(ctx, params)
	return args.Get(0).(model.User), args.Get(1).(service.TokenPair), args.Error(2)
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (model.User, service.TokenPair, error) {
	args := f.Called(ctx, username, password)
	return args.Get(0).(model.User), args.Get(1).(service.TokenPair), args.Error(2)
}

func (f *fakeAuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	args := f.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	args := f.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, email string) (model.User, error) {
	args := f.Called(ctx, userID, firstName, lastName, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (f *fakeAuthService) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	args := f.Called(ctx, filter)
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

type fakeTokenService struct {
	mock.Mock
}

func (f *fakeTokenService) Refresh(ctx context.Context, refreshToken string) (service.TokenPair, error) {
	args := f.Called(ctx, refreshToken)
	return args.Get(0).(service.TokenPair), args.Error(1)
}

type authTestEnv struct {
	handler      *Auth
	authService  *fakeAuthService
	tokenService *fakeTokenService
	ctxManager   *httpctx.Manager
}

func newAuthTestEnv() *authTestEnv {
	authService := &fakeAuthService{}
	tokenService := &fakeTokenService{}
	ctxManager := httpctx.NewManager()
	return &authTestEnv{
		handler:      NewAuth(authService, tokenService, ctxManager, testutil.MakeNoopLogger()),
		authService:  authService,
		tokenService: tokenService,
		ctxManager:   ctxManager,
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(raw))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func makeUser() model.User {
	return model.User{
		ID:        uuid.New(),
		Username:  "jdoe",
		Email:     "jdoe@school.edu",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      model.RoleTeacher,
		IsActive:  true,
	}
}

func TestRegister_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	pair := service.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	env.authService.On("Register", mock.Anything, service.RegisterParams{
		Username:  "jdoe",
		Email:     "jdoe@school.edu",
		Password:  "secret123",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "teacher",
	}).Return(user, pair, nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "jdoe",
		"email":     "jdoe@school.edu",
		"password":  "secret123",
		"firstName": "Jane",
		"lastName":  "Doe",
		"role":      "teacher",
	})
	rec := httptest.NewRecorder()
	env.handler.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "User registered successfully", resp.Message)

	// The response never carries the password or the token list.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refreshTokens")

	data := resp.Data.(map[string]any)
	assert.Equal(t, "access", data["accessToken"])
	assert.Equal(t, "refresh", data["refreshToken"])
	assert.Equal(t, "jdoe", data["user"].(map[string]any)["username"])
	env.authService.AssertExpectations(t)
}

func TestRegister_MissingFields(t *testing.T) {
	env := newAuthTestEnv()

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "jdoe",
		"password": "secret123",
	})
	rec := httptest.NewRecorder()
	env.handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.authService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_UsernameTaken(t *testing.T) {
	env := newAuthTestEnv()
	env.authService.On("Register", mock.Anything, mock.Anything).
		Return(model.User{}, service.TokenPair{}, model.ErrUsernameTaken).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "jdoe",
		"email":     "jdoe@school.edu",
		"password":  "secret123",
		"firstName": "Jane",
		"lastName":  "Doe",
	})
	rec := httptest.NewRecorder()
	env.handler.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Username already exists", resp.Message)
}

func TestRegister_InvalidRole(t *testing.T) {
	env := newAuthTestEnv()
	env.authService.On("Register", mock.Anything, mock.Anything).
		Return(model.User{}, service.TokenPair{}, model.ErrInvalidRole).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "jdoe",
		"email":     "jdoe@school.edu",
		"password":  "secret123",
		"firstName": "Jane",
		"lastName":  "Doe",
		"role":      "principal",
	})
	rec := httptest.NewRecorder()
	env.handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	pair := service.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	env.authService.On("Login", mock.Anything, "jdoe", "secret123").Return(user, pair, nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "jdoe",
		"password": "secret123",
	})
	rec := httptest.NewRecorder()
	env.handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Login successful", resp.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newAuthTestEnv()
	env.authService.On("Login", mock.Anything, "jdoe", "wrong").
		Return(model.User{}, service.TokenPair{}, model.ErrInvalidCredentials).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "jdoe",
		"password": "wrong",
	})
	rec := httptest.NewRecorder()
	env.handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Invalid credentials", resp.Message)
}

func TestLogin_MissingPassword(t *testing.T) {
	env := newAuthTestEnv()

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "jdoe"})
	rec := httptest.NewRecorder()
	env.handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.authService.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_Success(t *testing.T) {
	env := newAuthTestEnv()
	env.tokenService.On("Refresh", mock.Anything, "old-refresh").
		Return(service.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": "old-refresh"})
	rec := httptest.NewRecorder()
	env.handler.Refresh(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "new-access", data["accessToken"])
	assert.Equal(t, "new-refresh", data["refreshToken"])
}

func TestRefresh_MissingToken(t *testing.T) {
	env := newAuthTestEnv()

	req := jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{})
	rec := httptest.NewRecorder()
	env.handler.Refresh(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Refresh token is required", resp.Message)
}

func TestRefresh_InvalidToken(t *testing.T) {
	env := newAuthTestEnv()
	env.tokenService.On("Refresh", mock.Anything, "stolen").
		Return(service.TokenPair{}, model.ErrInvalidRefreshToken).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": "stolen"})
	rec := httptest.NewRecorder()
	env.handler.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Invalid refresh token", resp.Message)
}

func TestLogout_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	env.authService.On("Logout", mock.Anything, user.ID, "refresh").Return(nil).Once()

	req := jsonRequest(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": "refresh"})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Logout successful", resp.Message)
	env.authService.AssertExpectations(t)
}

func TestLogout_WithoutToken(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()

	req := jsonRequest(t, http.MethodPost, "/api/auth/logout", map[string]string{})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.authService.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_NoUser(t *testing.T) {
	env := newAuthTestEnv()

	req := jsonRequest(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": "refresh"})
	rec := httptest.NewRecorder()
	env.handler.Logout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.Profile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, user.Username, data["username"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateProfile_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	updated := user
	updated.Email = "new@school.edu"
	env.authService.On("UpdateProfile", mock.Anything, user.ID, "Jane", "Doe", "new@school.edu").
		Return(updated, nil).Once()

	req := jsonRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "new@school.edu",
	})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "new@school.edu", resp.Data.(map[string]any)["email"])
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	env.authService.On("UpdateProfile", mock.Anything, user.ID, "Jane", "Doe", "taken@school.edu").
		Return(model.User{}, model.ErrEmailTaken).Once()

	req := jsonRequest(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "taken@school.edu",
	})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChangePassword_Success(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	env.authService.On("ChangePassword", mock.Anything, user.ID, "old-pass", "new-pass").Return(nil).Once()

	req := jsonRequest(t, http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "old-pass",
		"newPassword":     "new-pass",
	})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.ChangePassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Password changed successfully", resp.Message)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := newAuthTestEnv()
	user := makeUser()
	env.authService.On("ChangePassword", mock.Anything, user.ID, "wrong", "new-pass").
		Return(model.ErrInvalidCredentials).Once()

	req := jsonRequest(t, http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "new-pass",
	})
	req = req.WithContext(env.ctxManager.SetUserToContext(req.Context(), user))
	rec := httptest.NewRecorder()
	env.handler.ChangePassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "Current password is incorrect", resp.Message)
}

func TestListUsers_Pagination(t *testing.T) {
	env := newAuthTestEnv()
	active := true
	env.authService.On("ListUsers", mock.Anything, model.UserFilter{
		Offset:   5,
		Limit:    5,
		IsActive: &active,
	}).Return([]model.User{makeUser(), makeUser()}, 12, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users?page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	env.handler.ListUsers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Limit)
	assert.Equal(t, 12, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages)
	env.authService.AssertExpectations(t)
}

func TestListUsers_RoleFilter(t *testing.T) {
	env := newAuthTestEnv()
	active := true
	teacher := model.RoleTeacher
	env.authService.On("ListUsers", mock.Anything, model.UserFilter{
		Limit:    10,
		Role:     &teacher,
		IsActive: &active,
	}).Return([]model.User{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users?role=teacher", nil)
	rec := httptest.NewRecorder()
	env.handler.ListUsers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.authService.AssertExpectations(t)
}

func TestListUsers_InvalidRole(t *testing.T) {
	env := newAuthTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users?role=janitor", nil)
	rec := httptest.NewRecorder()
	env.handler.ListUsers(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.authService.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestListUsers_InactiveFilter(t *testing.T) {
	env := newAuthTestEnv()
	inactive := false
	env.authService.On("ListUsers", mock.Anything, model.UserFilter{
		Limit:    10,
		IsActive: &inactive,
	}).Return([]model.User{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users?isActive=false", nil)
	rec := httptest.NewRecorder()
	env.handler.ListUsers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.authService.AssertExpectations(t)
}
