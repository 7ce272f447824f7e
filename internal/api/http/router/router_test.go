package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/classfolio/classfolio-server/internal/api/http/context"
	"github.com/classfolio/classfolio-server/internal/api/http/handler"
	"github.com/classfolio/classfolio-server/internal/api/http/middleware"
	"github.com/classfolio/classfolio-server/internal/model"
	"github.com/classfolio/classfolio-server/internal/ratelimit"
	"github.com/classfolio/classfolio-server/internal/testutil"
)

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	return model.User{}, model.ErrTokenInvalid
}

func newTestRouter() *mux.Router {
	log := testutil.MakeNoopLogger()
	ctxMgr := httpctx.NewManager()
	auth := handler.NewAuth(nil, nil, ctxMgr, log)

	return New(
		auth,
		middleware.NewAuthenticate(stubAuthenticator{}, ctxMgr, log),
		middleware.NewAuthorize(ctxMgr),
		middleware.NewLogging(log),
		middleware.NewRateLimit(ratelimit.New(100, 15*time.Minute)),
		middleware.NewRateLimit(ratelimit.New(5, 15*time.Minute)),
		middleware.NewRateLimit(ratelimit.New(10, time.Hour)),
	).Register()
}

func TestRegister_RouteTable(t *testing.T) {
	root := newTestRouter()

	expected := map[string][]string{
		"/health":                   {http.MethodGet},
		"/api/auth/register":        {http.MethodPost},
		"/api/auth/login":           {http.MethodPost},
		"/api/auth/refresh":         {http.MethodPost},
		"/api/auth/logout":          {http.MethodPost},
		"/api/auth/change-password": {http.MethodPut},
		"/api/auth/users":           {http.MethodGet},
	}

	found := map[string][]string{}
	err := root.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		found[path] = append(found[path], methods...)
		return nil
	})
	require.NoError(t, err)

	for path, methods := range expected {
		require.Contains(t, found, path)
		for _, method := range methods {
			assert.Contains(t, found[path], method, "%s %s", method, path)
		}
	}
	// Profile is registered for both reads and updates.
	assert.ElementsMatch(t, []string{http.MethodGet, http.MethodPut}, found["/api/auth/profile"])
}

func TestRegister_Health(t *testing.T) {
	root := newTestRouter()

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRegister_ProtectedRoutesRequireToken(t *testing.T) {
	root := newTestRouter()

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/change-password"},
		{http.MethodGet, "/api/auth/users"},
	}
	for _, tc := range requests {
		rec := httptest.NewRecorder()
		root.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRegister_MethodNotAllowed(t *testing.T) {
	root := newTestRouter()

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
