package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/classfolio/classfolio-server/internal/api/http/handler"
	"github.com/classfolio/classfolio-server/internal/api/http/middleware"
	"github.com/classfolio/classfolio-server/internal/model"
)

// Router assembles the REST route table with its middleware chain.
type Router struct {
	auth         *handler.Auth
	authenticate *middleware.Authenticate
	authorize    *middleware.Authorize
	logging      *middleware.Logging
	apiLimit     *middleware.RateLimit
	authLimit    *middleware.RateLimit
	createLimit  *middleware.RateLimit
}

// New creates a Router over the given handler and middleware.
func New(
	auth *handler.Auth,
	authenticate *middleware.Authenticate,
	authorize *middleware.Authorize,
	logging *middleware.Logging,
	apiLimit *middleware.RateLimit,
	authLimit *middleware.RateLimit,
	createLimit *middleware.RateLimit,
) *Router {
	return &Router{
		auth:         auth,
		authenticate: authenticate,
		authorize:    authorize,
		logging:      logging,
		apiLimit:     apiLimit,
		authLimit:    authLimit,
		createLimit:  createLimit,
	}
}

// Register builds the route table. The general API limiter wraps every
// /api route; the stricter auth limiter wraps only register and login,
// and the creation limiter additionally wraps register. Refresh and
// logout intentionally see only the general limiter.
func (r *Router) Register() *mux.Router {
	root := mux.NewRouter()
	root.Use(r.logging.Handler)

	root.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		handler.WriteSuccess(w, http.StatusOK, "OK", nil)
	}).Methods(http.MethodGet)

	api := root.PathPrefix("/api").Subrouter()
	api.Use(r.apiLimit.Handler)

	auth := api.PathPrefix("/auth").Subrouter()

	auth.Handle("/register",
		r.authLimit.Handler(r.createLimit.Handler(http.HandlerFunc(r.auth.Register)))).
		Methods(http.MethodPost)
	auth.Handle("/login",
		r.authLimit.Handler(http.HandlerFunc(r.auth.Login))).
		Methods(http.MethodPost)
	auth.HandleFunc("/refresh", r.auth.Refresh).Methods(http.MethodPost)

	auth.Handle("/logout",
		r.authenticate.Handler(http.HandlerFunc(r.auth.Logout))).
		Methods(http.MethodPost)
	auth.Handle("/profile",
		r.authenticate.Handler(http.HandlerFunc(r.auth.Profile))).
		Methods(http.MethodGet)
	auth.Handle("/profile",
		r.authenticate.Handler(http.HandlerFunc(r.auth.UpdateProfile))).
		Methods(http.MethodPut)
	auth.Handle("/change-password",
		r.authenticate.Handler(http.HandlerFunc(r.auth.ChangePassword))).
		Methods(http.MethodPut)
	auth.Handle("/users",
		r.authenticate.Handler(r.authorize.Require(model.RoleAdmin)(http.HandlerFunc(r.auth.ListUsers)))).
		Methods(http.MethodGet)

	return root
}
