package devapi

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/token"
	"github.com/jrsteele09/go-session-gateway/users"
)

// Server is a development stand-in for the internal payroll API: it issues
// bearer tokens for the password grant and serves seeded payroll data to
// callers presenting a valid token.
type Server struct {
	mux      *http.ServeMux
	env      string
	clientID string
	users    users.UserRepo
	issuer   *token.Issuer
	data     *Dataset
}

func New(cfg config.Config, userRepo users.UserRepo, issuer *token.Issuer, data *Dataset) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		env:      cfg.GetEnv(),
		clientID: cfg.GetClientID(),
		users:    userRepo,
		issuer:   issuer,
		data:     data,
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.mux.HandleFunc("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), s.LoggingMiddleware))

	api := func(h http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		return ChainMiddleware(h, append([]func(http.HandlerFunc) http.HandlerFunc{s.LoggingMiddleware, s.RequireAuth()}, mw...)...)
	}
	s.mux.HandleFunc("GET "+RouteMe, api(s.MeHandler()))
	s.mux.HandleFunc("GET "+RouteEmployees, api(s.ListEmployeesHandler()))
	s.mux.HandleFunc("GET "+RouteEmployees+"/{id}", api(s.GetEmployeeHandler()))
	s.mux.HandleFunc("GET "+RoutePayrollRuns, api(s.ListPayrollRunsHandler(), s.RequireRole(users.RoleAdmin, users.RoleEmployer, users.RoleAuditor)))
	s.mux.HandleFunc("GET "+RouteNotifications, api(s.ListNotificationsHandler()))
	s.mux.HandleFunc("POST "+RouteRevoke, api(s.RevokeHandler(), s.RequireRole(users.RoleAdmin)))
}

const (
	RouteToken         = "/oauth2/token"
	RouteMe            = "/api/me"
	RouteEmployees     = "/api/employees"
	RoutePayrollRuns   = "/api/payroll-runs"
	RouteNotifications = "/api/notifications"
	RouteRevoke        = "/api/admin/revoke"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env == "DEV" {
			log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("devapi request")
		}
		next(w, r)
	}
}
