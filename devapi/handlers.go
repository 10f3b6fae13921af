package devapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/payroll"
	"github.com/jrsteele09/go-session-gateway/token"
	"github.com/jrsteele09/go-session-gateway/users"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// TokenHandler implements the OAuth2 resource owner password grant.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
			return
		}
		if r.PostForm.Get("grant_type") != "password" {
			writeError(w, http.StatusBadRequest, "unsupported_grant_type", "Only the password grant is supported")
			return
		}
		if r.PostForm.Get("client_id") != s.clientID {
			writeError(w, http.StatusUnauthorized, "invalid_client", "Unknown client")
			return
		}

		email := r.PostForm.Get("username")
		user, err := s.users.GetByEmail(email)
		if err != nil || user.Blocked || !users.CheckPasswordHash(r.PostForm.Get("password"), user.PasswordHash) {
			writeError(w, http.StatusBadRequest, "invalid_grant", "Invalid email or password")
			return
		}

		issued, err := s.issuer.Issue(user, s.clientID)
		if err != nil {
			log.Err(err).Str("user", user.ID).Msg("Failed to issue access token")
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
			return
		}
		if err := s.users.SetLastLogin(email); err != nil {
			log.Err(err).Str("user", user.ID).Msg("Failed to record last login")
		}

		writeJSON(w, http.StatusOK, TokenResponse{
			AccessToken: issued.AccessToken,
			TokenType:   "Bearer",
			ExpiresIn:   int(time.Until(issued.ExpiresAt).Seconds()),
			Scope:       r.PostForm.Get("scope"),
		})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, claimsFrom(r.Context()).Identity())
	}
}

// ListEmployeesHandler lists employees; an employee only ever sees their own record.
func (s *Server) ListEmployeesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		q := r.URL.Query()

		limit := intParam(q.Get("limit"), defaultPageSize)
		if limit == 0 {
			limit = defaultPageSize
		}
		limit = min(limit, maxPageSize)
		offset := intParam(q.Get("offset"), 0)
		employees := s.data.Employees(payroll.EmployeeStatus(q.Get("status")), visibleTo(claims), limit, offset)
		writeJSON(w, http.StatusOK, employees)
	}
}

func (s *Server) GetEmployeeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employee, ok := s.data.Employee(r.PathValue("id"))
		if !ok || !visibleTo(claimsFrom(r.Context()))(employee) {
			writeError(w, http.StatusNotFound, "not_found", "Employee not found")
			return
		}
		writeJSON(w, http.StatusOK, employee)
	}
}

func (s *Server) ListPayrollRunsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.PayrollRuns())
	}
}

func (s *Server) ListNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.Notifications(claimsFrom(r.Context()).Subject))
	}
}

// RevokeHandler revokes the token named by {"jti": "..."}, or the caller's own
// token when no jti is given.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())

		var body struct {
			JTI string `json:"jti"`
		}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
				return
			}
		}

		// A foreign token expires no later than one issued now
		jti, exp := body.JTI, token.NowTimeFunc().Add(s.issuer.Expiry())
		if jti == "" {
			jti, exp = claims.ID, claims.ExpiresAt.Time
		}
		if err := s.issuer.Revoke(jti, exp); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		log.Info().Str("jti", jti).Str("by", claims.Subject).Msg("Token revoked")
		w.WriteHeader(http.StatusNoContent)
	}
}

func visibleTo(claims *token.Claims) func(payroll.Employee) bool {
	return func(e payroll.Employee) bool {
		if claims.Role == users.RoleEmployee {
			return e.Email == claims.Email
		}
		return true
	}
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
