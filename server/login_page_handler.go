package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/users"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Action  string
	Error   string
	Email   string // Preserve email on error
}

type IndexPageData struct {
	AppName      string
	LogoutAction string
	User         users.Identity
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IndexHandler shows who is signed in, or sends the browser to the login page.
func (s *Server) IndexHandler() http.HandlerFunc {
	indexTmpl, err := ParseTemplate("index.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse index template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		if session == nil {
			redirectSuccess(w, r, s.config.GetLoginPath())
			return
		}
		if _, ok := session.Token(r.Context()); !ok {
			redirectSuccess(w, r, s.config.GetLoginPath())
			return
		}
		identity, _ := session.Identity(r.Context())

		data := IndexPageData{
			AppName:      s.config.GetAppName(),
			LogoutAction: RouteLogout,
			User:         identity,
		}
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := indexTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render index template")
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse login template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{
			AppName: s.config.GetAppName(),
			Action:  RouteLogin,
			Error:   r.URL.Query().Get("error"),
			Email:   r.URL.Query().Get("email"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}
}

// LoginSubmissionHandler accepts credentials as a form post or as JSON. A
// successful login always starts a fresh browser session.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds loginRequest
		if wantsJSON(r) {
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
			creds.Email = r.FormValue("email")
			creds.Password = r.FormValue("password")
		}

		sessionID := generateRandomString(32)
		identity, err := s.auth.Login(r.Context(), s.sessionFor(sessionID), creds.Email, creds.Password)
		if err != nil {
			s.loginFailed(w, r, creds.Email, err)
			return
		}

		if previous := sessionFrom(r.Context()); previous != nil {
			if err := previous.Logout(r.Context()); err != nil {
				log.Err(err).Msg("Failed to remove previous session")
			}
		}
		s.SetSessionCookie(w, r, sessionID)

		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, identity)
			return
		}
		redirectSuccess(w, r, "/")
	}
}

func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	status, message := http.StatusUnauthorized, "Invalid email or password"
	if !errors.Is(err, errors.ErrInvalidCredentials) {
		log.Err(err).Str("email", email).Msg("Login failed")
		status, message = http.StatusBadGateway, "Sign in is unavailable, please try again"
	}

	if wantsJSON(r) {
		writeError(w, status, "login_failed", message)
		return
	}
	redirectWithError(w, r, s.config.GetLoginPath(), message)
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session := sessionFrom(r.Context()); session != nil {
			if err := s.auth.Logout(r.Context(), session); err != nil {
				log.Err(err).Msg("Failed to delete session")
			}
		}
		s.DeleteSessionCookie(w, r)
		redirectSuccess(w, r, s.config.GetLoginPath())
	}
}

// SessionHandler returns the identity of the signed-in user.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := sessionFrom(r.Context()).Identity(r.Context())
		writeJSON(w, http.StatusOK, identity)
	}
}
