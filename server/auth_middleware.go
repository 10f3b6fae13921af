package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-session-gateway/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the *sessions.Manager of the requesting browser
const ContextKeySession ContextKey = "session"

func sessionFrom(ctx context.Context) *sessions.Manager {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Manager)
	return session
}

// sessionFor returns the manager of the record kept for one browser.
func (s *Server) sessionFor(sessionID string) *sessions.Manager {
	return sessions.NewManager(s.store, s.config.GetStorageKey()+":"+sessionID)
}

// WithSession puts the session manager of the browser's session cookie in the
// request context. Requests without the cookie carry no manager.
func (s *Server) WithSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.GetSessionCookieName())
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeySession, s.sessionFor(cookie.Value))
		next(w, r.WithContext(ctx))
	}
}

// RequireSession rejects requests whose browser holds no credential. It must
// be chained after WithSession.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := sessionFrom(r.Context())
			if session == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "No session")
				return
			}
			if _, ok := session.Token(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Not signed in")
				return
			}
			next(w, r)
		}
	}
}
