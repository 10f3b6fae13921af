package authclient

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultLoginPath is the login entry point navigated to on authentication failure.
const DefaultLoginPath = "/login"

// SessionClearer clears the persisted session. *sessions.Manager implements it.
type SessionClearer interface {
	Invalidate(ctx context.Context) error
}

// Navigator sends the user to another location, e.g. a browser redirect or a
// CLI prompt to log in again.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) {
	f(ctx, path)
}

// Invalidator applies the effect of a classified outcome.
type Invalidator struct {
	Sessions  SessionClearer
	Navigator Navigator
	LoginPath string
}

// Apply does nothing unless the outcome asks for the session to be
// invalidated, in which case it clears the session and navigates to the login
// path once. Navigation happens even if clearing failed.
func (i *Invalidator) Apply(ctx context.Context, o Outcome) error {
	if o.Effect != EffectInvalidateSession {
		return nil
	}

	var err error
	if i.Sessions != nil {
		if err = i.Sessions.Invalidate(ctx); err != nil {
			log.Err(err).Int("status", o.StatusCode).Msg("Failed to clear session after authentication failure")
		}
	}

	if i.Navigator != nil {
		i.Navigator.Navigate(ctx, i.loginPath())
	}
	return err
}

func (i *Invalidator) loginPath() string {
	if i.LoginPath == "" {
		return DefaultLoginPath
	}
	return i.LoginPath
}

// RecordingNavigator remembers every navigation. Useful in tests and for
// callers that poll for "login required" instead of reacting immediately.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (r *RecordingNavigator) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *RecordingNavigator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
