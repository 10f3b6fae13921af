package authclient

import (
	"context"
	"net/http"
)

// TokenReader supplies the bearer credential of the current session.
// *sessions.Manager implements it.
type TokenReader interface {
	Token(ctx context.Context) (string, bool)
}

// Decorate sets "Authorization: Bearer <token>" on req when the session holds
// a credential and leaves req untouched otherwise. It never fails: an
// unreadable session counts as no credential.
func Decorate(ctx context.Context, sessions TokenReader, req *http.Request) *http.Request {
	if sessions == nil {
		return req
	}
	if token, ok := sessions.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
