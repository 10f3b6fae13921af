package authclient

import (
	"net/http"
)

// Session is what the transport needs from the session manager.
type Session interface {
	TokenReader
	SessionClearer
}

// Transport is an http.RoundTripper running the authenticated-request
// lifecycle: decorate, send, classify, apply the effect. The response or error
// of the underlying round trip is always returned unchanged.
type Transport struct {
	Base        http.RoundTripper
	Sessions    Session
	Invalidator *Invalidator
}

// NewTransport builds a Transport whose invalidator clears sessions and
// navigates with nav.
func NewTransport(base http.RoundTripper, sessions Session, nav Navigator, loginPath string) *Transport {
	return &Transport{
		Base:     base,
		Sessions: sessions,
		Invalidator: &Invalidator{
			Sessions:  sessions,
			Navigator: nav,
			LoginPath: loginPath,
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// RoundTrippers must not modify the caller's request
	out := req.Clone(ctx)
	Decorate(ctx, t.Sessions, out)

	resp, err := t.base().RoundTrip(out)

	outcome := Classify(resp, err)
	if t.Invalidator != nil {
		_ = t.Invalidator.Apply(ctx, outcome) // logged by Apply, the caller sees the original result
	}
	return resp, err
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}
