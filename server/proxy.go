package server

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-gateway/authclient"
)

// ProxyHandler relays a browser API call to the internal service.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return s.proxy.ServeHTTP
}

func (s *Server) newProxy(upstream *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()

			// Only the session credential reaches the internal service
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			if session := sessionFrom(pr.In.Context()); session != nil {
				pr.Out = authclient.Decorate(pr.Out.Context(), session, pr.Out)
			}
		},
		ModifyResponse: s.applyOutcome,
		ErrorHandler:   s.upstreamError,
	}
}

// applyOutcome classifies the upstream response. On authentication failure
// the browser's session is cleared and the browser told to go to the login
// page; the response itself is relayed unchanged.
func (s *Server) applyOutcome(resp *http.Response) error {
	outcome := authclient.Classify(resp, nil)
	if outcome.Effect == authclient.EffectNone {
		return nil
	}

	ctx := resp.Request.Context()
	invalidator := authclient.Invalidator{
		Navigator: s.browserNavigator(resp.Header),
		LoginPath: s.config.GetLoginPath(),
	}
	if session := sessionFrom(ctx); session != nil {
		invalidator.Sessions = session
	}
	_ = invalidator.Apply(ctx, outcome) // logged by Apply
	return nil
}

// browserNavigator navigates by instructing the browser through response
// headers: htmx follows HX-Redirect and the session cookie is expired.
func (s *Server) browserNavigator(h http.Header) authclient.Navigator {
	return authclient.NavigatorFunc(func(_ context.Context, path string) {
		h.Set("HX-Redirect", path)
		h.Add("Set-Cookie", s.sessionCookie(nil, "", -1).String())
	})
}

func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	outcome := authclient.Classify(nil, err)
	log.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("outcome", outcome.Kind.String()).
		Msg("Upstream request failed")
	writeError(w, http.StatusBadGateway, "bad_gateway", "The payroll service is unavailable")
}
