package config

import (
	"strings"
	"time"
)

// UpstreamConfig describes the internal service the gateway proxies to and
// authenticates against.
type UpstreamConfig interface {
	GetUpstreamURL() string
	GetTokenURL() string
	GetClientID() string
	GetClientSecret() string
	GetOIDCIssuer() string
	GetHTTPTimeout() time.Duration
}

type Upstream struct {
	values Overlay
}

var _ UpstreamConfig = Upstream{}

func (u Upstream) GetUpstreamURL() string {
	return strings.TrimSuffix(u.values.get("UPSTREAM_URL", "http://localhost:8081"), "/")
}

func (u Upstream) GetTokenURL() string {
	return u.values.get("TOKEN_URL", u.GetUpstreamURL()+"/oauth2/token")
}

func (u Upstream) GetClientID() string {
	return u.values.get("CLIENT_ID", "payroll-web")
}

func (u Upstream) GetClientSecret() string {
	return u.values.get("CLIENT_SECRET", "")
}

// GetOIDCIssuer enables ID token verification when set.
func (u Upstream) GetOIDCIssuer() string {
	return u.values.get("OIDC_ISSUER", "")
}

func (u Upstream) GetHTTPTimeout() time.Duration {
	return parseDuration(u.values.get("HTTP_TIMEOUT", ""), 30*time.Second)
}
