package login

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/sessions"
	"github.com/jrsteele09/go-session-gateway/users"
)

// Authenticator establishes sessions by exchanging user credentials for a
// bearer token at the internal service's token endpoint.
type Authenticator struct {
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// NewAuthenticator uses the token endpoint from cfg. ID tokens, if returned,
// are not verified unless WithVerifier is used.
func NewAuthenticator(cfg config.UpstreamConfig) *Authenticator {
	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.GetTokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{oidc.ScopeOpenID, "profile", "email"},
		},
		httpClient: &http.Client{Timeout: cfg.GetHTTPTimeout()},
	}
}

// NewOIDCAuthenticator discovers the token endpoint and signing keys from the
// issuer configured in cfg and verifies every ID token against them.
func NewOIDCAuthenticator(ctx context.Context, cfg config.UpstreamConfig) (*Authenticator, error) {
	a := NewAuthenticator(cfg)
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, a.httpClient), cfg.GetOIDCIssuer())
	if err != nil {
		return nil, fmt.Errorf("[login NewOIDCAuthenticator] failed to create OIDC provider: %w", err)
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	a.oauth.Endpoint = endpoint
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.GetClientID()})
	return a, nil
}

func (a *Authenticator) WithVerifier(v *oidc.IDTokenVerifier) *Authenticator {
	a.verifier = v
	return a
}

func (a *Authenticator) WithHTTPClient(c *http.Client) *Authenticator {
	a.httpClient = c
	return a
}

// Login exchanges the credentials for a token and persists it, with the
// identity it belongs to, in the given session.
func (a *Authenticator) Login(ctx context.Context, session *sessions.Manager, email, password string) (users.Identity, error) {
	if email == "" || password == "" {
		return users.Identity{}, errors.Wrapf(errors.ErrInvalidCredentials, "[Authenticator Login] email and password are required")
	}

	tok, err := a.oauth.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
			return users.Identity{}, errors.Wrapf(errors.ErrInvalidCredentials, "[Authenticator Login] %s", retrieveErr.ErrorCode)
		}
		return users.Identity{}, errors.Wrapf(errors.ErrNetworkFailure, "[Authenticator Login] token request: %v", err)
	}

	identity, err := a.identity(ctx, tok)
	if err != nil {
		return users.Identity{}, err
	}
	if identity.Email == "" {
		identity.Email = email
	}

	if err := session.Login(ctx, tok.AccessToken, &identity); err != nil {
		return users.Identity{}, errors.Wrapf(err, "[Authenticator Login] persist session")
	}
	log.Info().Str("user", identity.ID).Str("role", string(identity.Role)).Msg("Logged in")
	return identity, nil
}

// Logout clears the given session.
func (a *Authenticator) Logout(ctx context.Context, session *sessions.Manager) error {
	return session.Logout(ctx)
}

type identityClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtlib.RegisteredClaims
}

// identity reads the user from the verified ID token when there is one, and
// otherwise from the access token. The access token is parsed without
// verification: the client is not its audience, the API checks it on every call.
func (a *Authenticator) identity(ctx context.Context, tok *oauth2.Token) (users.Identity, error) {
	var claims identityClaims

	rawIDToken, _ := tok.Extra("id_token").(string)
	switch {
	case rawIDToken != "" && a.verifier != nil:
		idToken, err := a.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return users.Identity{}, errors.Wrapf(errors.ErrInvalidToken, "[Authenticator identity] ID token verification failed: %v", err)
		}
		if err := idToken.Claims(&claims); err != nil {
			return users.Identity{}, errors.Wrapf(errors.ErrInvalidToken, "[Authenticator identity] ID token claims: %v", err)
		}
		claims.Subject = idToken.Subject
	case a.verifier != nil:
		return users.Identity{}, errors.Wrapf(errors.ErrInvalidToken, "[Authenticator identity] no ID token in response")
	default:
		if _, _, err := jwtlib.NewParser().ParseUnverified(tok.AccessToken, &claims); err != nil {
			// Opaque access token, nothing to read
			log.Debug().Err(err).Msg("Access token is not a JWT")
			return users.Identity{}, nil
		}
	}

	identity := users.Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email}
	if claims.Role != "" {
		role, err := users.ParseRole(claims.Role)
		if err != nil {
			log.Warn().Err(err).Str("user", claims.Subject).Msg("Ignoring unknown role claim")
		}
		identity.Role = role
	}
	identity.Name = strings.TrimSpace(identity.Name)
	return identity, nil
}
