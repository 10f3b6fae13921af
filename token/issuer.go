package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the access token claims of the payroll API.
type Claims struct {
	Name     string         `json:"name,omitempty"`
	Email    string         `json:"email,omitempty"`
	Role     users.RoleType `json:"role,omitempty"`
	ClientID string         `json:"client_id,omitempty"`
	jwtlib.RegisteredClaims
}

func (c *Claims) Identity() users.Identity {
	return users.Identity{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

// Issued is a freshly signed access token.
type Issued struct {
	AccessToken string
	JTI         string
	ExpiresAt   time.Time
}

// Issuer signs and validates HS256 access tokens.
type Issuer struct {
	issuer  string
	key     []byte
	expiry  time.Duration
	revoked RevokedTokenCache
}

func NewIssuer(issuer string, key []byte, expiry time.Duration, revoked RevokedTokenCache) *Issuer {
	if revoked == nil {
		revoked = NewInMemoryRevokedTokenCache()
	}
	return &Issuer{issuer: issuer, key: key, expiry: expiry, revoked: revoked}
}

// Expiry is the lifetime of every token the issuer signs.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue creates an access token for user, requested by clientID.
func (i *Issuer) Issue(user *users.User, clientID string) (*Issued, error) {
	now := NowTimeFunc()
	jti := uuid.New().String()
	expiresAt := now.Add(i.expiry)

	claims := Claims{
		Name:     user.DisplayName(),
		Email:    user.Email,
		Role:     user.Role,
		ClientID: clientID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return &Issued{AccessToken: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// Validate checks signature, issuer, expiry and revocation.
func (i *Issuer) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return i.key, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer Validate] %v", err)
	}
	if i.revoked.IsRevoked(claims.ID) {
		return nil, errors.Wrapf(errors.ErrTokenRevoked, "[Issuer Validate] jti %s", claims.ID)
	}
	return claims, nil
}

// Revoke makes every later Validate of the token identified by jti fail.
func (i *Issuer) Revoke(jti string, exp time.Time) error {
	if jti == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "[Issuer Revoke] empty jti")
	}
	return i.revoked.Add(jti, exp)
}
