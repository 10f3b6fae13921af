package devapi

// TokenResponse is the body of a successful password grant (RFC 6749 section 5.1).
type TokenResponse struct {
	// AccessToken is the signed JWT the caller presents on every API call.
	// Usage: "Authorization: Bearer <access_token>"
	// Lifespan: ACCESS_TOKEN_EXPIRY (default 1 hour), or until revoked
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expires_in,omitempty"`

	// Scope is the space-separated scope granted, echoed from the request.
	Scope string `json:"scope,omitempty"`
}
