package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetTokenSigningKey() string
	GetAccessTokenExpiry() time.Duration
	GetSecureCookies() bool
}

type Security struct {
	values Overlay
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxSessionAge() time.Duration {
	return parseDuration(s.values.get("MAX_SESSION_AGE", ""), 12*time.Hour)
}

// GetTokenSigningKey is the HMAC key the development API signs access tokens with.
func (s Security) GetTokenSigningKey() string {
	return s.values.get("TOKEN_SIGNING_KEY", "dev-signing-key-change-me")
}

func (s Security) GetAccessTokenExpiry() time.Duration {
	return parseDuration(s.values.get("ACCESS_TOKEN_EXPIRY", ""), 1*time.Hour)
}

func (s Security) GetSecureCookies() bool {
	return s.values.get("SECURE_COOKIES", "false") == "true"
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
