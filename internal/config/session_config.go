package config

import "path/filepath"

type SessionConfig interface {
	GetStorageKey() string
	GetLoginPath() string
	GetSessionCookieName() string
	GetSessionDatabase() string
}

type Session struct {
	values Overlay
}

var _ SessionConfig = Session{}

// GetStorageKey is the well-known name the persisted session record lives under.
func (s Session) GetStorageKey() string {
	return s.values.get("SESSION_STORAGE_KEY", "auth-storage")
}

func (s Session) GetLoginPath() string {
	return s.values.get("LOGIN_PATH", "/login")
}

func (s Session) GetSessionCookieName() string {
	return s.values.get("SESSION_COOKIE", "session_id")
}

func (s Session) GetSessionDatabase() string {
	return s.values.get("SESSION_DB", filepath.Join(s.values.get(folderEnvVar, "./data"), "sessions.db"))
}
