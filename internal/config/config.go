package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	SessionConfig
	UpstreamConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Session
	Upstream
	Cors
	Security
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newConfig(Overlay{})
}

// Load returns a Config backed by environment variables, falling back to the
// values in the YAML file named by CONFIG_FILE (if set) and then to defaults.
func Load() (Config, error) {
	path := os.Getenv(configFileVar)
	if path == "" {
		return New(), nil
	}
	overlay, err := ReadOverlay(path)
	if err != nil {
		return nil, err
	}
	return newConfig(overlay), nil
}

func newConfig(o Overlay) Config {
	return mainConfig{
		EnvVars:  EnvVars{values: o},
		Session:  Session{values: o},
		Upstream: Upstream{values: o},
		Cors:     Cors{values: o},
		Security: Security{values: o},
	}
}

// Overlay holds configuration values read from a YAML file, keyed by the same
// names as the environment variables they stand in for.
type Overlay map[string]string

// ReadOverlay parses a flat YAML mapping such as:
//
//	PORT: "9090"
//	UPSTREAM_URL: http://payroll-api.internal:8081
func ReadOverlay(path string) (Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config ReadOverlay] read %s: %w", path, err)
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("[config ReadOverlay] parse %s: %w", path, err)
	}
	if o == nil {
		o = Overlay{}
	}
	return o, nil
}

func (o Overlay) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := o[envVar]; ok && value != "" {
		return value
	}
	return defaultValue
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
