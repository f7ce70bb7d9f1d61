package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Credentials   CredentialsConfig
	Providers     ProvidersConfig
	Server        ServerConfig
	History       HistoryConfig
	Observability ObservabilityConfig
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"` // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// CredentialsConfig locates the .env file holding provider API keys.
type CredentialsConfig struct {
	EnvFile string `envconfig:"SHORTENCTL_ENV_FILE" default:".env"`
}

// Validate validates the credentials configuration.
func (c *CredentialsConfig) Validate() error {
	if strings.TrimSpace(c.EnvFile) == "" {
		return fmt.Errorf("env file path cannot be empty")
	}
	return nil
}

// ProvidersConfig holds the provider API endpoints.
type ProvidersConfig struct {
	CutyEndpoint     string `envconfig:"CUTY_ENDPOINT" default:"https://cuty.io/api"`
	OuoEndpoint      string `envconfig:"OUO_ENDPOINT" default:"http://ouo.io/api"`
	ShrinkmeEndpoint string `envconfig:"SHRINKME_ENDPOINT" default:"https://shrinkme.io/api"`
}

// Validate validates the providers configuration.
func (c *ProvidersConfig) Validate() error {
	endpoints := []struct {
		name  string
		value string
	}{
		{"cuty", c.CutyEndpoint},
		{"ouo", c.OuoEndpoint},
		{"shrinkme", c.ShrinkmeEndpoint},
	}
	for _, e := range endpoints {
		u, err := url.Parse(e.value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s endpoint: %q (must be an absolute http(s) URL)", e.name, e.value)
		}
	}
	return nil
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// HistoryConfig selects where shorten outcomes are stored.
type HistoryConfig struct {
	Driver      string `envconfig:"HISTORY_DRIVER" default:"none"` // none, bolt, postgres
	BoltPath    string `envconfig:"HISTORY_BOLT_PATH" default:"history.db"`
	DatabaseURL string `envconfig:"HISTORY_DATABASE_URL"`
	MaxConns    int32  `envconfig:"HISTORY_MAX_CONNS" default:"4"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	switch c.Driver {
	case "none":
	case "bolt":
		if c.BoltPath == "" {
			return fmt.Errorf("bolt path is required when the history driver is bolt")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url is required when the history driver is postgres")
		}
		if c.MaxConns <= 0 {
			return fmt.Errorf("max connections must be positive")
		}
	default:
		return fmt.Errorf("invalid history driver: %s (must be one of: none, bolt, postgres)", c.Driver)
	}
	return nil
}

// Enabled reports whether outcomes are persisted.
func (c *HistoryConfig) Enabled() bool {
	return c.Driver != "none"
}

// ObservabilityConfig holds service identity and metrics settings.
type ObservabilityConfig struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"shortenctl"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}
	return nil
}

type section struct {
	name string
	spec interface{ Validate() error }
}

// Load loads configuration from environment variables only.
// The .env file is loaded into the environment by the app before this runs.
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []section{
		{"App", &cfg.App},
		{"Credentials", &cfg.Credentials},
		{"Providers", &cfg.Providers},
		{"Server", &cfg.Server},
		{"History", &cfg.History},
		{"Observability", &cfg.Observability},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.spec); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	return cfg, nil
}
