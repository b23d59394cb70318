package postgres

import (
	"fmt"
	"net/url"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "prefer", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "prefer"
}

// FromSettings builds a Config from dialect-neutral settings.
func FromSettings(settings catalog.ConnectionSettings) (*Config, error) {
	cfg := &Config{
		Host:     settings.Host,
		Port:     settings.Port,
		User:     settings.User,
		Password: settings.Password,
		Database: settings.Database,
		SSLMode:  settings.SSLMode,
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode()
	}

	return cfg, nil
}

// ConnectionString renders the pgx connection URL. User-provided fields
// are URL-escaped so passwords containing @, /, # or ? survive parsing.
// When running in Docker, localhost is resolved to host.docker.internal
// so the catalog of a database on the host machine stays reachable.
func (c *Config) ConnectionString() string {
	host := config.ResolveHostForDocker(c.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		host,
		c.Port,
		url.QueryEscape(c.Database),
		c.SSLMode,
	)
}
