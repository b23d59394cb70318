package mssql

import (
	"fmt"
	"net/url"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/config"
)

// Config contains SQL Server connection options. Only SQL
// authentication is supported; catalog reads need nothing more.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromSettings builds a Config from generic connection settings.
// ssl_mode "disable" turns encryption off; any other value leaves it on.
func FromSettings(settings catalog.ConnectionSettings) (*Config, error) {
	cfg := &Config{
		Host:              settings.Host,
		Port:              settings.Port,
		Database:          settings.Database,
		User:              settings.User,
		Password:          settings.Password,
		Encrypt:           settings.SSLMode != "disable",
		ConnectionTimeout: DefaultConnectionTimeout(),
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("mssql connection requires a host")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("mssql connection requires a user")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mssql connection requires a database name")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}

	return cfg, nil
}

// ConnectionString renders the sqlserver:// URL for go-mssqldb. Inside
// Docker, localhost is resolved to host.docker.internal.
func (c *Config) ConnectionString() string {
	host := config.ResolveHostForDocker(c.Host)

	query := url.Values{}
	query.Add("database", c.Database)

	if c.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", c.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		host,
		c.Port,
		query.Encode(),
	)
}
