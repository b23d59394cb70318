package mysql

import (
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/config"
)

// Config holds MySQL connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Charset  string
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// FromSettings builds a Config from generic connection settings.
func FromSettings(settings catalog.ConnectionSettings) (*Config, error) {
	cfg := &Config{
		Host:     settings.Host,
		Port:     settings.Port,
		User:     settings.User,
		Password: settings.Password,
		Database: settings.Database,
		Charset:  settings.Charset,
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("mysql connection requires a host")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("mysql connection requires a user")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mysql connection requires a database name")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}

	return cfg, nil
}

// DSN renders the go-sql-driver connection string. parseTime is always
// enabled so temporal columns scan into time.Time. Inside Docker,
// localhost is resolved to host.docker.internal.
func (c *Config) DSN() string {
	host := config.ResolveHostForDocker(c.Host)

	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	if c.Charset != "" {
		cfg.Params = map[string]string{"charset": c.Charset}
	}
	return cfg.FormatDSN()
}
