package sqlite

import (
	"fmt"
	"strings"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// Config holds SQLite connection parameters. Only the file path is
// needed; ":memory:" opens an in-memory database.
type Config struct {
	Path string
}

// FromSettings builds a Config from generic connection settings.
func FromSettings(settings catalog.ConnectionSettings) (*Config, error) {
	path := settings.Path
	if path == "" {
		path = settings.Database
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite connection requires a file path")
	}
	return &Config{Path: normalizePath(path)}, nil
}

// normalizePath strips common SQLite URI prefixes.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "sqlite://") {
		return strings.TrimPrefix(path, "sqlite://")
	}
	return path
}

// DSN returns the driver connection string.
func (c *Config) DSN() string {
	return c.Path
}
