package config

import (
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/models"
)

// Config holds all configuration for schemantic.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values for
// fields that support both. Secrets (the database password) must only
// come from environment variables.
type Config struct {
	// Env selects the logger profile ("production" or anything else).
	Env string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// Output is the path the assembled model is written to.
	// Empty writes to stdout.
	Output string `yaml:"output" env:"OUTPUT" env-default:""`

	Version string `yaml:"-"` // Set at load time, not from config

	// Connection describes the database whose catalog is read.
	Connection ConnectionConfig `yaml:"connection"`

	// Tables controls which tables participate in introspection.
	Tables TablesConfig `yaml:"tables"`

	// Relations controls relationship classification and junction
	// collapsing.
	Relations RelationsConfig `yaml:"relations"`

	// Engine holds execution knobs.
	Engine EngineConfig `yaml:"engine"`
}

// ConnectionConfig holds connection parameters for the introspected
// database. Path is only meaningful for sqlite; charset only for mysql.
type ConnectionConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"0"`
	Database string `yaml:"database" env:"DB_DATABASE" env-default:""`
	User     string `yaml:"user" env:"DB_USER" env-default:""`
	Password string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Charset  string `yaml:"charset" env:"DB_CHARSET" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:""`
	Path     string `yaml:"path" env:"DB_PATH" env-default:""`
}

// TablesConfig holds include and exclude lists. An empty include list
// means all discovered tables; exclusion always wins over inclusion.
type TablesConfig struct {
	Include []string `yaml:"include" env:"TABLES_INCLUDE"`
	Exclude []string `yaml:"exclude" env:"TABLES_EXCLUDE"`
}

// RelationsConfig holds relationship resolution settings.
type RelationsConfig struct {
	// JunctionStrategy is one of skip_simple, always_entity, auto.
	JunctionStrategy string `yaml:"junction_strategy" env:"JUNCTION_STRATEGY" env-default:"auto"`

	// MetadataThreshold is the maximum number of non-key columns a
	// junction may carry and still be collapsed under the auto strategy.
	MetadataThreshold int `yaml:"metadata_threshold" env:"METADATA_THRESHOLD" env-default:"1"`

	// JoinTablePattern names the expected join-table naming scheme.
	// Must contain at least one %s verb.
	JoinTablePattern string `yaml:"join_table_pattern" env:"JOIN_TABLE_PATTERN" env-default:"%s_%s"`
}

// EngineConfig holds execution settings.
type EngineConfig struct {
	// MaxWorkers bounds concurrent per-table introspection.
	MaxWorkers int `yaml:"max_workers" env:"MAX_WORKERS" env-default:"8"`
}

// Load reads configuration from config.yaml (or CONFIG_PATH) with
// environment variable overrides, falling back to environment-only
// when no file exists. The version parameter is injected at build time
// and set on the returned Config. Validation happens eagerly so bad
// settings fail before any connection is attempted.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfigurationInvalid, err, "read %s", path)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfigurationInvalid, err, "read environment")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every setting whose invalidity should stop a run
// before connecting.
func (c *Config) Validate() error {
	if c.Connection.Driver == "" {
		return apperrors.New(apperrors.KindConfigurationInvalid, "connection driver is required")
	}

	if _, err := models.ParseJunctionStrategy(c.Relations.JunctionStrategy); err != nil {
		return apperrors.Wrap(apperrors.KindConfigurationInvalid, err, "relations.junction_strategy")
	}
	if c.Relations.MetadataThreshold < 0 {
		return apperrors.New(apperrors.KindConfigurationInvalid, "relations.metadata_threshold must not be negative, got %d", c.Relations.MetadataThreshold)
	}
	if strings.Count(c.Relations.JoinTablePattern, "%s") < 1 {
		return apperrors.New(apperrors.KindConfigurationInvalid, "relations.join_table_pattern %q must contain at least one %%s", c.Relations.JoinTablePattern)
	}

	if c.Engine.MaxWorkers < 1 {
		return apperrors.New(apperrors.KindConfigurationInvalid, "engine.max_workers must be at least 1, got %d", c.Engine.MaxWorkers)
	}

	return nil
}

// JunctionStrategy returns the parsed strategy. Call after Validate.
func (c *Config) JunctionStrategy() models.JunctionStrategy {
	strategy, err := models.ParseJunctionStrategy(c.Relations.JunctionStrategy)
	if err != nil {
		return models.JunctionAuto
	}
	return strategy
}

// Settings converts the connection section into the neutral form the
// reader factory consumes.
func (c *ConnectionConfig) Settings() catalog.ConnectionSettings {
	return catalog.ConnectionSettings{
		Driver:   c.Driver,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
		Charset:  c.Charset,
		SSLMode:  c.SSLMode,
		Path:     c.Path,
	}
}
