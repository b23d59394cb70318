package catalog

import "context"

// ConnectionSettings are the dialect-neutral connection parameters the
// engine accepts. Each adapter picks the fields it understands and
// rejects settings it cannot work with.
type ConnectionSettings struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// Charset applies to MySQL connections.
	Charset string
	// SSLMode applies to PostgreSQL connections.
	SSLMode string
	// Path is the database file for SQLite; Database is ignored there
	// when Path is set.
	Path string
}

// CatalogReader reads schema catalog metadata for one dialect.
// Implementations own their connection and must be closed when done.
// All queries are catalog reads; a reader never executes DML and never
// scans user tables.
type CatalogReader interface {
	// Dialect returns the dialect name this reader was registered under.
	Dialect() string

	// Ping verifies the database is reachable with valid credentials.
	Ping(ctx context.Context) error

	// DiscoverTables returns all user tables (system schemas excluded).
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns returns a table's columns in declaration order.
	DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]ColumnMetadata, error)

	// DiscoverIndexes returns a table's indexes, including the primary
	// key index when the dialect exposes one.
	DiscoverIndexes(ctx context.Context, schemaName, tableName string) ([]IndexMetadata, error)

	// DiscoverForeignKeys returns a table's outgoing foreign keys with
	// column lists in constraint declaration order.
	DiscoverForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKeyMetadata, error)

	// Close releases the database connection.
	Close() error
}
