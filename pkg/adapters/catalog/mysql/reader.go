package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// Reader provides MySQL catalog discovery over information_schema.
type Reader struct {
	db       *sql.DB
	database string
	logger   *zap.Logger
}

// NewReader opens a MySQL connection pool and returns a catalog reader.
// If logger is nil, a no-op logger is used.
func NewReader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	return &Reader{
		db:       db,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Dialect returns the registered dialect name.
func (r *Reader) Dialect() string {
	return "mysql"
}

// Ping verifies the database is reachable with valid credentials.
func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool.
func (r *Reader) Close() error {
	return r.db.Close()
}

// DiscoverTables returns all base tables in the connected database.
// TABLE_ROWS is the storage engine's estimate, not an exact count.
func (r *Reader) DiscoverTables(ctx context.Context) ([]catalog.TableMetadata, error) {
	const query = `
		SELECT
			t.TABLE_SCHEMA,
			t.TABLE_NAME,
			COALESCE(t.TABLE_ROWS, -1),
			COALESCE(t.TABLE_COMMENT, '')
		FROM information_schema.tables t
		WHERE t.TABLE_SCHEMA = ?
		  AND t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY t.TABLE_NAME`

	rows, err := r.db.QueryContext(ctx, query, r.database)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []catalog.TableMetadata
	for rows.Next() {
		var t catalog.TableMetadata
		if err := rows.Scan(&t.SchemaName, &t.TableName, &t.RowEstimate, &t.Comment); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	r.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

// DiscoverColumns returns columns for a specific table in declaration
// order. COLUMN_TYPE carries the full descriptor including display
// width, the unsigned modifier, and enum literals, all of which
// information_schema.columns.DATA_TYPE strips.
func (r *Reader) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]catalog.ColumnMetadata, error) {
	const query = `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.COLUMN_TYPE,
			c.IS_NULLABLE,
			c.ORDINAL_POSITION,
			c.COLUMN_DEFAULT,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.EXTRA,
			COALESCE(pk.ORDINAL_POSITION, 0),
			COALESCE(c.COLUMN_COMMENT, '')
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage pk
			ON  pk.TABLE_SCHEMA    = c.TABLE_SCHEMA
			AND pk.TABLE_NAME      = c.TABLE_NAME
			AND pk.COLUMN_NAME     = c.COLUMN_NAME
			AND pk.CONSTRAINT_NAME = 'PRIMARY'
		WHERE c.TABLE_SCHEMA = ?
		  AND c.TABLE_NAME   = ?
		ORDER BY c.ORDINAL_POSITION`

	rows, err := r.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []catalog.ColumnMetadata
	for rows.Next() {
		var (
			c        catalog.ColumnMetadata
			nullable string
			extra    string
			length   sql.NullInt64
			prec     sql.NullInt64
			scale    sql.NullInt64
			def      sql.NullString
		)
		if err := rows.Scan(&c.ColumnName, &c.DataType, &c.ColumnType, &nullable, &c.OrdinalPosition,
			&def, &length, &prec, &scale, &extra, &c.PrimaryKeySeq, &c.Comment); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.IsNullable = nullable == "YES"
		c.IsPrimaryKey = c.PrimaryKeySeq > 0
		c.IsAutoIncrement = strings.Contains(extra, "auto_increment")
		c.Unsigned = strings.Contains(c.ColumnType, "unsigned")
		if def.Valid {
			v := def.String
			c.DefaultValue = &v
		}
		if length.Valid {
			v := length.Int64
			c.Length = &v
		}
		if prec.Valid {
			v := prec.Int64
			c.Precision = &v
		}
		if scale.Valid {
			v := scale.Int64
			c.Scale = &v
		}
		if c.DataType == "enum" || c.DataType == "set" {
			c.EnumValues = parseEnumLiterals(c.ColumnType)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// DiscoverIndexes returns a table's indexes with columns in key order.
// The PRIMARY index is MySQL's fixed name for the primary key.
func (r *Reader) DiscoverIndexes(ctx context.Context, schemaName, tableName string) ([]catalog.IndexMetadata, error) {
	const query = `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE
		FROM information_schema.statistics
		WHERE TABLE_SCHEMA = ?
		  AND TABLE_NAME   = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := r.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	indexMap := make(map[string]*catalog.IndexMetadata)
	var order []string
	for rows.Next() {
		var (
			indexName string
			column    string
			nonUnique int
		)
		if err := rows.Scan(&indexName, &column, &nonUnique); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		idx, ok := indexMap[indexName]
		if !ok {
			idx = &catalog.IndexMetadata{
				IndexName: indexName,
				IsUnique:  nonUnique == 0,
				IsPrimary: indexName == "PRIMARY",
			}
			indexMap[indexName] = idx
			order = append(order, indexName)
		}
		idx.Columns = append(idx.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	indexes := make([]catalog.IndexMetadata, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *indexMap[name])
	}
	return indexes, nil
}

// DiscoverForeignKeys returns a table's outgoing foreign keys with
// columns position-aligned to the referenced columns.
func (r *Reader) DiscoverForeignKeys(ctx context.Context, schemaName, tableName string) ([]catalog.ForeignKeyMetadata, error) {
	const query = `
		SELECT
			kcu.CONSTRAINT_NAME,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.UPDATE_RULE,
			rc.DELETE_RULE
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON  rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
			AND rc.CONSTRAINT_NAME   = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA          = ?
		  AND kcu.TABLE_NAME            = ?
		  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	rows, err := r.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	fkMap := make(map[string]*catalog.ForeignKeyMetadata)
	var order []string
	for rows.Next() {
		var (
			constraintName string
			sourceColumn   string
			targetTable    string
			targetColumn   string
			updateRule     string
			deleteRule     string
		)
		if err := rows.Scan(&constraintName, &sourceColumn, &targetTable, &targetColumn, &updateRule, &deleteRule); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fk, ok := fkMap[constraintName]
		if !ok {
			fk = &catalog.ForeignKeyMetadata{
				ConstraintName: constraintName,
				TargetTable:    targetTable,
				OnUpdate:       updateRule,
				OnDelete:       deleteRule,
			}
			fkMap[constraintName] = fk
			order = append(order, constraintName)
		}
		fk.Columns = append(fk.Columns, sourceColumn)
		fk.TargetColumns = append(fk.TargetColumns, targetColumn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	fks := make([]catalog.ForeignKeyMetadata, 0, len(order))
	for _, name := range order {
		fks = append(fks, *fkMap[name])
	}
	return fks, nil
}

// parseEnumLiterals extracts the quoted literals from an enum or set
// descriptor such as enum('G','PG','PG-13'). Doubled single quotes
// inside a literal are MySQL's escape for a literal quote.
func parseEnumLiterals(columnType string) []string {
	open := strings.Index(columnType, "(")
	closing := strings.LastIndex(columnType, ")")
	if open < 0 || closing <= open {
		return nil
	}
	body := columnType[open+1 : closing]

	var (
		values  []string
		current strings.Builder
		inQuote bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case inQuote && ch == '\'':
			if i+1 < len(body) && body[i+1] == '\'' {
				current.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
			values = append(values, current.String())
			current.Reset()
		case !inQuote && ch == '\'':
			inQuote = true
		case inQuote:
			current.WriteByte(ch)
		}
	}
	return values
}

// Ensure Reader implements catalog.CatalogReader at compile time.
var _ catalog.CatalogReader = (*Reader)(nil)
