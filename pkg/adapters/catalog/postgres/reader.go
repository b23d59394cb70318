package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// Reader provides PostgreSQL catalog discovery over a pgx pool.
type Reader struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewReader connects to PostgreSQL and returns a catalog reader.
// If logger is nil, a no-op logger is used.
func NewReader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &Reader{
		pool:   pool,
		logger: logger,
	}, nil
}

// Dialect returns the registered dialect name.
func (r *Reader) Dialect() string {
	return "postgres"
}

// Ping verifies the database is reachable with valid credentials.
func (r *Reader) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *Reader) Close() error {
	r.pool.Close()
	return nil
}

// DiscoverTables returns all user tables (excludes system schemas).
// Row estimates come from pg_class.reltuples; -1 means never analyzed.
func (r *Reader) DiscoverTables(ctx context.Context) ([]catalog.TableMetadata, error) {
	const query = `
		SELECT
			t.table_schema,
			t.table_name,
			COALESCE(c.reltuples::bigint, -1) AS row_estimate,
			COALESCE(obj_description(c.oid, 'pg_class'), '') AS table_comment
		FROM information_schema.tables t
		LEFT JOIN pg_namespace n ON n.nspname = t.table_schema
		LEFT JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_schema, t.table_name
	`

	rows, err := r.pool.Query(ctx, query)
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
// order. Primary key membership and ordering come from pg_index, which
// detects PKs even when created as unique indexes by ORMs. Enum-typed
// columns carry their labels in pg_enum sort order.
func (r *Reader) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]catalog.ColumnMetadata, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable = 'YES' AS is_nullable,
			c.ordinal_position,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.datetime_precision,
			(c.is_identity = 'YES' OR COALESCE(c.column_default LIKE 'nextval(%', false)) AS is_auto_increment,
			COALESCE(pk.pk_seq, 0)::int AS pk_seq,
			COALESCE(col_description(cls.oid, c.ordinal_position), '') AS column_comment
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_namespace ns ON ns.nspname = c.table_schema
		LEFT JOIN pg_catalog.pg_class cls ON cls.relname = c.table_name AND cls.relnamespace = ns.oid
		LEFT JOIN (
			SELECT a.attname AS column_name, k.ord AS pk_seq
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
			WHERE ix.indisprimary
			  AND n.nspname = $1
			  AND t.relname = $2
		) pk ON pk.column_name = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := r.pool.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []catalog.ColumnMetadata
	var userDefined []string
	for rows.Next() {
		var (
			c       catalog.ColumnMetadata
			udtName string
			dtPrec  *int64
		)
		if err := rows.Scan(&c.ColumnName, &c.DataType, &udtName, &c.IsNullable, &c.OrdinalPosition,
			&c.DefaultValue, &c.Length, &c.Precision, &c.Scale, &dtPrec,
			&c.IsAutoIncrement, &c.PrimaryKeySeq, &c.Comment); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.IsPrimaryKey = c.PrimaryKeySeq > 0
		if c.Precision == nil && dtPrec != nil {
			c.Precision = dtPrec
		}
		c.ColumnType = composeColumnType(c.DataType, udtName, c.Length, c.Precision, c.Scale)
		if c.DataType == "USER-DEFINED" {
			userDefined = append(userDefined, udtName)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if len(userDefined) > 0 {
		labels, err := r.enumLabels(ctx, userDefined)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if columns[i].DataType == "USER-DEFINED" {
				columns[i].EnumValues = labels[columns[i].ColumnType]
			}
		}
	}

	return columns, nil
}

// enumLabels fetches enum labels for the given user-defined type names,
// keyed by type name, in pg_enum declaration order.
func (r *Reader) enumLabels(ctx context.Context, typeNames []string) (map[string][]string, error) {
	const query = `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE t.typname = ANY($1)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := r.pool.Query(ctx, query, typeNames)
	if err != nil {
		return nil, fmt.Errorf("query enum labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[string][]string)
	for rows.Next() {
		var typeName, label string
		if err := rows.Scan(&typeName, &label); err != nil {
			return nil, fmt.Errorf("scan enum label: %w", err)
		}
		labels[typeName] = append(labels[typeName], label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enum labels: %w", err)
	}

	return labels, nil
}

// DiscoverIndexes returns a table's indexes with columns in key order.
func (r *Reader) DiscoverIndexes(ctx context.Context, schemaName, tableName string) ([]catalog.IndexMetadata, error) {
	const query = `
		SELECT
			i.relname AS index_name,
			a.attname AS column_name,
			ix.indisunique,
			ix.indisprimary
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, k.ord
	`

	rows, err := r.pool.Query(ctx, query, schemaName, tableName)
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
			isUnique  bool
			isPrimary bool
		)
		if err := rows.Scan(&indexName, &column, &isUnique, &isPrimary); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		idx, ok := indexMap[indexName]
		if !ok {
			idx = &catalog.IndexMetadata{
				IndexName: indexName,
				IsUnique:  isUnique,
				IsPrimary: isPrimary,
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

// DiscoverForeignKeys returns a table's outgoing foreign keys. The two
// key_column_usage joins keep composite-key columns position-aligned,
// which constraint_column_usage cannot guarantee.
func (r *Reader) DiscoverForeignKeys(ctx context.Context, schemaName, tableName string) ([]catalog.ForeignKeyMetadata, error) {
	const query = `
		SELECT
			rc.constraint_name,
			kcu.column_name AS source_column,
			kcu2.table_name AS target_table,
			kcu2.column_name AS target_column,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		JOIN information_schema.key_column_usage kcu2
			ON kcu2.constraint_name = rc.unique_constraint_name
			AND kcu2.constraint_schema = rc.unique_constraint_schema
			AND kcu2.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1 AND kcu.table_name = $2
		ORDER BY rc.constraint_name, kcu.ordinal_position
	`

	rows, err := r.pool.Query(ctx, query, schemaName, tableName)
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

// composeColumnType renders the full native descriptor the way psql
// would show it. User-defined and array types keep their udt name.
func composeColumnType(dataType, udtName string, length, precision, scale *int64) string {
	switch dataType {
	case "USER-DEFINED", "ARRAY":
		return udtName
	case "numeric", "decimal":
		if precision != nil && scale != nil {
			return fmt.Sprintf("%s(%d,%d)", dataType, *precision, *scale)
		}
		return dataType
	}
	if length != nil && *length > 0 {
		return fmt.Sprintf("%s(%d)", dataType, *length)
	}
	return dataType
}

// Ensure Reader implements catalog.CatalogReader at compile time.
var _ catalog.CatalogReader = (*Reader)(nil)
