package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// Reader provides SQL Server catalog discovery over the sys catalog views.
type Reader struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReader opens a SQL Server connection pool and returns a catalog
// reader. If logger is nil, a no-op logger is used.
func NewReader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open mssql connection: %w", err)
	}

	return &Reader{
		db:     db,
		logger: logger,
	}, nil
}

// Dialect returns the registered dialect name.
func (r *Reader) Dialect() string {
	return "mssql"
}

// Ping verifies the database is reachable with valid credentials.
func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// DiscoverTables returns all user tables (excludes system objects).
// Row estimates come from sys.partitions for the heap or clustered index.
func (r *Reader) DiscoverTables(ctx context.Context) ([]catalog.TableMetadata, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    SCHEMA_NAME(t.schema_id) AS table_schema,
	    t.name AS table_name,
	    COALESCE((
	        SELECT SUM(p.rows)
	        FROM sys.partitions p
	        WHERE p.object_id = t.object_id AND p.index_id IN (0, 1)
	    ), -1) AS row_estimate,
	    COALESCE(CAST(ep.value AS NVARCHAR(4000)), '') AS table_comment
	FROM sys.tables t
	LEFT JOIN sys.extended_properties ep
	    ON ep.major_id = t.object_id AND ep.minor_id = 0
	    AND ep.class = 1 AND ep.name = 'MS_Description'
	WHERE t.is_ms_shipped = 0
	ORDER BY table_schema, table_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []catalog.TableMetadata
	for rows.Next() {
		var t catalog.TableMetadata
		if err := rows.Scan(&t.SchemaName, &t.TableName, &t.RowEstimate, &t.Comment); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	r.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

// DiscoverColumns returns columns for a specific table in column_id
// order. Primary key ordering comes from the key_ordinal of the primary
// key index.
func (r *Reader) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]catalog.ColumnMetadata, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    CASE WHEN c.is_nullable = 1 THEN 1 ELSE 0 END AS is_nullable,
	    c.column_id AS ordinal_position,
	    dc.definition AS column_default,
	    c.max_length,
	    c.precision,
	    c.scale,
	    CASE WHEN c.is_identity = 1 THEN 1 ELSE 0 END AS is_identity,
	    COALESCE(pk.key_ordinal, 0) AS pk_seq,
	    COALESCE(CAST(ep.value AS NVARCHAR(4000)), '') AS column_comment
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id, ic.key_ordinal
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	LEFT JOIN sys.extended_properties ep
	    ON ep.major_id = c.object_id AND ep.minor_id = c.column_id
	    AND ep.class = 1 AND ep.name = 'MS_Description'
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		sql.Named("schema", schemaName),
		sql.Named("table", tableName),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []catalog.ColumnMetadata
	for rows.Next() {
		var (
			c          catalog.ColumnMetadata
			isNullable int
			isIdentity int
			def        sql.NullString
			maxLength  int64
			precision  int64
			scale      int64
		)
		if err := rows.Scan(&c.ColumnName, &c.DataType, &isNullable, &c.OrdinalPosition,
			&def, &maxLength, &precision, &scale, &isIdentity, &c.PrimaryKeySeq, &c.Comment); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}

		c.IsNullable = isNullable == 1
		c.IsAutoIncrement = isIdentity == 1
		c.IsPrimaryKey = c.PrimaryKeySeq > 0
		if def.Valid {
			v := def.String
			c.DefaultValue = &v
		}
		c.ColumnType = composeColumnType(c.DataType, maxLength, precision, scale)
		c.Length = charLength(c.DataType, maxLength)
		switch c.DataType {
		case "decimal", "numeric":
			p, s := precision, scale
			c.Precision = &p
			c.Scale = &s
		}

		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// DiscoverIndexes returns a table's indexes with key columns in
// key_ordinal order. Included columns are skipped.
func (r *Reader) DiscoverIndexes(ctx context.Context, schemaName, tableName string) ([]catalog.IndexMetadata, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    i.name AS index_name,
	    COL_NAME(ic.object_id, ic.column_id) AS column_name,
	    CASE WHEN i.is_unique = 1 THEN 1 ELSE 0 END AS is_unique,
	    CASE WHEN i.is_primary_key = 1 THEN 1 ELSE 0 END AS is_primary_key
	FROM sys.indexes i
	INNER JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
	WHERE i.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	  AND i.name IS NOT NULL
	  AND ic.is_included_column = 0
	ORDER BY i.name, ic.key_ordinal
	`

	rows, err := r.db.QueryContext(ctx, query,
		sql.Named("schema", schemaName),
		sql.Named("table", tableName),
	)
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
			isUnique  int
			isPrimary int
		)
		if err := rows.Scan(&indexName, &column, &isUnique, &isPrimary); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		idx, ok := indexMap[indexName]
		if !ok {
			idx = &catalog.IndexMetadata{
				IndexName: indexName,
				IsUnique:  isUnique == 1,
				IsPrimary: isPrimary == 1,
			}
			indexMap[indexName] = idx
			order = append(order, indexName)
		}
		idx.Columns = append(idx.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}

	indexes := make([]catalog.IndexMetadata, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *indexMap[name])
	}
	return indexes, nil
}

// DiscoverForeignKeys returns a table's outgoing foreign keys with
// columns in constraint_column_id order.
func (r *Reader) DiscoverForeignKeys(ctx context.Context, schemaName, tableName string) ([]catalog.ForeignKeyMetadata, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    fk.name AS constraint_name,
	    COL_NAME(fkc.parent_object_id, fkc.parent_column_id) AS source_column,
	    OBJECT_NAME(fk.referenced_object_id) AS target_table,
	    COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) AS target_column,
	    fk.update_referential_action_desc,
	    fk.delete_referential_action_desc
	FROM sys.foreign_keys fk
	INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
	WHERE fk.parent_object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	  AND fk.is_ms_shipped = 0
	ORDER BY fk.name, fkc.constraint_column_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		sql.Named("schema", schemaName),
		sql.Named("table", tableName),
	)
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
			updateAction   string
			deleteAction   string
		)
		if err := rows.Scan(&constraintName, &sourceColumn, &targetTable, &targetColumn, &updateAction, &deleteAction); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fk, ok := fkMap[constraintName]
		if !ok {
			fk = &catalog.ForeignKeyMetadata{
				ConstraintName: constraintName,
				TargetTable:    targetTable,
				OnUpdate:       normalizeReferentialAction(updateAction),
				OnDelete:       normalizeReferentialAction(deleteAction),
			}
			fkMap[constraintName] = fk
			order = append(order, constraintName)
		}
		fk.Columns = append(fk.Columns, sourceColumn)
		fk.TargetColumns = append(fk.TargetColumns, targetColumn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign key rows: %w", err)
	}

	fks := make([]catalog.ForeignKeyMetadata, 0, len(order))
	for _, name := range order {
		fks = append(fks, *fkMap[name])
	}
	return fks, nil
}

// Ensure Reader implements catalog.CatalogReader at compile time.
var _ catalog.CatalogReader = (*Reader)(nil)
