package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// Reader provides SQLite catalog discovery through sqlite_master and
// the table_info, index_list, index_info and foreign_key_list pragmas.
type Reader struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReader opens a SQLite database and returns a catalog reader.
// The file must already exist; opening a missing path would silently
// create an empty database and report zero tables. If logger is nil,
// a no-op logger is used.
func NewReader(ctx context.Context, cfg *Config, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, fmt.Errorf("sqlite database %s: %w", cfg.Path, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return &Reader{
		db:     db,
		logger: logger,
	}, nil
}

// Dialect returns the registered dialect name.
func (r *Reader) Dialect() string {
	return "sqlite"
}

// Ping verifies the database file is readable.
func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

// DiscoverTables returns all user tables. SQLite keeps no cheap row
// estimate, so RowEstimate is always -1.
func (r *Reader) DiscoverTables(ctx context.Context) ([]catalog.TableMetadata, error) {
	const query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []catalog.TableMetadata
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, catalog.TableMetadata{
			SchemaName:  "main",
			TableName:   name,
			RowEstimate: -1,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	r.logger.Debug("Discovered tables", zap.Int("count", len(tables)))
	return tables, nil
}

// DiscoverColumns returns columns for a specific table in declaration
// order. The pk value from table_info is the 1-based position of the
// column within the primary key, or 0 for non-key columns. A single
// INTEGER primary key column is an alias for rowid and auto-assigns.
func (r *Reader) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]catalog.ColumnMetadata, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("query table_info: %w", err)
	}
	defer rows.Close()

	var columns []catalog.ColumnMetadata
	pkCount := 0
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}

		col := catalog.ColumnMetadata{
			ColumnName:      name,
			DataType:        colType,
			ColumnType:      colType,
			IsNullable:      notNull == 0,
			IsPrimaryKey:    pk > 0,
			PrimaryKeySeq:   pk,
			OrdinalPosition: cid + 1,
		}
		if dfltValue.Valid {
			v := dfltValue.String
			col.DefaultValue = &v
		}
		if pk > 0 {
			pkCount++
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info: %w", err)
	}

	if pkCount == 1 {
		for i := range columns {
			if columns[i].IsPrimaryKey && strings.EqualFold(columns[i].DataType, "INTEGER") {
				columns[i].IsAutoIncrement = true
			}
		}
	}

	return columns, nil
}

// DiscoverIndexes returns a table's indexes with columns in key order.
// Indexes with origin 'pk' back the primary key.
func (r *Reader) DiscoverIndexes(ctx context.Context, schemaName, tableName string) ([]catalog.IndexMetadata, error) {
	listRows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("query index_list: %w", err)
	}
	defer listRows.Close()

	type indexEntry struct {
		name    string
		unique  bool
		primary bool
	}
	var entries []indexEntry
	for listRows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := listRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("scan index_list: %w", err)
		}
		entries = append(entries, indexEntry{
			name:    name,
			unique:  unique == 1,
			primary: origin == "pk",
		})
	}
	if err := listRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index_list: %w", err)
	}

	var indexes []catalog.IndexMetadata
	for _, entry := range entries {
		columns, err := r.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, catalog.IndexMetadata{
			IndexName: entry.name,
			Columns:   columns,
			IsUnique:  entry.unique,
			IsPrimary: entry.primary,
		})
	}
	return indexes, nil
}

func (r *Reader) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", indexName))
	if err != nil {
		return nil, fmt.Errorf("query index_info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  string
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scan index_info: %w", err)
		}
		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index_info: %w", err)
	}

	return columns, nil
}

// DiscoverForeignKeys returns a table's outgoing foreign keys.
// foreign_key_list reports constraints in reverse declaration order,
// so the grouped result is flipped back before returning. Constraint
// names are synthesized from the declaration position since SQLite
// does not expose them. A NULL target column means the constraint
// references the target's implicit primary key and is left empty here.
func (r *Reader) DiscoverForeignKeys(ctx context.Context, schemaName, tableName string) ([]catalog.ForeignKeyMetadata, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("query foreign_key_list: %w", err)
	}
	defer rows.Close()

	fkMap := make(map[int]*catalog.ForeignKeyMetadata)
	var order []int
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign_key_list: %w", err)
		}
		fk, ok := fkMap[id]
		if !ok {
			fk = &catalog.ForeignKeyMetadata{
				TargetTable: refTable,
				OnUpdate:    onUpdate,
				OnDelete:    onDelete,
			}
			fkMap[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.TargetColumns = append(fk.TargetColumns, to.String)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign_key_list: %w", err)
	}

	fks := make([]catalog.ForeignKeyMetadata, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		fks = append(fks, *fkMap[order[i]])
	}
	for i := range fks {
		fks[i].ConstraintName = fmt.Sprintf("%s_fk_%d", tableName, i)
	}
	return fks, nil
}

// Ensure Reader implements catalog.CatalogReader at compile time.
var _ catalog.CatalogReader = (*Reader)(nil)
