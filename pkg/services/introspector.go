package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
)

// TableFilter selects which discovered tables are introspected. An
// empty include list means all tables; exclusion always wins over
// inclusion on overlap. Names match exactly.
type TableFilter struct {
	Include []string
	Exclude []string
}

func (f TableFilter) selects(name string) bool {
	for _, ex := range f.Exclude {
		if ex == name {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		if in == name {
			return true
		}
	}
	return false
}

// IntrospectResult is the outcome of one catalog pass. Warnings list
// requested-but-missing tables; TableErrors maps each table whose
// metadata could not be fully read to its failure. Both are data, not
// errors: the caller decides whether a partial snapshot is acceptable.
type IntrospectResult struct {
	Schema      *catalog.RawSchema
	Warnings    []string
	TableErrors map[string]error
}

// SchemaIntrospector reads the full catalog snapshot for a filtered
// table set. Table listing failures are fatal; per-table metadata
// failures are captured in the result so remaining tables still land
// in the snapshot.
type SchemaIntrospector interface {
	Introspect(ctx context.Context, filter TableFilter) (*IntrospectResult, error)
}

type schemaIntrospector struct {
	reader catalog.CatalogReader
	pool   *Pool
	sink   EventSink
	logger *zap.Logger
}

// NewSchemaIntrospector creates an introspector over an open catalog
// reader. Nil pool, sink, or logger fall back to defaults.
func NewSchemaIntrospector(reader catalog.CatalogReader, pool *Pool, sink EventSink, logger *zap.Logger) SchemaIntrospector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = NewPool(0, logger)
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &schemaIntrospector{reader: reader, pool: pool, sink: sink, logger: logger}
}

func (s *schemaIntrospector) Introspect(ctx context.Context, filter TableFilter) (*IntrospectResult, error) {
	tables, err := s.reader.DiscoverTables(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMetadataExtraction, err, "discover tables")
	}

	available := make(map[string]bool, len(tables))
	for _, t := range tables {
		available[t.TableName] = true
	}

	var warnings []string
	for _, name := range filter.Include {
		if !available[name] {
			warnings = append(warnings, fmt.Sprintf("table %s was requested but does not exist", name))
		}
	}

	var selected []catalog.TableMetadata
	for _, t := range tables {
		if filter.selects(t.TableName) {
			selected = append(selected, t)
		}
	}

	s.logger.Info("Catalog introspection started",
		zap.String("dialect", s.reader.Dialect()),
		zap.Int("discovered", len(tables)),
		zap.Int("selected", len(selected)))

	tasks := make([]Task[*catalog.RawTable], len(selected))
	for i, meta := range selected {
		tasks[i] = Task[*catalog.RawTable]{
			Key: meta.TableName,
			Run: func(ctx context.Context) (*catalog.RawTable, error) {
				return s.introspectTable(ctx, meta)
			},
		}
	}

	byName := make(map[string]*catalog.RawTable, len(selected))
	tableErrors := make(map[string]error)
	for _, res := range RunAll(ctx, s.pool, tasks, nil) {
		if res.Err != nil {
			tableErrors[res.Key] = res.Err
			s.sink.TableFailed(res.Key, res.Err)
			continue
		}
		byName[res.Key] = res.Value
		s.sink.TableIntrospected(res.Key, len(res.Value.Columns), len(res.Value.ForeignKeys))
	}

	// Snapshot order follows the catalog listing, not task completion.
	schema := catalog.NewRawSchema(s.reader.Dialect())
	for _, meta := range selected {
		if t, ok := byName[meta.TableName]; ok {
			schema.AddTable(t)
		}
	}
	fillImplicitTargets(schema)

	s.logger.Info("Catalog introspection finished",
		zap.Int("tables", len(schema.Tables)),
		zap.Int("failed", len(tableErrors)),
		zap.Int("warnings", len(warnings)))

	return &IntrospectResult{Schema: schema, Warnings: warnings, TableErrors: tableErrors}, nil
}

func (s *schemaIntrospector) introspectTable(ctx context.Context, meta catalog.TableMetadata) (*catalog.RawTable, error) {
	columns, err := s.reader.DiscoverColumns(ctx, meta.SchemaName, meta.TableName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMetadataExtraction, err, "discover columns of %s", meta.TableName)
	}
	indexes, err := s.reader.DiscoverIndexes(ctx, meta.SchemaName, meta.TableName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMetadataExtraction, err, "discover indexes of %s", meta.TableName)
	}
	foreignKeys, err := s.reader.DiscoverForeignKeys(ctx, meta.SchemaName, meta.TableName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindMetadataExtraction, err, "discover foreign keys of %s", meta.TableName)
	}

	return &catalog.RawTable{
		SchemaName:  meta.SchemaName,
		Name:        meta.TableName,
		RowEstimate: meta.RowEstimate,
		Comment:     meta.Comment,
		Columns:     columns,
		PrimaryKey:  catalog.PrimaryKeyOf(columns, indexes),
		Indexes:     indexes,
		ForeignKeys: foreignKeys,
	}, nil
}

// fillImplicitTargets resolves foreign keys that reference a table
// without naming its columns. SQLite reports REFERENCES parent (no
// column list) with empty target column names; the reference means the
// parent's primary key. Left unresolved when the target is missing or
// its key width differs; the resolver will surface what remains.
func fillImplicitTargets(schema *catalog.RawSchema) {
	for _, table := range schema.Tables {
		for i := range table.ForeignKeys {
			fk := &table.ForeignKeys[i]
			if !implicitTarget(fk) {
				continue
			}
			target := schema.Table(fk.TargetTable)
			if target == nil || len(target.PrimaryKey) != len(fk.Columns) {
				continue
			}
			fk.TargetColumns = append([]string(nil), target.PrimaryKey...)
		}
	}
}

func implicitTarget(fk *catalog.ForeignKeyMetadata) bool {
	if len(fk.Columns) == 0 {
		return false
	}
	if len(fk.TargetColumns) == 0 {
		return true
	}
	for _, c := range fk.TargetColumns {
		if c != "" {
			return false
		}
	}
	return true
}
