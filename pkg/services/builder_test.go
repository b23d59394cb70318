package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/config"
)

type fakeFactory struct {
	reader catalog.CatalogReader
	err    error
}

func (f *fakeFactory) NewReader(context.Context, catalog.ConnectionSettings, *zap.Logger) (catalog.CatalogReader, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reader, nil
}

func (f *fakeFactory) ListDialects() []catalog.ReaderInfo { return nil }

func builderConfig() *config.Config {
	return &config.Config{
		Connection: config.ConnectionConfig{Driver: "postgres", Host: "localhost", Database: "app"},
		Relations:  config.RelationsConfig{JunctionStrategy: "auto", MetadataThreshold: 1, JoinTablePattern: "%s_%s"},
		Engine:     config.EngineConfig{MaxWorkers: 2},
	}
}

// blogReader mirrors blogSchema as a fake catalog: users with an enum
// column, posts referencing users, tags, and a pure post_tags junction.
func blogReader() *fakeReader {
	return &fakeReader{
		dialect: "postgres",
		tables: []catalog.TableMetadata{
			{SchemaName: "public", TableName: "users", RowEstimate: 5},
			{SchemaName: "public", TableName: "posts", RowEstimate: 12},
			{SchemaName: "public", TableName: "tags", RowEstimate: 3},
			{SchemaName: "public", TableName: "post_tags", RowEstimate: 20},
		},
		columns: map[string][]catalog.ColumnMetadata{
			"users": {
				{ColumnName: "id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 1, OrdinalPosition: 1},
				{ColumnName: "status", DataType: "USER-DEFINED", ColumnType: "account_status", OrdinalPosition: 2, EnumValues: []string{"active", "banned"}},
			},
			"posts": {
				{ColumnName: "id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 1, OrdinalPosition: 1},
				{ColumnName: "author_id", DataType: "integer", ColumnType: "integer", OrdinalPosition: 2},
			},
			"tags": {
				{ColumnName: "id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 1, OrdinalPosition: 1},
			},
			"post_tags": {
				{ColumnName: "post_id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 1, OrdinalPosition: 1},
				{ColumnName: "tag_id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 2, OrdinalPosition: 2},
			},
		},
		fks: map[string][]catalog.ForeignKeyMetadata{
			"posts": {
				{ConstraintName: "posts_author_id_fkey", Columns: []string{"author_id"}, TargetTable: "users", TargetColumns: []string{"id"}},
			},
			"post_tags": {
				{ConstraintName: "post_tags_post_id_fkey", Columns: []string{"post_id"}, TargetTable: "posts", TargetColumns: []string{"id"}},
				{ConstraintName: "post_tags_tag_id_fkey", Columns: []string{"tag_id"}, TargetTable: "tags", TargetColumns: []string{"id"}},
			},
		},
	}
}

func TestBuildAssemblesModelAndReport(t *testing.T) {
	reader := blogReader()
	sink := &recordingSink{}
	builder := NewModelBuilder(builderConfig(), &fakeFactory{reader: reader}, sink, nil)

	output, err := builder.Build(context.Background())
	require.NoError(t, err)

	model := output.Model
	require.NotNil(t, model)
	assert.Equal(t, "postgres", model.Dialect)
	assert.Len(t, model.Tables, 4)
	assert.True(t, model.IsCollapsed("post_tags"))
	assert.Len(t, model.Entities(), 3)

	// One many_to_many through post_tags plus posts -> users.
	require.Len(t, model.Relationships, 2)
	require.Len(t, model.Enums, 1)
	assert.Equal(t, "UserStatusEnum", model.Enums[0].ClassName)

	report := output.Report
	require.NotNil(t, report)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.RunID.String())
	assert.Equal(t, 4, report.Tables)
	assert.Equal(t, 7, report.Columns)
	assert.Equal(t, 2, report.Relationships)
	assert.Equal(t, 1, report.Enums)
	assert.Equal(t, 1, report.Collapsed)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.FailedTables())
	require.Len(t, report.TableResults, 4)
	assert.False(t, report.FinishedAt.IsZero())

	assert.Equal(t, 2, sink.resolved)
	assert.Equal(t, 1, sink.extracted)
	assert.Equal(t, 0, sink.conflicts)
	assert.True(t, reader.closed)
}

func TestBuildPingFailure(t *testing.T) {
	reader := blogReader()
	reader.pingErr = errors.New("connection refused")
	builder := NewModelBuilder(builderConfig(), &fakeFactory{reader: reader}, nil, nil)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConnectionFailure, apperrors.KindOf(err))
	assert.True(t, reader.closed)
}

func TestBuildUnknownDialect(t *testing.T) {
	builder := NewModelBuilder(builderConfig(), &fakeFactory{err: errors.New("unsupported dialect: oracle")}, nil, nil)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfigurationInvalid, apperrors.KindOf(err))
}

func TestBuildNamingConflictEmitsEvent(t *testing.T) {
	reader := &fakeReader{
		dialect: "postgres",
		tables: []catalog.TableMetadata{
			{SchemaName: "public", TableName: "user_profile"},
			{SchemaName: "public", TableName: "user_profiles"},
		},
		columns: map[string][]catalog.ColumnMetadata{
			"user_profile":  {{ColumnName: "id", DataType: "integer", OrdinalPosition: 1}},
			"user_profiles": {{ColumnName: "id", DataType: "integer", OrdinalPosition: 1}},
		},
	}
	sink := &recordingSink{}
	builder := NewModelBuilder(builderConfig(), &fakeFactory{reader: reader}, sink, nil)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNamingConflict, apperrors.KindOf(err))
	assert.Equal(t, 1, sink.conflicts)
}

func TestBuildEnumCaseCollisionIsReportedNotFatal(t *testing.T) {
	reader := &fakeReader{
		dialect: "postgres",
		tables: []catalog.TableMetadata{
			{SchemaName: "public", TableName: "alerts"},
		},
		columns: map[string][]catalog.ColumnMetadata{
			"alerts": {
				{ColumnName: "id", DataType: "integer", ColumnType: "integer", IsPrimaryKey: true, PrimaryKeySeq: 1, OrdinalPosition: 1},
				{ColumnName: "level", DataType: "USER-DEFINED", ColumnType: "alert_level", OrdinalPosition: 2, EnumValues: []string{"high", "HIGH"}},
			},
		},
	}
	sink := &recordingSink{}
	builder := NewModelBuilder(builderConfig(), &fakeFactory{reader: reader}, sink, nil)

	output, err := builder.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, output.Model.Enums, 1)
	assert.Equal(t, []string{"HIGH_2"}, output.Model.Enums[0].Disambiguated)
	assert.Equal(t, 1, sink.conflicts)
}

func TestBuildDanglingReferenceAfterExclusion(t *testing.T) {
	reader := blogReader()
	cfg := builderConfig()
	cfg.Tables.Exclude = []string{"users"}
	builder := NewModelBuilder(cfg, &fakeFactory{reader: reader}, nil, nil)

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMetadataExtraction, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "users")
}

func TestBuildMissingRequestedTableWarns(t *testing.T) {
	cfg := builderConfig()
	cfg.Tables.Include = []string{"users", "archive"}
	builder := NewModelBuilder(cfg, &fakeFactory{reader: blogReader()}, nil, nil)

	output, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, output.Report.Warnings, 1)
	assert.Contains(t, output.Report.Warnings[0], "archive")
	assert.Equal(t, 1, output.Report.Tables)
}
