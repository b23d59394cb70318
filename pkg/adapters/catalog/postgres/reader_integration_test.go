//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/testhelpers"
)

func newIntegrationReader(t *testing.T) *Reader {
	t.Helper()

	db := testhelpers.GetCatalogDB(t)
	cfg, err := FromSettings(db.Settings())
	require.NoError(t, err)

	reader, err := NewReader(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	return reader
}

func TestIntegrationPing(t *testing.T) {
	reader := newIntegrationReader(t)
	require.NoError(t, reader.Ping(context.Background()))
}

func TestIntegrationDiscoverTables(t *testing.T) {
	reader := newIntegrationReader(t)

	tables, err := reader.DiscoverTables(context.Background())
	require.NoError(t, err)

	byName := make(map[string]catalog.TableMetadata, len(tables))
	names := make([]string, len(tables))
	for i, tbl := range tables {
		byName[tbl.TableName] = tbl
		names[i] = tbl.TableName
	}
	assert.Equal(t, []string{"post_tags", "posts", "tags", "user_profiles", "users"}, names)
	assert.Equal(t, "Registered accounts", byName["users"].Comment)
	assert.Equal(t, "public", byName["users"].SchemaName)
}

func TestIntegrationDiscoverColumns(t *testing.T) {
	reader := newIntegrationReader(t)

	columns, err := reader.DiscoverColumns(context.Background(), "public", "users")
	require.NoError(t, err)
	require.Len(t, columns, 5)

	byName := make(map[string]catalog.ColumnMetadata, len(columns))
	for _, col := range columns {
		byName[col.ColumnName] = col
	}

	id := byName["id"]
	assert.True(t, id.IsPrimaryKey)
	assert.Equal(t, 1, id.PrimaryKeySeq)
	assert.True(t, id.IsAutoIncrement)
	assert.False(t, id.IsNullable)

	status := byName["status"]
	assert.Equal(t, "account_status", status.ColumnType)
	assert.Equal(t, []string{"active", "suspended", "deleted"}, status.EnumValues)
	assert.NotNil(t, status.DefaultValue)
	assert.Equal(t, "Lifecycle state", status.Comment)

	balance := byName["balance"]
	assert.True(t, balance.IsNullable)
	require.NotNil(t, balance.Precision)
	assert.Equal(t, int64(12), *balance.Precision)
	require.NotNil(t, balance.Scale)
	assert.Equal(t, int64(2), *balance.Scale)

	email := byName["email"]
	require.NotNil(t, email.Length)
	assert.Equal(t, int64(255), *email.Length)
}

func TestIntegrationCompositePrimaryKey(t *testing.T) {
	reader := newIntegrationReader(t)
	ctx := context.Background()

	columns, err := reader.DiscoverColumns(ctx, "public", "post_tags")
	require.NoError(t, err)
	indexes, err := reader.DiscoverIndexes(ctx, "public", "post_tags")
	require.NoError(t, err)

	assert.Equal(t, []string{"post_id", "tag_id"}, catalog.PrimaryKeyOf(columns, indexes))
}

func TestIntegrationDiscoverIndexes(t *testing.T) {
	reader := newIntegrationReader(t)

	indexes, err := reader.DiscoverIndexes(context.Background(), "public", "users")
	require.NoError(t, err)

	byName := make(map[string]catalog.IndexMetadata, len(indexes))
	for _, idx := range indexes {
		byName[idx.IndexName] = idx
	}

	pkey, ok := byName["users_pkey"]
	require.True(t, ok)
	assert.True(t, pkey.IsPrimary)
	assert.True(t, pkey.IsUnique)
	assert.Equal(t, []string{"id"}, pkey.Columns)

	email, ok := byName["users_email_key"]
	require.True(t, ok)
	assert.False(t, email.IsPrimary)
	assert.True(t, email.IsUnique)
	assert.Equal(t, []string{"email"}, email.Columns)
}

func TestIntegrationDiscoverForeignKeys(t *testing.T) {
	reader := newIntegrationReader(t)

	fks, err := reader.DiscoverForeignKeys(context.Background(), "public", "posts")
	require.NoError(t, err)
	require.Len(t, fks, 1)

	fk := fks[0]
	assert.Equal(t, []string{"author_id"}, fk.Columns)
	assert.Equal(t, "users", fk.TargetTable)
	assert.Equal(t, []string{"id"}, fk.TargetColumns)
	assert.Equal(t, "CASCADE", fk.OnDelete)
	assert.Equal(t, "NO ACTION", fk.OnUpdate)
}
