package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/models"
)

func fkMeta(name string, cols []string, target string, targetCols []string) catalog.ForeignKeyMetadata {
	return catalog.ForeignKeyMetadata{
		ConstraintName: name,
		Columns:        cols,
		TargetTable:    target,
		TargetColumns:  targetCols,
		OnDelete:       "NO ACTION",
		OnUpdate:       "NO ACTION",
	}
}

func rawTable(name string, pk []string, columnNames []string, fks ...catalog.ForeignKeyMetadata) *catalog.RawTable {
	t := &catalog.RawTable{SchemaName: "public", Name: name, PrimaryKey: pk, ForeignKeys: fks}
	for i, cn := range columnNames {
		t.Columns = append(t.Columns, catalog.ColumnMetadata{ColumnName: cn, OrdinalPosition: i + 1})
	}
	return t
}

func rawSchemaOf(tables ...*catalog.RawTable) *catalog.RawSchema {
	s := catalog.NewRawSchema("postgres")
	for _, t := range tables {
		s.AddTable(t)
	}
	return s
}

func resolveOpts(strategy models.JunctionStrategy, threshold int) ResolveOptions {
	return ResolveOptions{Strategy: strategy, MetadataThreshold: threshold, JoinTablePattern: "%s_%s"}
}

// summarize flattens relationships into one line each so ordering
// assertions stay readable.
func summarize(rels []models.Relationship) []string {
	out := make([]string, len(rels))
	for i, rel := range rels {
		switch rel.Kind {
		case models.ManyToMany:
			out[i] = fmt.Sprintf("%s: %s <-> %s via %s", rel.Kind, rel.Owning.Table, rel.Inverse.Table, rel.JoinTable.Name)
		default:
			out[i] = fmt.Sprintf("%s: %s(%s) -> %s(%s)", rel.Kind,
				rel.Owning.Table, strings.Join(rel.Owning.Columns, ","),
				rel.Inverse.Table, strings.Join(rel.Inverse.Columns, ","))
		}
	}
	return out
}

func TestResolvePureJunctionCollapses(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("posts", []string{"id"}, []string{"id", "title"}),
		rawTable("tags", []string{"id"}, []string{"id", "name"}),
		rawTable("post_tags", []string{"post_id", "tag_id"}, []string{"post_id", "tag_id"},
			fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
			fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
		),
	)

	for _, strategy := range []models.JunctionStrategy{models.JunctionSkipSimple, models.JunctionAuto} {
		t.Run(string(strategy), func(t *testing.T) {
			result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(strategy, 1))
			require.NoError(t, err)

			require.Len(t, result.Relationships, 1)
			rel := result.Relationships[0]
			assert.Equal(t, models.ManyToMany, rel.Kind)
			assert.Equal(t, models.RelationshipSide{Table: "posts", Columns: []string{"id"}}, rel.Owning)
			assert.Equal(t, models.RelationshipSide{Table: "tags", Columns: []string{"id"}}, rel.Inverse)
			assert.Empty(t, rel.ForeignKey)

			require.NotNil(t, rel.JoinTable)
			assert.Equal(t, "post_tags", rel.JoinTable.Name)
			assert.Equal(t, models.JoinColumns{
				Constraint:  "post_tags_post_id_fkey",
				JoinColumns: []string{"post_id"},
				RefColumns:  []string{"id"},
			}, rel.JoinTable.OwningPair)
			assert.Equal(t, models.JoinColumns{
				Constraint:  "post_tags_tag_id_fkey",
				JoinColumns: []string{"tag_id"},
				RefColumns:  []string{"id"},
			}, rel.JoinTable.InversePair)
			assert.False(t, rel.JoinTable.MatchesPattern, "posts_tags does not match post_tags")

			assert.Equal(t, []string{"post_tags"}, result.CollapsedJunctions)
		})
	}
}

func TestResolveAlwaysEntityKeepsJunction(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("posts", []string{"id"}, []string{"id"}),
		rawTable("tags", []string{"id"}, []string{"id"}),
		rawTable("post_tags", []string{"post_id", "tag_id"}, []string{"post_id", "tag_id"},
			fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
			fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
		),
	)

	result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAlwaysEntity, 1))
	require.NoError(t, err)

	assert.Empty(t, result.CollapsedJunctions)
	require.Equal(t, []string{
		"many_to_one: post_tags(post_id) -> posts(id)",
		"many_to_one: post_tags(tag_id) -> tags(id)",
	}, summarize(result.Relationships))
}

func TestResolveMetadataThreshold(t *testing.T) {
	newSchema := func() *catalog.RawSchema {
		return rawSchemaOf(
			rawTable("students", []string{"id"}, []string{"id"}),
			rawTable("courses", []string{"id"}, []string{"id"}),
			rawTable("enrollments", []string{"student_id", "course_id"},
				[]string{"student_id", "course_id", "enrolled_at", "grade"},
				fkMeta("enrollments_student_id_fkey", []string{"student_id"}, "students", []string{"id"}),
				fkMeta("enrollments_course_id_fkey", []string{"course_id"}, "courses", []string{"id"}),
			),
		)
	}

	t.Run("auto below threshold keeps entity", func(t *testing.T) {
		result, err := NewRelationshipResolver(nil).Resolve(newSchema(), resolveOpts(models.JunctionAuto, 1))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		assert.Len(t, result.Relationships, 2)
	})

	t.Run("auto at threshold collapses", func(t *testing.T) {
		result, err := NewRelationshipResolver(nil).Resolve(newSchema(), resolveOpts(models.JunctionAuto, 2))
		require.NoError(t, err)
		assert.Equal(t, []string{"enrollments"}, result.CollapsedJunctions)
		require.Len(t, result.Relationships, 1)
		assert.Equal(t, models.ManyToMany, result.Relationships[0].Kind)
	})

	t.Run("skip_simple requires zero metadata", func(t *testing.T) {
		result, err := NewRelationshipResolver(nil).Resolve(newSchema(), resolveOpts(models.JunctionSkipSimple, 5))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		assert.Len(t, result.Relationships, 2)
	})
}

func TestResolveFullPrimaryKeyForeignKeyIsOneToOne(t *testing.T) {
	t.Run("single column", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("users", []string{"id"}, []string{"id"}),
			rawTable("user_profiles", []string{"user_id"}, []string{"user_id", "bio"},
				fkMeta("user_profiles_user_id_fkey", []string{"user_id"}, "users", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAuto, 1))
		require.NoError(t, err)
		require.Equal(t, []string{
			"one_to_one: user_profiles(user_id) -> users(id)",
		}, summarize(result.Relationships))
		assert.Equal(t, "user_profiles_user_id_fkey", result.Relationships[0].ForeignKey)
	})

	t.Run("composite key order insensitive", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("orders", []string{"region", "id"}, []string{"region", "id"}),
			rawTable("order_invoices", []string{"order_region", "order_id"},
				[]string{"order_id", "order_region", "total"},
				fkMeta("order_invoices_order_fkey", []string{"order_id", "order_region"}, "orders", []string{"id", "region"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAuto, 1))
		require.NoError(t, err)
		require.Len(t, result.Relationships, 1)
		assert.Equal(t, models.OneToOne, result.Relationships[0].Kind)
	})
}

func TestResolveManyToOneCarriesBothSides(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("users", []string{"id"}, []string{"id"}),
		rawTable("posts", []string{"id"}, []string{"id", "author_id"},
			fkMeta("posts_author_id_fkey", []string{"author_id"}, "users", []string{"id"}),
		),
	)

	result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAuto, 1))
	require.NoError(t, err)
	require.Len(t, result.Relationships, 1)

	rel := result.Relationships[0]
	assert.Equal(t, models.ManyToOne, rel.Kind)
	assert.Equal(t, models.RelationshipSide{Table: "posts", Columns: []string{"author_id"}}, rel.Owning)
	assert.Equal(t, models.RelationshipSide{Table: "users", Columns: []string{"id"}}, rel.Inverse)
	assert.Equal(t, "posts_author_id_fkey", rel.ForeignKey)
	assert.Nil(t, rel.JoinTable)
}

func TestResolveDanglingTargetFails(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("posts", []string{"id"}, []string{"id", "author_id"},
			fkMeta("posts_author_id_fkey", []string{"author_id"}, "users", []string{"id"}),
		),
	)

	_, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAuto, 1))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMetadataExtraction, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "posts_author_id_fkey")
	assert.Contains(t, err.Error(), "users")
}

func TestResolveSelfReferenceEmitsNothing(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("employees", []string{"id"}, []string{"id", "manager_id"},
			fkMeta("employees_manager_id_fkey", []string{"manager_id"}, "employees", []string{"id"}),
		),
	)

	result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionAuto, 1))
	require.NoError(t, err)
	assert.Empty(t, result.Relationships)
	assert.Empty(t, result.CollapsedJunctions)
}

func TestResolveJunctionDisqualifiers(t *testing.T) {
	t.Run("both keys target the same table", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("users", []string{"id"}, []string{"id"}),
			rawTable("friendships", []string{"user_a", "user_b"}, []string{"user_a", "user_b"},
				fkMeta("friendships_user_a_fkey", []string{"user_a"}, "users", []string{"id"}),
				fkMeta("friendships_user_b_fkey", []string{"user_b"}, "users", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		assert.Len(t, result.Relationships, 2)
	})

	t.Run("one key targets the candidate itself", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("nodes", []string{"id"}, []string{"id"}),
			rawTable("edges", []string{"parent_id", "child_id"}, []string{"parent_id", "child_id"},
				fkMeta("edges_parent_id_fkey", []string{"parent_id"}, "nodes", []string{"id"}),
				fkMeta("edges_child_id_fkey", []string{"child_id"}, "edges", []string{"parent_id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		// The self-referential key is dropped, the other stays.
		assert.Equal(t, []string{
			"many_to_one: edges(parent_id) -> nodes(id)",
		}, summarize(result.Relationships))
	})

	t.Run("primary key not covered by the keys", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("posts", []string{"id"}, []string{"id"}),
			rawTable("tags", []string{"id"}, []string{"id"}),
			rawTable("post_tags", []string{"id"}, []string{"id", "post_id", "tag_id"},
				fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
				fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		assert.Len(t, result.Relationships, 2)
	})

	t.Run("no primary key at all", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("posts", []string{"id"}, []string{"id"}),
			rawTable("tags", []string{"id"}, []string{"id"}),
			rawTable("post_tags", nil, []string{"post_id", "tag_id"},
				fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
				fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Empty(t, result.CollapsedJunctions)
		assert.Len(t, result.Relationships, 2)
	})
}

func TestResolveJunctionCoverageIsSetBased(t *testing.T) {
	t.Run("primary key declared in reverse order", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("posts", []string{"id"}, []string{"id"}),
			rawTable("tags", []string{"id"}, []string{"id"}),
			rawTable("post_tags", []string{"tag_id", "post_id"}, []string{"post_id", "tag_id"},
				fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
				fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Equal(t, []string{"post_tags"}, result.CollapsedJunctions)
	})

	t.Run("keys may cover more than the primary key", func(t *testing.T) {
		schema := rawSchemaOf(
			rawTable("posts", []string{"id"}, []string{"id"}),
			rawTable("tags", []string{"id"}, []string{"id"}),
			rawTable("post_tags", []string{"post_id"}, []string{"post_id", "tag_id"},
				fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
				fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
			),
		)

		result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
		require.NoError(t, err)
		assert.Equal(t, []string{"post_tags"}, result.CollapsedJunctions)
	})
}

func TestResolveDeterministicOrder(t *testing.T) {
	// Discovery order is deliberately shuffled; output must sort by
	// owning table name with keys in declaration order, the collapsed
	// junction standing in at its own position.
	schema := rawSchemaOf(
		rawTable("users", []string{"id"}, []string{"id"}),
		rawTable("tags", []string{"id"}, []string{"id"}),
		rawTable("comments", []string{"id"}, []string{"id", "post_id", "author_id"},
			fkMeta("comments_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
			fkMeta("comments_author_id_fkey", []string{"author_id"}, "users", []string{"id"}),
		),
		rawTable("post_tags", []string{"post_id", "tag_id"}, []string{"post_id", "tag_id"},
			fkMeta("post_tags_post_id_fkey", []string{"post_id"}, "posts", []string{"id"}),
			fkMeta("post_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
		),
		rawTable("posts", []string{"id"}, []string{"id", "author_id"},
			fkMeta("posts_author_id_fkey", []string{"author_id"}, "users", []string{"id"}),
		),
	)

	result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"many_to_one: comments(post_id) -> posts(id)",
		"many_to_one: comments(author_id) -> users(id)",
		"many_to_many: posts <-> tags via post_tags",
		"many_to_one: posts(author_id) -> users(id)",
	}, summarize(result.Relationships))
}

func TestMatchesJoinPattern(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		junction string
		want     bool
	}{
		{"default pattern forward", "%s_%s", "post_tag", true},
		{"default pattern reversed", "%s_%s", "tag_post", true},
		{"plural junction misses singular tables", "%s_%s", "post_tags", false},
		{"single placeholder", "%s_links", "tag_links", true},
		{"single placeholder miss", "%s_links", "membership_links", false},
		{"no placeholder never matches", "junction", "junction", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesJoinPattern(tt.pattern, tt.junction, "post", "tag"))
		})
	}
}

func TestResolveJoinTablePatternFlagsMatch(t *testing.T) {
	schema := rawSchemaOf(
		rawTable("post", []string{"id"}, []string{"id"}),
		rawTable("tag", []string{"id"}, []string{"id"}),
		rawTable("tag_post", []string{"post_id", "tag_id"}, []string{"post_id", "tag_id"},
			fkMeta("tag_post_post_id_fkey", []string{"post_id"}, "post", []string{"id"}),
			fkMeta("tag_post_tag_id_fkey", []string{"tag_id"}, "tag", []string{"id"}),
		),
	)

	result, err := NewRelationshipResolver(nil).Resolve(schema, resolveOpts(models.JunctionSkipSimple, 0))
	require.NoError(t, err)
	require.Len(t, result.Relationships, 1)
	require.NotNil(t, result.Relationships[0].JoinTable)
	assert.True(t, result.Relationships[0].JoinTable.MatchesPattern)
}
