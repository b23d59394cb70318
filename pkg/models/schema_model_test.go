package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestEntitiesExcludeCollapsedJunctions(t *testing.T) {
	model := NewSchemaModel("postgres",
		[]*Table{
			{Name: "post_tags", EntityName: "PostTag"},
			{Name: "posts", EntityName: "Post"},
			{Name: "users", EntityName: "User"},
		},
		nil, nil, []string{"post_tags"})

	if !model.IsCollapsed("post_tags") {
		t.Error("post_tags should be collapsed")
	}
	if model.IsCollapsed("posts") {
		t.Error("posts should not be collapsed")
	}

	var names []string
	for _, tbl := range model.Entities() {
		names = append(names, tbl.Name)
	}
	if diff := cmp.Diff([]string{"posts", "users"}, names); diff != "" {
		t.Errorf("Entities() mismatch (-want +got):\n%s", diff)
	}

	if model.Table("post_tags") == nil {
		t.Error("collapsed tables must stay reachable by name")
	}
	if model.Table("ghosts") != nil {
		t.Error("unknown table lookup should return nil")
	}
}

func TestParseJunctionStrategy(t *testing.T) {
	for _, valid := range []string{"skip_simple", "always_entity", "auto"} {
		strategy, err := ParseJunctionStrategy(valid)
		if err != nil {
			t.Errorf("ParseJunctionStrategy(%q) returned error: %v", valid, err)
		}
		if string(strategy) != valid {
			t.Errorf("ParseJunctionStrategy(%q) = %q", valid, strategy)
		}
	}

	if _, err := ParseJunctionStrategy("sometimes"); err == nil {
		t.Error("ParseJunctionStrategy(\"sometimes\") should fail")
	}
}

func TestEnumDefinitionLookups(t *testing.T) {
	def := EnumDefinition{
		Table:     "movies",
		Column:    "rating",
		ClassName: "MovieRatingEnum",
		Cases: []EnumCase{
			{Name: "G", Value: "G"},
			{Name: "PG_13", Value: "PG-13"},
		},
	}

	if diff := cmp.Diff([]string{"G", "PG-13"}, def.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}

	name, ok := def.CaseFor("PG-13")
	if !ok || name != "PG_13" {
		t.Errorf("CaseFor(\"PG-13\") = %q, %v", name, ok)
	}
	if _, ok := def.CaseFor("R"); ok {
		t.Error("CaseFor(\"R\") should not resolve")
	}
}

func TestRelationshipYAML(t *testing.T) {
	rel := Relationship{
		Kind:       ManyToOne,
		Owning:     RelationshipSide{Table: "posts", Columns: []string{"author_id"}},
		Inverse:    RelationshipSide{Table: "users", Columns: []string{"id"}},
		ForeignKey: "posts_author_id_fkey",
	}

	data, err := yaml.Marshal(rel)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `kind: many_to_one
owning:
    table: posts
    columns:
        - author_id
inverse:
    table: users
    columns:
        - id
foreign_key: posts_author_id_fkey
`
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("relationship yaml mismatch (-want +got):\n%s", diff)
	}
}
