package models

import "fmt"

// RelationshipKind is the directional classification of an association.
type RelationshipKind string

const (
	OneToOne   RelationshipKind = "one_to_one"
	OneToMany  RelationshipKind = "one_to_many"
	ManyToOne  RelationshipKind = "many_to_one"
	ManyToMany RelationshipKind = "many_to_many"
)

// JunctionStrategy controls how detected junction tables are treated.
type JunctionStrategy string

const (
	// JunctionSkipSimple collapses every detected junction into a
	// ManyToMany association.
	JunctionSkipSimple JunctionStrategy = "skip_simple"

	// JunctionAlwaysEntity keeps every junction as a regular entity
	// with two ManyToOne associations.
	JunctionAlwaysEntity JunctionStrategy = "always_entity"

	// JunctionAuto collapses junctions whose metadata column count is
	// at or below the configured threshold and keeps the rest.
	JunctionAuto JunctionStrategy = "auto"
)

// ParseJunctionStrategy validates and converts a configured strategy
// name.
func ParseJunctionStrategy(s string) (JunctionStrategy, error) {
	switch JunctionStrategy(s) {
	case JunctionSkipSimple, JunctionAlwaysEntity, JunctionAuto:
		return JunctionStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown junction strategy %q (must be skip_simple, always_entity, or auto)", s)
	}
}

// RelationshipSide names one end of an association: the table and the
// columns on that table which participate.
type RelationshipSide struct {
	Table   string   `json:"table" yaml:"table"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// JoinColumns is one foreign-key column pair of a collapsed junction:
// the columns on the join table and the columns they reference.
type JoinColumns struct {
	Constraint  string   `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	JoinColumns []string `json:"join_columns" yaml:"join_columns"`
	RefColumns  []string `json:"ref_columns" yaml:"ref_columns"`
}

// JoinTable describes the collapsed junction behind a ManyToMany.
// MatchesPattern records whether the join-table name follows the
// configured naming pattern in either table order; generators use that
// to decide whether an explicit join-table name must be emitted.
type JoinTable struct {
	Name           string      `json:"name" yaml:"name"`
	OwningPair     JoinColumns `json:"owning_pair" yaml:"owning_pair"`
	InversePair    JoinColumns `json:"inverse_pair" yaml:"inverse_pair"`
	MatchesPattern bool        `json:"matches_pattern" yaml:"matches_pattern"`
}

// Relationship is a resolved association. One record per classified
// foreign key: a ManyToOne record's inverse side is the target table's
// OneToMany view of the same association. Recomputed each run, never
// persisted independently of the model.
type Relationship struct {
	Kind       RelationshipKind `json:"kind" yaml:"kind"`
	Owning     RelationshipSide `json:"owning" yaml:"owning"`
	Inverse    RelationshipSide `json:"inverse" yaml:"inverse"`
	ForeignKey string           `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	JoinTable  *JoinTable       `json:"join_table,omitempty" yaml:"join_table,omitempty"`
}
