package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/models"
)

// ResolveOptions carry the configured many-to-many policy.
type ResolveOptions struct {
	Strategy          models.JunctionStrategy
	MetadataThreshold int
	JoinTablePattern  string
}

// ResolveResult is the resolver output: classified associations in
// deterministic order plus the names of collapsed junction tables.
type ResolveResult struct {
	Relationships      []models.Relationship
	CollapsedJunctions []string
}

// RelationshipResolver classifies foreign keys into directional
// associations and collapses junction tables according to the
// configured strategy.
//
// Each cross-table foreign key yields exactly one record: a ManyToOne
// whose inverse side is the target table's OneToMany view, or a
// OneToOne when the key's source columns are the owner's entire
// primary key. Self-referential keys stay on the table as plain
// foreign keys and yield no association. A collapsed junction replaces
// its two keys with a single ManyToMany between the referenced tables.
//
// Output order is fixed at (foreign-key-owning table name, key
// declaration index); a ManyToMany sorts under its junction table at
// the junction's first declared key.
type RelationshipResolver interface {
	Resolve(raw *catalog.RawSchema, opts ResolveOptions) (*ResolveResult, error)
}

type relationshipResolver struct {
	logger *zap.Logger
}

// NewRelationshipResolver creates a relationship resolver. If logger
// is nil, a no-op logger is used.
func NewRelationshipResolver(logger *zap.Logger) RelationshipResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &relationshipResolver{logger: logger}
}

type junctionInfo struct {
	first         catalog.ForeignKeyMetadata
	second        catalog.ForeignKeyMetadata
	metadataCount int
}

func (r *relationshipResolver) Resolve(raw *catalog.RawSchema, opts ResolveOptions) (*ResolveResult, error) {
	// A foreign key must never point at a table the model does not
	// know about, whether filtered out or genuinely absent.
	for _, table := range raw.Tables {
		for _, fk := range table.ForeignKeys {
			if raw.Table(fk.TargetTable) == nil {
				return nil, apperrors.New(apperrors.KindMetadataExtraction,
					"foreign key %s on table %s references unknown table %s",
					fk.ConstraintName, table.Name, fk.TargetTable)
			}
		}
	}

	collapsed := make(map[string]*junctionInfo)
	var collapsedNames []string
	for _, table := range raw.Tables {
		info, ok := junctionCandidate(table)
		if !ok {
			continue
		}
		if !shouldCollapse(opts.Strategy, info.metadataCount, opts.MetadataThreshold) {
			r.logger.Debug("Junction candidate kept as entity",
				zap.String("table", table.Name),
				zap.Int("metadata_columns", info.metadataCount),
				zap.String("strategy", string(opts.Strategy)))
			continue
		}
		collapsed[table.Name] = info
		collapsedNames = append(collapsedNames, table.Name)
		r.logger.Debug("Junction table collapsed",
			zap.String("table", table.Name),
			zap.String("owning", info.first.TargetTable),
			zap.String("inverse", info.second.TargetTable))
	}
	sort.Strings(collapsedNames)

	names := raw.TableNames()
	sort.Strings(names)

	var relationships []models.Relationship
	for _, name := range names {
		table := raw.Table(name)

		if info, ok := collapsed[name]; ok {
			relationships = append(relationships, manyToMany(table, info, opts.JoinTablePattern))
			continue
		}

		for _, fk := range table.ForeignKeys {
			if fk.TargetTable == table.Name {
				continue
			}

			kind := models.ManyToOne
			if sameColumnSet(fk.Columns, table.PrimaryKey) {
				kind = models.OneToOne
			}

			relationships = append(relationships, models.Relationship{
				Kind:       kind,
				Owning:     models.RelationshipSide{Table: table.Name, Columns: fk.Columns},
				Inverse:    models.RelationshipSide{Table: fk.TargetTable, Columns: fk.TargetColumns},
				ForeignKey: fk.ConstraintName,
			})
		}
	}

	return &ResolveResult{
		Relationships:      relationships,
		CollapsedJunctions: collapsedNames,
	}, nil
}

// junctionCandidate reports whether a table matches the structural
// junction shape: exactly two foreign keys referencing two distinct
// other tables, a non-empty primary key, and the keys' combined source
// columns covering that primary key as a set. Column order between the
// key and the primary key does not matter.
func junctionCandidate(table *catalog.RawTable) (*junctionInfo, bool) {
	if len(table.ForeignKeys) != 2 {
		return nil, false
	}
	first, second := table.ForeignKeys[0], table.ForeignKeys[1]

	if first.TargetTable == table.Name || second.TargetTable == table.Name {
		return nil, false
	}
	if first.TargetTable == second.TargetTable {
		return nil, false
	}
	if len(table.PrimaryKey) == 0 {
		return nil, false
	}

	fkColumns := make(map[string]bool, len(first.Columns)+len(second.Columns))
	for _, c := range first.Columns {
		fkColumns[c] = true
	}
	for _, c := range second.Columns {
		fkColumns[c] = true
	}
	for _, c := range table.PrimaryKey {
		if !fkColumns[c] {
			return nil, false
		}
	}

	metadata := 0
	for _, col := range table.Columns {
		if !fkColumns[col.ColumnName] {
			metadata++
		}
	}

	return &junctionInfo{first: first, second: second, metadataCount: metadata}, true
}

func shouldCollapse(strategy models.JunctionStrategy, metadataCount, threshold int) bool {
	switch strategy {
	case models.JunctionSkipSimple:
		return metadataCount == 0
	case models.JunctionAlwaysEntity:
		return false
	case models.JunctionAuto:
		return metadataCount <= threshold
	default:
		return false
	}
}

// manyToMany builds the single association emitted for a collapsed
// junction. The target of the junction's first declared key owns the
// association.
func manyToMany(table *catalog.RawTable, info *junctionInfo, pattern string) models.Relationship {
	return models.Relationship{
		Kind:    models.ManyToMany,
		Owning:  models.RelationshipSide{Table: info.first.TargetTable, Columns: info.first.TargetColumns},
		Inverse: models.RelationshipSide{Table: info.second.TargetTable, Columns: info.second.TargetColumns},
		JoinTable: &models.JoinTable{
			Name: table.Name,
			OwningPair: models.JoinColumns{
				Constraint:  info.first.ConstraintName,
				JoinColumns: info.first.Columns,
				RefColumns:  info.first.TargetColumns,
			},
			InversePair: models.JoinColumns{
				Constraint:  info.second.ConstraintName,
				JoinColumns: info.second.Columns,
				RefColumns:  info.second.TargetColumns,
			},
			MatchesPattern: matchesJoinPattern(pattern, table.Name, info.first.TargetTable, info.second.TargetTable),
		},
	}
}

// matchesJoinPattern checks the junction name against the configured
// naming pattern in both table orders.
func matchesJoinPattern(pattern, junction, first, second string) bool {
	switch strings.Count(pattern, "%s") {
	case 0:
		return false
	case 1:
		return junction == fmt.Sprintf(pattern, first) || junction == fmt.Sprintf(pattern, second)
	default:
		return junction == fmt.Sprintf(pattern, first, second) || junction == fmt.Sprintf(pattern, second, first)
	}
}

// sameColumnSet compares two column lists as sets.
func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}
