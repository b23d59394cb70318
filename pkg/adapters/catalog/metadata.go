package catalog

import "sort"

// TableMetadata is a discovered table. RowEstimate is the catalog's
// cheap estimate (never a table scan); -1 when the dialect has none.
type TableMetadata struct {
	SchemaName  string
	TableName   string
	RowEstimate int64
	Comment     string
}

// ColumnMetadata is a discovered column. DataType is the catalog base
// type ("varchar"); ColumnType is the full dialect descriptor with
// modifiers ("varchar(255)", "int unsigned", "enum('a','b')") when the
// dialect provides one, otherwise it equals DataType. EnumValues is
// populated only for columns whose native type carries an inline literal
// value set, in declaration order.
type ColumnMetadata struct {
	ColumnName      string
	DataType        string
	ColumnType      string
	IsNullable      bool
	IsPrimaryKey    bool
	PrimaryKeySeq   int // 1-based position within the PK; 0 when unknown
	IsAutoIncrement bool
	OrdinalPosition int
	DefaultValue    *string
	Length          *int64
	Precision       *int64
	Scale           *int64
	Unsigned        bool
	EnumValues      []string
	Comment         string
}

// IndexMetadata is a discovered index with its columns in key order.
type IndexMetadata struct {
	IndexName string
	Columns   []string
	IsUnique  bool
	IsPrimary bool
}

// ForeignKeyMetadata is a discovered foreign key constraint. Columns and
// TargetColumns are position-aligned in constraint declaration order.
// OnDelete/OnUpdate carry the catalog's referential action words
// ("NO ACTION", "CASCADE", "SET NULL", ...).
type ForeignKeyMetadata struct {
	ConstraintName string
	Columns        []string
	TargetTable    string
	TargetColumns  []string
	OnDelete       string
	OnUpdate       string
}

// PrimaryKeyOf derives a table's ordered primary key column list. The
// primary index is authoritative when present; otherwise flagged columns
// are used, ordered by their PK sequence when the dialect reported one
// and by ordinal position when it did not.
func PrimaryKeyOf(columns []ColumnMetadata, indexes []IndexMetadata) []string {
	for _, idx := range indexes {
		if idx.IsPrimary && len(idx.Columns) > 0 {
			return append([]string(nil), idx.Columns...)
		}
	}

	var members []ColumnMetadata
	for _, c := range columns {
		if c.IsPrimaryKey {
			members = append(members, c)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.PrimaryKeySeq > 0 && b.PrimaryKeySeq > 0 {
			return a.PrimaryKeySeq < b.PrimaryKeySeq
		}
		return a.OrdinalPosition < b.OrdinalPosition
	})

	names := make([]string, len(members))
	for i, c := range members {
		names[i] = c.ColumnName
	}
	return names
}
