package models

// TypeKind is the dialect-independent classification of a column's storage.
type TypeKind string

const (
	TypeInteger  TypeKind = "integer"
	TypeDecimal  TypeKind = "decimal"
	TypeFloat    TypeKind = "float"
	TypeBoolean  TypeKind = "boolean"
	TypeString   TypeKind = "string"
	TypeText     TypeKind = "text"
	TypeDate     TypeKind = "date"
	TypeDateTime TypeKind = "datetime"
	TypeBinary   TypeKind = "binary"
	TypeEnum     TypeKind = "enum"
	TypeUnknown  TypeKind = "unknown"
)

// NormalizedType is the engine's view of a column type after dialect
// quirks have been resolved. Zero Length/Precision/Scale means the
// dialect reported none.
type NormalizedType struct {
	Kind      TypeKind `json:"kind" yaml:"kind"`
	Length    int64    `json:"length,omitempty" yaml:"length,omitempty"`
	Precision int64    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     int64    `json:"scale,omitempty" yaml:"scale,omitempty"`
	Unsigned  bool     `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`
}

// Column is a normalized table column. NativeType preserves the full
// dialect descriptor (e.g. "varchar(255)", "int unsigned") so nothing is
// lost even when Kind is unknown. Notes record any information the
// normalization could not carry over; they are never silently dropped.
type Column struct {
	Name            string         `json:"name" yaml:"name"`
	NativeType      string         `json:"native_type" yaml:"native_type"`
	Type            NormalizedType `json:"type" yaml:"type"`
	Nullable        bool           `json:"nullable" yaml:"nullable"`
	Default         *string        `json:"default,omitempty" yaml:"default,omitempty"`
	IsPrimaryKey    bool           `json:"is_primary_key,omitempty" yaml:"is_primary_key,omitempty"`
	IsAutoIncrement bool           `json:"is_auto_increment,omitempty" yaml:"is_auto_increment,omitempty"`
	Comment         string         `json:"comment,omitempty" yaml:"comment,omitempty"`
	Notes           []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Index is a table index as reported by the catalog.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Primary bool     `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// ForeignKey references its target table by name, never by pointer.
// Lookups happen against the model's table mapping at resolution time; a
// dangling target is a fatal resolution failure, not a nil reference.
type ForeignKey struct {
	Name          string   `json:"name" yaml:"name"`
	Columns       []string `json:"columns" yaml:"columns"`
	TargetTable   string   `json:"target_table" yaml:"target_table"`
	TargetColumns []string `json:"target_columns" yaml:"target_columns"`
	OnDelete      string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate      string   `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

// Table is a normalized table. Columns preserve catalog declaration
// order; Relationships hold only the relationships this table owns, in
// resolver order. RowEstimate is the catalog's cheap estimate, -1 when
// the dialect offers none.
type Table struct {
	Name          string         `json:"name" yaml:"name"`
	EntityName    string         `json:"entity_name" yaml:"entity_name"`
	Comment       string         `json:"comment,omitempty" yaml:"comment,omitempty"`
	RowEstimate   int64          `json:"row_estimate" yaml:"row_estimate"`
	Columns       []Column       `json:"columns" yaml:"columns"`
	PrimaryKey    []string       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Indexes       []Index        `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys   []ForeignKey   `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// SchemaModel is the assembled, collision-free logical schema. It is
// immutable once assembled: the rendering layer reads it and performs no
// further relational inference. Tables are sorted by name; Relationships
// and Enums keep resolver/extractor order.
type SchemaModel struct {
	Dialect            string           `json:"dialect" yaml:"dialect"`
	Tables             []*Table         `json:"tables" yaml:"tables"`
	Relationships      []Relationship   `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Enums              []EnumDefinition `json:"enums,omitempty" yaml:"enums,omitempty"`
	CollapsedJunctions []string         `json:"collapsed_junctions,omitempty" yaml:"collapsed_junctions,omitempty"`

	tableIndex map[string]*Table
	collapsed  map[string]bool
}

// NewSchemaModel indexes an assembled model. Tables must already be in
// their final order.
func NewSchemaModel(dialect string, tables []*Table, relationships []Relationship, enums []EnumDefinition, collapsedJunctions []string) *SchemaModel {
	m := &SchemaModel{
		Dialect:            dialect,
		Tables:             tables,
		Relationships:      relationships,
		Enums:              enums,
		CollapsedJunctions: collapsedJunctions,
		tableIndex:         make(map[string]*Table, len(tables)),
		collapsed:          make(map[string]bool, len(collapsedJunctions)),
	}
	for _, t := range tables {
		m.tableIndex[t.Name] = t
	}
	for _, name := range collapsedJunctions {
		m.collapsed[name] = true
	}
	return m
}

// Table returns the named table, or nil. The table set is catalog truth:
// collapsed junction tables are still present here.
func (m *SchemaModel) Table(name string) *Table {
	return m.tableIndex[name]
}

// Entities returns the tables that are standalone entity candidates,
// excluding collapsed junction tables. Order follows m.Tables.
func (m *SchemaModel) Entities() []*Table {
	entities := make([]*Table, 0, len(m.Tables))
	for _, t := range m.Tables {
		if !m.collapsed[t.Name] {
			entities = append(entities, t)
		}
	}
	return entities
}

// IsCollapsed reports whether the named table was collapsed into a
// ManyToMany relationship.
func (m *SchemaModel) IsCollapsed(name string) bool {
	return m.collapsed[name]
}
