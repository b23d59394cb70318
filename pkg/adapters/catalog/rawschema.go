package catalog

// RawTable is one table's catalog metadata, complete enough for
// relationship resolution: columns in declaration order, the ordered
// primary key, indexes, and outgoing foreign keys.
type RawTable struct {
	SchemaName  string
	Name        string
	RowEstimate int64
	Comment     string
	Columns     []ColumnMetadata
	PrimaryKey  []string
	Indexes     []IndexMetadata
	ForeignKeys []ForeignKeyMetadata
}

// Column returns the named column's metadata, or nil.
func (t *RawTable) Column(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].ColumnName == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// RawSchema is the catalog snapshot taken for one run. Built fresh per
// invocation from the live connection, never cached across runs. Tables
// keep discovery order; lookup is by table name.
type RawSchema struct {
	Dialect string
	Tables  []*RawTable

	byName map[string]*RawTable
}

// NewRawSchema creates an empty snapshot for a dialect.
func NewRawSchema(dialect string) *RawSchema {
	return &RawSchema{
		Dialect: dialect,
		byName:  make(map[string]*RawTable),
	}
}

// AddTable appends a table to the snapshot and indexes it by name.
func (s *RawSchema) AddTable(t *RawTable) {
	s.Tables = append(s.Tables, t)
	s.byName[t.Name] = t
}

// Table returns the named table, or nil when it was not introspected.
func (s *RawSchema) Table(name string) *RawTable {
	return s.byName[name]
}

// TableNames returns the table names in discovery order.
func (s *RawSchema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}
