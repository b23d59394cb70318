package models

// EnumCase pairs a generated case name with the literal value it backs.
// The value is preserved verbatim and never re-normalized.
type EnumCase struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// EnumDefinition is a backed enum extracted from one column's literal
// value set. Cases preserve the catalog declaration order; case names
// are unique within the definition, class names unique within the model.
// Disambiguated lists the case names that needed an ordinal suffix to
// stay unique, so collisions stay visible to the caller.
type EnumDefinition struct {
	Table         string     `json:"table" yaml:"table"`
	Column        string     `json:"column" yaml:"column"`
	ClassName     string     `json:"class_name" yaml:"class_name"`
	Cases         []EnumCase `json:"cases" yaml:"cases"`
	Disambiguated []string   `json:"disambiguated,omitempty" yaml:"disambiguated,omitempty"`
}

// Values returns the literal values in declaration order.
func (e *EnumDefinition) Values() []string {
	values := make([]string, len(e.Cases))
	for i, c := range e.Cases {
		values[i] = c.Value
	}
	return values
}

// CaseFor returns the case name generated for a literal value.
func (e *EnumDefinition) CaseFor(value string) (string, bool) {
	for _, c := range e.Cases {
		if c.Value == value {
			return c.Name, true
		}
	}
	return "", false
}
