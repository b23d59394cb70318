package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/models"
)

// EnumExtractor turns columns that declare a closed value list into
// named enum definitions. Every raw value keeps its exact spelling;
// only the case names are derived.
type EnumExtractor interface {
	Extract(table *catalog.RawTable) []models.EnumDefinition
}

type enumExtractor struct {
	logger *zap.Logger
}

// NewEnumExtractor creates an enum extractor. If logger is nil, a
// no-op logger is used.
func NewEnumExtractor(logger *zap.Logger) EnumExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &enumExtractor{logger: logger}
}

func (e *enumExtractor) Extract(table *catalog.RawTable) []models.EnumDefinition {
	var enums []models.EnumDefinition
	for _, col := range table.Columns {
		if len(col.EnumValues) == 0 {
			continue
		}
		enums = append(enums, e.extractColumn(table.Name, col))
	}
	return enums
}

func (e *enumExtractor) extractColumn(tableName string, col catalog.ColumnMetadata) models.EnumDefinition {
	def := models.EnumDefinition{
		Table:     tableName,
		Column:    col.ColumnName,
		ClassName: EnumClassNameFor(tableName, col.ColumnName),
	}

	used := make(map[string]bool, len(col.EnumValues))
	for i, value := range col.EnumValues {
		name := deriveCaseName(value)

		// The first value to claim a name keeps it. Later values
		// append their 1-based ordinal, repeatedly if the suffixed
		// name is itself taken; the name grows each round, so this
		// terminates.
		ordinal := i + 1
		collided := false
		for used[name] {
			name = fmt.Sprintf("%s_%d", name, ordinal)
			collided = true
		}
		if collided {
			def.Disambiguated = append(def.Disambiguated, name)
			e.logger.Debug("Enum case name collision resolved",
				zap.String("table", tableName),
				zap.String("column", col.ColumnName),
				zap.String("value", value),
				zap.String("case_name", name))
		}

		used[name] = true
		def.Cases = append(def.Cases, models.EnumCase{Name: name, Value: value})
	}

	return def
}

// deriveCaseName converts a raw enum value into a stable identifier:
// uppercase, non-alphanumeric runs become a single underscore, edge
// underscores are trimmed, a leading digit gets an underscore prefix,
// and a value with nothing left becomes EMPTY_VALUE.
func deriveCaseName(value string) string {
	upper := strings.ToUpper(value)

	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	name := b.String()
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")

	if name == "" {
		return "EMPTY_VALUE"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
