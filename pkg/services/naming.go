package services

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// EntityNameFor derives the entity class name for a table: the table
// name singularized, then converted to PascalCase. "user_profiles"
// becomes "UserProfile".
func EntityNameFor(tableName string) string {
	return pascalCase(inflection.Singular(tableName))
}

// EnumClassNameFor derives the class name for a column-level enum:
// the singular PascalCase table name, the PascalCase column name, and
// the literal suffix "Enum". users.status becomes "UserStatusEnum".
// The column name is never singularized.
func EnumClassNameFor(tableName, columnName string) string {
	return EntityNameFor(tableName) + pascalCase(columnName) + "Enum"
}

// pascalCase joins the alphanumeric words of an identifier with each
// word's first letter upcased. Interior capitals survive, so camelCase
// input keeps its humps.
func pascalCase(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
