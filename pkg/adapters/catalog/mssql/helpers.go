package mssql

import (
	"fmt"
	"strings"
)

// composeColumnType renders the full native descriptor from sys.columns
// metadata. max_length is in bytes; national character types store two
// bytes per character, and -1 means (max).
func composeColumnType(dataType string, maxLength, precision, scale int64) string {
	switch dataType {
	case "char", "varchar", "binary", "varbinary":
		if maxLength == -1 {
			return fmt.Sprintf("%s(max)", dataType)
		}
		return fmt.Sprintf("%s(%d)", dataType, maxLength)
	case "nchar", "nvarchar":
		if maxLength == -1 {
			return fmt.Sprintf("%s(max)", dataType)
		}
		return fmt.Sprintf("%s(%d)", dataType, maxLength/2)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", dataType, precision, scale)
	case "datetime2", "datetimeoffset", "time":
		return fmt.Sprintf("%s(%d)", dataType, scale)
	default:
		return dataType
	}
}

// charLength converts sys.columns.max_length to a character count for
// string types. Returns nil for non-string types and (max) columns.
func charLength(dataType string, maxLength int64) *int64 {
	if maxLength == -1 {
		return nil
	}
	var chars int64
	switch dataType {
	case "char", "varchar":
		chars = maxLength
	case "nchar", "nvarchar":
		chars = maxLength / 2
	default:
		return nil
	}
	return &chars
}

// normalizeReferentialAction converts sys.foreign_keys action
// descriptors (NO_ACTION, SET_NULL) to the space-separated form the
// other catalogs report (NO ACTION, SET NULL).
func normalizeReferentialAction(desc string) string {
	return strings.ReplaceAll(desc, "_", " ")
}
