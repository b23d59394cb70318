package services

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/models"
)

// TypeMapper normalizes dialect-specific column descriptors into the
// shared type vocabulary. Unmapped types come back as TypeUnknown with
// the native descriptor preserved on the column; every lossy mapping
// attaches a human-readable note instead of failing or silently
// dropping information.
type TypeMapper interface {
	Normalize(dialect string, column catalog.ColumnMetadata) (models.NormalizedType, []string)
}

type typeMapper struct {
	logger *zap.Logger
}

// NewTypeMapper creates a type mapper. If logger is nil, a no-op
// logger is used.
func NewTypeMapper(logger *zap.Logger) TypeMapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &typeMapper{logger: logger}
}

func (m *typeMapper) Normalize(dialect string, column catalog.ColumnMetadata) (models.NormalizedType, []string) {
	if len(column.EnumValues) > 0 {
		if strings.EqualFold(column.DataType, "set") {
			return models.NormalizedType{Kind: models.TypeEnum}, []string{"set may combine multiple values"}
		}
		return models.NormalizedType{Kind: models.TypeEnum}, nil
	}

	var (
		normalized models.NormalizedType
		notes      []string
	)
	switch dialect {
	case "postgres":
		normalized, notes = normalizePostgres(column)
	case "mysql":
		normalized, notes = normalizeMySQL(column)
	case "mssql":
		normalized, notes = normalizeMSSQL(column)
	case "sqlite":
		normalized, notes = normalizeSQLite(column)
	default:
		normalized = models.NormalizedType{Kind: models.TypeUnknown}
		notes = []string{fmt.Sprintf("no type mapping for dialect %q", dialect)}
	}

	if normalized.Kind == models.TypeUnknown {
		m.logger.Debug("Unmapped column type",
			zap.String("dialect", dialect),
			zap.String("column", column.ColumnName),
			zap.String("native_type", column.ColumnType))
	}
	return normalized, notes
}

func normalizePostgres(column catalog.ColumnMetadata) (models.NormalizedType, []string) {
	dataType := strings.ToLower(column.DataType)
	switch dataType {
	case "smallint", "integer", "bigint", "int2", "int4", "int8":
		return models.NormalizedType{Kind: models.TypeInteger}, nil
	case "numeric", "decimal":
		return models.NormalizedType{
			Kind:      models.TypeDecimal,
			Precision: int64Of(column.Precision),
			Scale:     int64Of(column.Scale),
		}, nil
	case "real", "double precision":
		return models.NormalizedType{Kind: models.TypeFloat}, nil
	case "money":
		return models.NormalizedType{Kind: models.TypeDecimal}, []string{"money mapped to decimal"}
	case "boolean":
		return models.NormalizedType{Kind: models.TypeBoolean}, nil
	case "character varying":
		return models.NormalizedType{
			Kind:   models.TypeString,
			Length: int64Of(column.Length),
		}, nil
	case "character", "bpchar":
		return models.NormalizedType{
			Kind:   models.TypeString,
			Length: int64Of(column.Length),
		}, []string{"fixed-width character type, values are space padded"}
	case "text", "citext":
		return models.NormalizedType{Kind: models.TypeText}, nil
	case "uuid":
		return models.NormalizedType{Kind: models.TypeString, Length: 36},
			[]string{"uuid stored as 36-character string"}
	case "inet", "cidr", "macaddr", "macaddr8":
		return models.NormalizedType{Kind: models.TypeString}, []string{"network address stored as string"}
	case "date":
		return models.NormalizedType{Kind: models.TypeDate}, nil
	case "timestamp without time zone":
		return models.NormalizedType{Kind: models.TypeDateTime}, nil
	case "timestamp with time zone":
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time zone awareness dropped"}
	case "time without time zone", "time with time zone":
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time of day mapped to datetime"}
	case "bytea":
		return models.NormalizedType{Kind: models.TypeBinary}, nil
	case "json", "jsonb", "xml":
		return models.NormalizedType{Kind: models.TypeText}, []string{fmt.Sprintf("%s stored as text", dataType)}
	}
	return models.NormalizedType{Kind: models.TypeUnknown},
		[]string{fmt.Sprintf("unmapped postgres type %q", column.ColumnType)}
}

func normalizeMySQL(column catalog.ColumnMetadata) (models.NormalizedType, []string) {
	dataType := strings.ToLower(column.DataType)

	// tinyint(1) is the conventional MySQL boolean.
	if dataType == "tinyint" && strings.HasPrefix(strings.ToLower(column.ColumnType), "tinyint(1)") {
		return models.NormalizedType{Kind: models.TypeBoolean}, nil
	}

	switch dataType {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint":
		normalized := models.NormalizedType{Kind: models.TypeInteger, Unsigned: column.Unsigned}
		if dataType == "bigint" && column.Unsigned {
			return normalized, []string{"unsigned bigint exceeds signed 64-bit range"}
		}
		return normalized, nil
	case "decimal", "numeric":
		return models.NormalizedType{
			Kind:      models.TypeDecimal,
			Precision: int64Of(column.Precision),
			Scale:     int64Of(column.Scale),
			Unsigned:  column.Unsigned,
		}, nil
	case "float", "double", "real":
		return models.NormalizedType{Kind: models.TypeFloat, Unsigned: column.Unsigned}, nil
	case "bit":
		if int64Of(column.Precision) <= 1 {
			return models.NormalizedType{Kind: models.TypeBoolean}, nil
		}
		return models.NormalizedType{Kind: models.TypeBinary}, []string{"multi-bit field stored as binary"}
	case "char", "varchar":
		return models.NormalizedType{
			Kind:   models.TypeString,
			Length: int64Of(column.Length),
		}, nil
	case "tinytext", "text", "mediumtext", "longtext":
		return models.NormalizedType{Kind: models.TypeText}, nil
	case "date":
		return models.NormalizedType{Kind: models.TypeDate}, nil
	case "datetime", "timestamp":
		return models.NormalizedType{Kind: models.TypeDateTime}, nil
	case "time":
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time of day mapped to datetime"}
	case "year":
		return models.NormalizedType{Kind: models.TypeInteger}, []string{"year mapped to integer"}
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob":
		return models.NormalizedType{Kind: models.TypeBinary}, nil
	case "set":
		// Reached only when the set literals could not be parsed out of
		// COLUMN_TYPE; columns with extracted literals short-circuit to
		// the enum kind before dialect dispatch.
		return models.NormalizedType{Kind: models.TypeEnum}, []string{"set may combine multiple values"}
	case "json":
		return models.NormalizedType{Kind: models.TypeText}, []string{"json stored as text"}
	}
	return models.NormalizedType{Kind: models.TypeUnknown},
		[]string{fmt.Sprintf("unmapped mysql type %q", column.ColumnType)}
}

func normalizeMSSQL(column catalog.ColumnMetadata) (models.NormalizedType, []string) {
	dataType := strings.ToLower(column.DataType)
	switch dataType {
	case "tinyint", "smallint", "int", "bigint":
		return models.NormalizedType{Kind: models.TypeInteger}, nil
	case "decimal", "numeric":
		return models.NormalizedType{
			Kind:      models.TypeDecimal,
			Precision: int64Of(column.Precision),
			Scale:     int64Of(column.Scale),
		}, nil
	case "money":
		return models.NormalizedType{Kind: models.TypeDecimal, Precision: 19, Scale: 4},
			[]string{"money mapped to decimal(19,4)"}
	case "smallmoney":
		return models.NormalizedType{Kind: models.TypeDecimal, Precision: 10, Scale: 4},
			[]string{"smallmoney mapped to decimal(10,4)"}
	case "float", "real":
		return models.NormalizedType{Kind: models.TypeFloat}, nil
	case "bit":
		return models.NormalizedType{Kind: models.TypeBoolean}, nil
	case "char", "varchar", "nchar", "nvarchar":
		if column.Length == nil {
			// (max) columns behave like unbounded text.
			return models.NormalizedType{Kind: models.TypeText}, nil
		}
		return models.NormalizedType{
			Kind:   models.TypeString,
			Length: *column.Length,
		}, nil
	case "text", "ntext":
		return models.NormalizedType{Kind: models.TypeText}, nil
	case "uniqueidentifier":
		return models.NormalizedType{Kind: models.TypeString, Length: 36},
			[]string{"uniqueidentifier stored as 36-character string"}
	case "date":
		return models.NormalizedType{Kind: models.TypeDate}, nil
	case "datetime", "datetime2", "smalldatetime":
		return models.NormalizedType{Kind: models.TypeDateTime}, nil
	case "datetimeoffset":
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time zone awareness dropped"}
	case "time":
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time of day mapped to datetime"}
	case "binary", "varbinary", "image":
		return models.NormalizedType{Kind: models.TypeBinary}, nil
	case "xml", "json":
		return models.NormalizedType{Kind: models.TypeText}, []string{fmt.Sprintf("%s stored as text", dataType)}
	}
	return models.NormalizedType{Kind: models.TypeUnknown},
		[]string{fmt.Sprintf("unmapped mssql type %q", column.ColumnType)}
}

// normalizeSQLite follows SQLite's affinity rules over the free-form
// declared type, with explicit recognition ahead of the substring
// matches so DATETIME does not land on DATE.
func normalizeSQLite(column catalog.ColumnMetadata) (models.NormalizedType, []string) {
	declared := strings.ToUpper(column.DataType)
	length, precision, scale := parseDeclaredParams(declared)

	switch {
	case strings.Contains(declared, "BOOL"):
		return models.NormalizedType{Kind: models.TypeBoolean}, nil
	case strings.Contains(declared, "DATETIME"), strings.Contains(declared, "TIMESTAMP"):
		return models.NormalizedType{Kind: models.TypeDateTime}, nil
	case strings.Contains(declared, "DATE"):
		return models.NormalizedType{Kind: models.TypeDate}, nil
	case strings.Contains(declared, "TIME"):
		return models.NormalizedType{Kind: models.TypeDateTime}, []string{"time of day mapped to datetime"}
	case strings.Contains(declared, "INT"):
		return models.NormalizedType{Kind: models.TypeInteger}, nil
	case strings.Contains(declared, "CHAR"):
		return models.NormalizedType{Kind: models.TypeString, Length: length}, nil
	case strings.Contains(declared, "TEXT"), strings.Contains(declared, "CLOB"):
		return models.NormalizedType{Kind: models.TypeText}, nil
	case strings.Contains(declared, "BLOB"), declared == "":
		return models.NormalizedType{Kind: models.TypeBinary}, nil
	case strings.Contains(declared, "REAL"), strings.Contains(declared, "FLOA"), strings.Contains(declared, "DOUB"):
		return models.NormalizedType{Kind: models.TypeFloat}, nil
	case strings.Contains(declared, "DECIMAL"), strings.Contains(declared, "NUMERIC"):
		return models.NormalizedType{
			Kind:      models.TypeDecimal,
			Precision: precision,
			Scale:     scale,
		}, nil
	}
	return models.NormalizedType{Kind: models.TypeUnknown},
		[]string{fmt.Sprintf("unmapped sqlite type %q", column.DataType)}
}

// parseDeclaredParams extracts the parenthesized arguments of a
// declared type like VARCHAR(100) or DECIMAL(10,2).
func parseDeclaredParams(declared string) (length, precision, scale int64) {
	open := strings.Index(declared, "(")
	closing := strings.LastIndex(declared, ")")
	if open < 0 || closing <= open {
		return 0, 0, 0
	}
	parts := strings.Split(declared[open+1:closing], ",")
	first, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, 0
	}
	if len(parts) == 1 {
		return first, first, 0
	}
	second, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return first, first, 0
	}
	return first, first, second
}

func int64Of(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
