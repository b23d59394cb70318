package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/models"
)

// ModelAssembler merges normalized columns, extracted enums, and
// resolved relationships into the final schema model. Assembly fails
// on any derived-name collision: two tables mapping to one entity
// name, or two enums mapping to one class name, would silently
// overwrite an artifact downstream.
type ModelAssembler interface {
	Assemble(raw *catalog.RawSchema, resolved *ResolveResult) (*models.SchemaModel, error)
}

type modelAssembler struct {
	types  TypeMapper
	enums  EnumExtractor
	logger *zap.Logger
}

// NewModelAssembler creates a model assembler over the given type
// mapper and enum extractor. If logger is nil, a no-op logger is used.
func NewModelAssembler(types TypeMapper, enums EnumExtractor, logger *zap.Logger) ModelAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &modelAssembler{types: types, enums: enums, logger: logger}
}

func (a *modelAssembler) Assemble(raw *catalog.RawSchema, resolved *ResolveResult) (*models.SchemaModel, error) {
	names := raw.TableNames()
	sort.Strings(names)

	tables := make([]*models.Table, 0, len(names))
	entityOwner := make(map[string]string, len(names))
	for _, name := range names {
		rawTable := raw.Table(name)

		entityName := EntityNameFor(name)
		if owner, ok := entityOwner[entityName]; ok {
			return nil, apperrors.New(apperrors.KindNamingConflict,
				"tables %s and %s both derive entity name %s", owner, name, entityName)
		}
		entityOwner[entityName] = name

		tables = append(tables, a.assembleTable(raw.Dialect, rawTable, entityName))
	}

	var enums []models.EnumDefinition
	classOwner := make(map[string]*models.EnumDefinition)
	for _, name := range names {
		for _, def := range a.enums.Extract(raw.Table(name)) {
			if prev, ok := classOwner[def.ClassName]; ok {
				return nil, apperrors.New(apperrors.KindNamingConflict,
					"enum class %s derived for both %s.%s and %s.%s",
					def.ClassName, prev.Table, prev.Column, def.Table, def.Column)
			}
			enums = append(enums, def)
			classOwner[def.ClassName] = &enums[len(enums)-1]
		}
	}

	model := models.NewSchemaModel(raw.Dialect, tables, resolved.Relationships, enums, resolved.CollapsedJunctions)
	for _, rel := range resolved.Relationships {
		owning := model.Table(rel.Owning.Table)
		owning.Relationships = append(owning.Relationships, rel)
	}

	a.logger.Debug("Schema model assembled",
		zap.String("dialect", raw.Dialect),
		zap.Int("tables", len(tables)),
		zap.Int("relationships", len(resolved.Relationships)),
		zap.Int("enums", len(enums)),
		zap.Int("collapsed_junctions", len(resolved.CollapsedJunctions)))
	return model, nil
}

func (a *modelAssembler) assembleTable(dialect string, rawTable *catalog.RawTable, entityName string) *models.Table {
	table := &models.Table{
		Name:        rawTable.Name,
		EntityName:  entityName,
		Comment:     rawTable.Comment,
		RowEstimate: rawTable.RowEstimate,
		PrimaryKey:  append([]string(nil), rawTable.PrimaryKey...),
	}

	table.Columns = make([]models.Column, 0, len(rawTable.Columns))
	for _, col := range rawTable.Columns {
		normalized, notes := a.types.Normalize(dialect, col)

		nativeType := col.ColumnType
		if nativeType == "" {
			nativeType = col.DataType
		}

		table.Columns = append(table.Columns, models.Column{
			Name:            col.ColumnName,
			NativeType:      nativeType,
			Type:            normalized,
			Nullable:        col.IsNullable,
			Default:         col.DefaultValue,
			IsPrimaryKey:    col.IsPrimaryKey,
			IsAutoIncrement: col.IsAutoIncrement,
			Comment:         col.Comment,
			Notes:           notes,
		})
	}

	for _, idx := range rawTable.Indexes {
		table.Indexes = append(table.Indexes, models.Index{
			Name:    idx.IndexName,
			Columns: append([]string(nil), idx.Columns...),
			Unique:  idx.IsUnique,
			Primary: idx.IsPrimary,
		})
	}

	for _, fk := range rawTable.ForeignKeys {
		table.ForeignKeys = append(table.ForeignKeys, models.ForeignKey{
			Name:          fk.ConstraintName,
			Columns:       append([]string(nil), fk.Columns...),
			TargetTable:   fk.TargetTable,
			TargetColumns: append([]string(nil), fk.TargetColumns...),
			OnDelete:      fk.OnDelete,
			OnUpdate:      fk.OnUpdate,
		})
	}

	return table
}
