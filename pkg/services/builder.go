package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	"github.com/schemantic/schemantic/pkg/apperrors"
	"github.com/schemantic/schemantic/pkg/config"
	"github.com/schemantic/schemantic/pkg/models"
)

// BuildOutput bundles one run's artifacts: the assembled model and the
// per-table report the caller presents.
type BuildOutput struct {
	Model  *models.SchemaModel
	Report *models.BuildReport
}

// ModelBuilder runs the whole pipeline: open a catalog reader for the
// configured dialect, introspect the filtered table set, resolve
// relationships, and assemble the schema model.
type ModelBuilder interface {
	Build(ctx context.Context) (*BuildOutput, error)
}

type modelBuilder struct {
	cfg       *config.Config
	factory   catalog.ReaderFactory
	resolver  RelationshipResolver
	assembler ModelAssembler
	sink      EventSink
	logger    *zap.Logger
}

// NewModelBuilder creates a builder for a validated configuration. Nil
// sink and logger fall back to defaults.
func NewModelBuilder(cfg *config.Config, factory catalog.ReaderFactory, sink EventSink, logger *zap.Logger) ModelBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &modelBuilder{
		cfg:       cfg,
		factory:   factory,
		resolver:  NewRelationshipResolver(logger),
		assembler: NewModelAssembler(NewTypeMapper(logger), NewEnumExtractor(logger), logger),
		sink:      sink,
		logger:    logger,
	}
}

func (b *modelBuilder) Build(ctx context.Context) (*BuildOutput, error) {
	report := models.NewBuildReport(b.cfg.Connection.Driver)

	reader, err := b.factory.NewReader(ctx, b.cfg.Connection.Settings(), b.logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfigurationInvalid, err, "open catalog reader")
	}
	defer func() {
		if err := reader.Close(); err != nil {
			b.logger.Warn("Closing catalog reader failed", zap.Error(err))
		}
	}()

	if err := reader.Ping(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConnectionFailure, err, "connect to %s database %s",
			b.cfg.Connection.Driver, b.cfg.Connection.Database)
	}

	introspector := NewSchemaIntrospector(reader, NewPool(b.cfg.Engine.MaxWorkers, b.logger), b.sink, b.logger)
	introspected, err := introspector.Introspect(ctx, TableFilter{
		Include: b.cfg.Tables.Include,
		Exclude: b.cfg.Tables.Exclude,
	})
	if err != nil {
		return nil, err
	}

	resolved, err := b.resolver.Resolve(introspected.Schema, ResolveOptions{
		Strategy:          b.cfg.JunctionStrategy(),
		MetadataThreshold: b.cfg.Relations.MetadataThreshold,
		JoinTablePattern:  b.cfg.Relations.JoinTablePattern,
	})
	if err != nil {
		return nil, err
	}
	for _, rel := range resolved.Relationships {
		b.sink.RelationshipResolved(rel)
	}

	model, err := b.assembler.Assemble(introspected.Schema, resolved)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNamingConflict) {
			b.sink.NamingConflict(err)
		}
		return nil, err
	}
	for _, def := range model.Enums {
		b.sink.EnumExtracted(def)
		if len(def.Disambiguated) > 0 {
			b.sink.NamingConflict(apperrors.New(apperrors.KindNamingConflict,
				"enum %s disambiguated case names %v", def.ClassName, def.Disambiguated))
		}
	}

	report.Warnings = introspected.Warnings
	for _, name := range introspected.Schema.TableNames() {
		report.TableResults[name] = nil
	}
	for name, tableErr := range introspected.TableErrors {
		report.TableResults[name] = tableErr
	}
	report.Tables = len(model.Tables)
	for _, table := range model.Tables {
		report.Columns += len(table.Columns)
	}
	report.Relationships = len(model.Relationships)
	report.Enums = len(model.Enums)
	report.Collapsed = len(model.CollapsedJunctions)

	b.logger.Info("Schema model built",
		zap.String("run_id", report.RunID.String()),
		zap.Int("tables", report.Tables),
		zap.Int("relationships", report.Relationships),
		zap.Int("enums", report.Enums),
		zap.Int("failed_tables", len(introspected.TableErrors)))

	return &BuildOutput{Model: model, Report: report.Finish()}, nil
}
