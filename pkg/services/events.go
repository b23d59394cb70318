package services

import (
	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/models"
)

// EventSink observes engine progress. The engine calls it synchronously
// from the introspection and build goroutine; implementations decide
// where the records go. Rendering and presentation layers subscribe
// here instead of reaching into the engine.
type EventSink interface {
	TableIntrospected(table string, columns, foreignKeys int)
	TableFailed(table string, err error)
	RelationshipResolved(rel models.Relationship)
	EnumExtracted(def models.EnumDefinition)
	NamingConflict(err error)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) TableIntrospected(string, int, int) {}

func (NopSink) TableFailed(string, error) {}

func (NopSink) RelationshipResolved(models.Relationship) {}

func (NopSink) EnumExtracted(models.EnumDefinition) {}

func (NopSink) NamingConflict(error) {}

var _ EventSink = NopSink{}

// LogSink writes each event as a structured log record.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed event sink. If logger is nil, a no-op
// logger is used.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) TableIntrospected(table string, columns, foreignKeys int) {
	s.logger.Info("Table introspected",
		zap.String("table", table),
		zap.Int("columns", columns),
		zap.Int("foreign_keys", foreignKeys))
}

func (s *LogSink) TableFailed(table string, err error) {
	s.logger.Warn("Table introspection failed",
		zap.String("table", table),
		zap.Error(err))
}

func (s *LogSink) RelationshipResolved(rel models.Relationship) {
	fields := []zap.Field{
		zap.String("kind", string(rel.Kind)),
		zap.String("owning", rel.Owning.Table),
		zap.String("inverse", rel.Inverse.Table),
	}
	if rel.JoinTable != nil {
		fields = append(fields, zap.String("join_table", rel.JoinTable.Name))
	}
	s.logger.Info("Relationship resolved", fields...)
}

func (s *LogSink) EnumExtracted(def models.EnumDefinition) {
	s.logger.Info("Enum extracted",
		zap.String("class", def.ClassName),
		zap.String("table", def.Table),
		zap.String("column", def.Column),
		zap.Int("cases", len(def.Cases)))
}

func (s *LogSink) NamingConflict(err error) {
	s.logger.Error("Naming conflict", zap.Error(err))
}

var _ EventSink = (*LogSink)(nil)
