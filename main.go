package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
	_ "github.com/schemantic/schemantic/pkg/adapters/catalog/mssql"
	_ "github.com/schemantic/schemantic/pkg/adapters/catalog/mysql"
	_ "github.com/schemantic/schemantic/pkg/adapters/catalog/postgres"
	_ "github.com/schemantic/schemantic/pkg/adapters/catalog/sqlite"
	"github.com/schemantic/schemantic/pkg/config"
	"github.com/schemantic/schemantic/pkg/logging"
	"github.com/schemantic/schemantic/pkg/models"
	"github.com/schemantic/schemantic/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("schemantic starting",
		zap.String("version", cfg.Version),
		zap.String("driver", cfg.Connection.Driver),
		zap.String("database", cfg.Connection.Database))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := services.NewModelBuilder(cfg, catalog.NewReaderFactory(), services.NewLogSink(logger), logger)
	output, err := builder.Build(ctx)
	if err != nil {
		logger.Fatal("Build failed", zap.Error(err))
	}

	if err := writeModel(cfg.Output, output.Model); err != nil {
		logger.Fatal("Writing model failed", zap.Error(err))
	}

	report := output.Report
	for _, warning := range report.Warnings {
		logger.Warn(warning)
	}
	for _, name := range report.FailedTables() {
		logger.Warn("Table skipped",
			zap.String("table", name),
			zap.Error(report.TableResults[name]))
	}
	logger.Info("Done",
		zap.String("run_id", report.RunID.String()),
		zap.Duration("took", report.Duration()),
		zap.Int("tables", report.Tables),
		zap.Int("columns", report.Columns),
		zap.Int("relationships", report.Relationships),
		zap.Int("enums", report.Enums),
		zap.Int("collapsed_junctions", report.Collapsed))
}

func writeModel(path string, model *models.SchemaModel) error {
	data, err := yaml.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
