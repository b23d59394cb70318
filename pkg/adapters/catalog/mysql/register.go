package mysql

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

func init() {
	catalog.Register(catalog.ReaderRegistration{
		Info: catalog.ReaderInfo{
			Dialect:     "mysql",
			DisplayName: "MySQL",
			Description: "MySQL 8+ and MariaDB via information_schema",
		},
		Factory: func(ctx context.Context, settings catalog.ConnectionSettings, logger *zap.Logger) (catalog.CatalogReader, error) {
			cfg, err := FromSettings(settings)
			if err != nil {
				return nil, err
			}
			return NewReader(ctx, cfg, logger)
		},
	})
}
