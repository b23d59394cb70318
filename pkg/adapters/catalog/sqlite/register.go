package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

func init() {
	catalog.Register(catalog.ReaderRegistration{
		Info: catalog.ReaderInfo{
			Dialect:     "sqlite",
			DisplayName: "SQLite",
			Description: "SQLite 3 via sqlite_master and pragmas",
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
