package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

func init() {
	catalog.Register(catalog.ReaderRegistration{
		Info: catalog.ReaderInfo{
			Dialect:     "mssql",
			DisplayName: "SQL Server",
			Description: "Microsoft SQL Server 2017+ via sys catalog views",
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
