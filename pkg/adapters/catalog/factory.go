package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReaderFactory creates catalog readers from the registry.
type ReaderFactory interface {
	// NewReader creates a reader for settings.Driver. The reader owns
	// its connection; the caller must Close it.
	NewReader(ctx context.Context, settings ConnectionSettings, logger *zap.Logger) (CatalogReader, error)

	// ListDialects returns info for all registered dialects.
	ListDialects() []ReaderInfo
}

type registryFactory struct{}

// NewReaderFactory returns a factory backed by the global registry.
func NewReaderFactory() ReaderFactory {
	return &registryFactory{}
}

func (f *registryFactory) NewReader(ctx context.Context, settings ConnectionSettings, logger *zap.Logger) (CatalogReader, error) {
	factory := GetFactory(settings.Driver)
	if factory == nil {
		return nil, fmt.Errorf("unsupported dialect: %s (not compiled in)", settings.Driver)
	}
	return factory(ctx, settings, logger)
}

func (f *registryFactory) ListDialects() []ReaderInfo {
	return RegisteredReaders()
}

// Ensure registryFactory implements ReaderFactory at compile time.
var _ ReaderFactory = (*registryFactory)(nil)
