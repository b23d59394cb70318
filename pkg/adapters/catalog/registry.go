package catalog

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ReaderInfo describes a registered dialect for discovery and error
// messages.
type ReaderInfo struct {
	Dialect     string // "postgres", "mysql", "mssql", "sqlite"
	DisplayName string // "PostgreSQL", "MySQL", ...
	Description string
}

// ReaderRegistration binds a dialect's info to its reader factory.
type ReaderRegistration struct {
	Info    ReaderInfo
	Factory func(ctx context.Context, settings ConnectionSettings, logger *zap.Logger) (CatalogReader, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ReaderRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg ReaderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Dialect] = reg
}

// RegisteredReaders returns info for all registered dialects, sorted by
// dialect name for stable listings.
func RegisteredReaders() []ReaderInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	infos := make([]ReaderInfo, 0, len(registry))
	for _, reg := range registry {
		infos = append(infos, reg.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Dialect < infos[j].Dialect })
	return infos
}

// GetFactory returns the reader factory for a dialect.
// Returns nil if the dialect is not registered.
func GetFactory(dialect string) func(ctx context.Context, settings ConnectionSettings, logger *zap.Logger) (CatalogReader, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dialect]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks whether a dialect has a compiled-in reader.
func IsRegistered(dialect string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dialect]
	return ok
}
