package connectors

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tempoview/tempoview/pkg/logger"
)

// Factory is the process-wide connector registry. Lookups by unknown type
// return nil rather than an error; callers decide how hard to fail.
type Factory struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

var (
	factoryOnce sync.Once
	factory     *Factory
)

// GetConnectorFactory returns the shared factory, creating it and registering
// the builtin connectors on first use.
func GetConnectorFactory() *Factory {
	factoryOnce.Do(func() {
		factory = newFactory()
	})
	return factory
}

// ResetConnectorFactory discards the shared factory. Tests only.
func ResetConnectorFactory() {
	factoryOnce = sync.Once{}
	factory = nil
}

func newFactory() *Factory {
	f := &Factory{connectors: make(map[string]Connector)}
	f.registerBuiltins()
	return f
}

func (f *Factory) registerBuiltins() {
	f.Register(NewInfluxDBConnector(nil))
	f.Register(NewIoTDBConnector(nil))
	f.Register(NewObjectStorageConnector(nil))
}

// Register adds a connector, silently replacing any previous registration for
// the same type.
func (f *Factory) Register(c Connector) {
	if c == nil || c.Type() == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectors[c.Type()] = c
}

// Get returns the connector for dbType, or nil when none is registered. The
// miss is logged once here so every call site does not have to.
func (f *Factory) Get(dbType string) Connector {
	f.mu.RLock()
	c, ok := f.connectors[dbType]
	f.mu.RUnlock()
	if !ok {
		logger.WithModule("connectors").Warn("unknown connector type requested",
			zap.String("db_type", dbType),
		)
		return nil
	}
	return c
}

// Has reports whether a connector is registered for dbType.
func (f *Factory) Has(dbType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.connectors[dbType]
	return ok
}

// GetAll returns every registered connector, ordered by type for stable
// catalog listings.
func (f *Factory) GetAll() []Connector {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Connector, 0, len(f.connectors))
	for _, c := range f.connectors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}

// Types returns the sorted registered type identifiers.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]string, 0, len(f.connectors))
	for t := range f.connectors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clear removes every registration, builtins included.
func (f *Factory) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectors = make(map[string]Connector)
}

// Reload clears the registry and re-registers the builtins, dropping any
// custom registrations.
func (f *Factory) Reload() {
	f.Clear()
	f.registerBuiltins()
}

// Create instantiates a fresh, unregistered connector for dbType, or nil for
// unknown types. Fresh instances let callers inject their own bridge invoker
// without disturbing the shared registry.
func (f *Factory) Create(dbType string) Connector {
	switch dbType {
	case TypeInfluxDB:
		return NewInfluxDBConnector(nil)
	case TypeIoTDB:
		return NewIoTDBConnector(nil)
	case TypeObjectStorage:
		return NewObjectStorageConnector(nil)
	default:
		return nil
	}
}
