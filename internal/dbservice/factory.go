package dbservice

import (
	"sync"

	"github.com/tempoview/tempoview/internal/bridge"
)

// Factory hands out one DatabaseService per backend type, built lazily and
// reused afterwards.
type Factory struct {
	mu       sync.Mutex
	invoker  bridge.Invoker
	services map[string]*DatabaseService
}

var (
	serviceFactoryOnce sync.Once
	serviceFactory     *Factory
)

// GetDatabaseServiceFactory returns the process-wide factory.
func GetDatabaseServiceFactory() *Factory {
	serviceFactoryOnce.Do(func() {
		serviceFactory = &Factory{services: make(map[string]*DatabaseService)}
	})
	return serviceFactory
}

// ResetDatabaseServiceFactory drops the singleton. Tests only.
func ResetDatabaseServiceFactory() {
	serviceFactoryOnce = sync.Once{}
	serviceFactory = nil
}

// SetInvoker installs the bridge invoker used for services built afterwards.
// Called once during bootstrap; already-built services are discarded so they
// pick up the new invoker.
func (f *Factory) SetInvoker(inv bridge.Invoker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoker = inv
	f.services = make(map[string]*DatabaseService)
}

// Get returns the service for dbType, building it on first use.
func (f *Factory) Get(dbType string) *DatabaseService {
	f.mu.Lock()
	defer f.mu.Unlock()
	if svc, ok := f.services[dbType]; ok {
		return svc
	}
	svc := NewDatabaseService(dbType, f.invoker)
	f.services[dbType] = svc
	return svc
}

// Reset discards every cached service.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services = make(map[string]*DatabaseService)
}
