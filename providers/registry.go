package providers

import (
	"sort"
	"sync"

	"github.com/trackkit/trackkit-go/core"
)

// ProviderFactory creates an adapter instance from the common provider
// configuration. Adapter-specific knobs beyond ProviderConfig are set via
// each adapter's functional options by constructing it directly.
type ProviderFactory func(cfg core.ProviderConfig) (core.Provider, error)

// registry holds registered provider factories.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]ProviderFactory)
)

// Register adds a provider factory to the registry.
// It is typically called from an adapter's init() function.
// If a provider with the same name is already registered, it will be
// overwritten.
//
// Example usage in an adapter package:
//
//	func init() {
//	    providers.Register("umami", func(cfg core.ProviderConfig) (core.Provider, error) {
//	        return New(cfg.SiteID, WithHost(cfg.Host)), nil
//	    })
//	}
func Register(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a provider factory by name.
// Returns nil if the provider is not registered.
func Get(name string) ProviderFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[name]
}

// Create creates a new adapter instance by name. An unknown name is an
// INVALID_CONFIG error, which the facade classifies without inspecting
// the message.
func Create(name string, cfg core.ProviderConfig) (core.Provider, error) {
	factory := Get(name)
	if factory == nil {
		return nil, &core.Error{
			Code:     core.ErrCodeInvalidConfig,
			Provider: name,
			Message:  "unknown provider " + name + " (available: " + listString() + ")",
		}
	}
	return factory(cfg)
}

// List returns the names of all registered providers in sorted order.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered returns true if a provider with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

func listString() string {
	names := List()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
