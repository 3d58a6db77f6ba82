// Package providers holds the registry of provider clients.
//
// Each provider lives in its own subpackage (providers/openai,
// providers/pexels, ...) and registers a factory from init. Importing a
// provider package for side effects makes it available by name:
//
//	import _ "github.com/petal-labs/scribe/providers/pexels"
//
//	searcher, err := providers.CreateImageSearcher("pexels", providers.Deps{Settings: s})
//
// Factories resolve credentials through Deps.Settings and fail with a
// *core.MissingCredentialError when none is configured.
package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/petal-labs/scribe/core"
)

// Provider is the minimal provider contract. Capabilities are discovered by
// asserting the core interfaces (core.ChatProvider, core.ImageSearcher, ...).
type Provider interface {
	ID() string
}

// Deps are the shared collaborators handed to every factory.
type Deps struct {
	Settings  core.Settings
	Telemetry core.TelemetryHook
	Logger    *slog.Logger
	Recorder  core.UsageRecorder
}

// ProviderFactory creates a provider instance.
type ProviderFactory func(d Deps) (Provider, error)

// registry holds registered provider factories.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]ProviderFactory)
)

// Register adds a provider factory to the registry.
// It is typically called from a provider's init() function.
// If a provider with the same name is already registered, it will be overwritten.
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

// Create creates a new provider instance by name.
// Returns an error if the provider is not registered.
func Create(name string, d Deps) (Provider, error) {
	factory := Get(name)
	if factory == nil {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", name, List())
	}
	return factory(d)
}

// CreateChat creates a provider that must support chat completions.
func CreateChat(name string, d Deps) (core.ChatProvider, error) {
	return createAs[core.ChatProvider](name, d, "chat completions")
}

// CreateImageGenerator creates a provider that must generate images.
func CreateImageGenerator(name string, d Deps) (core.ImageGenerator, error) {
	return createAs[core.ImageGenerator](name, d, "image generation")
}

// CreateImageSearcher creates a provider that must search stock photos.
func CreateImageSearcher(name string, d Deps) (core.ImageSearcher, error) {
	return createAs[core.ImageSearcher](name, d, "image search")
}

// CreateVideoSearcher creates a provider that must search videos.
func CreateVideoSearcher(name string, d Deps) (core.VideoSearcher, error) {
	return createAs[core.VideoSearcher](name, d, "video search")
}

func createAs[T any](name string, d Deps, capability string) (T, error) {
	var zero T
	p, err := Create(name, d)
	if err != nil {
		return zero, err
	}
	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("provider %s does not support %s", name, capability)
	}
	return t, nil
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
