package provider

import (
	"sort"

	"github.com/rotisserie/eris"

	"housingreview/internal/config"
	"housingreview/internal/port"
)

// Factory creates a VisionProvider from a provider config.
type Factory func(cfg *config.ProviderEndpointConfig) (port.VisionProvider, error)

// registry of provider factories, populated explicitly via RegisterProvider
// at program start.
var providers = map[string]Factory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory Factory) {
	providers[name] = factory
}

// New creates a VisionProvider from cfg using the registered factory.
func New(cfg *config.ProviderEndpointConfig) (port.VisionProvider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, eris.Errorf("unknown vision provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Registered lists the registered provider names.
func Registered() []string {
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
