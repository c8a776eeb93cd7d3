// Package transport bridges external data feeds into and out of flowscope
// pipelines. A Source pumps chunks into the head stage of a pipeline; a Sink
// is an ordinary writable stage that delivers chunks to the outside world.
// Transports register themselves by name so applications can select one from
// configuration.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/drblury/flowscope/stream"
)

// Config carries the settings transports care about. Each transport only
// reads the keys relevant to it.
type Config struct {
	// Path is the file path used by file-backed transports.
	Path string
	// Topic is the subject used by messaging transports.
	Topic string
}

// Source pumps external data into dst until the feed is exhausted or ctx is
// cancelled, then propagates end-of-input.
type Source interface {
	Run(ctx context.Context, dst stream.Stage) error
}

// Transport pairs a Source with a Sink stage.
type Transport struct {
	Source Source
	Sink   stream.Stage
}

// Builder constructs a Transport for a config.
type Builder func(ctx context.Context, cfg Config) (Transport, error)

// Registry maps transport names to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty transport registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder under name, replacing any existing entry.
func (r *Registry) Register(name string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
}

// Build constructs the named transport.
func (r *Registry) Build(ctx context.Context, name string, cfg Config) (Transport, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()
	if !ok {
		return Transport{}, fmt.Errorf("transport: unknown transport %q", name)
	}
	return builder(ctx, cfg)
}

// Names returns the registered transport names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the registry transports register into from init.
var DefaultRegistry = NewRegistry()

// Register adds a builder to the default registry.
func Register(name string, builder Builder) {
	DefaultRegistry.Register(name, builder)
}

// Build constructs a transport from the default registry.
func Build(ctx context.Context, name string, cfg Config) (Transport, error) {
	return DefaultRegistry.Build(ctx, name, cfg)
}
