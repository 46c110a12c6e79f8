// ABOUTME: Functional options for New, the Go substitute for saberGC's constructor overloads
// ABOUTME: config is unexported; only Option mutators may touch it

package gc

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	resource   MemoryResource
	logger     log.Logger
	registerer prometheus.Registerer
}

// Option configures a GC at construction time.
type Option func(*config)

// WithMemoryResource sets the allocator backing user objects. Defaults to
// DefaultMemoryResource, a plain make([]byte, n) allocator. The registry's
// own bookkeeping (the storages index and the roots/children maps) always
// lives on the ordinary Go heap, never through this resource — there is no
// option to redirect it, since the backing btree and maps have no pluggable
// allocator hook to route through one.
func WithMemoryResource(r MemoryResource) Option {
	return func(c *config) { c.resource = r }
}

// WithLogger sets the structured logger the collector uses for its debug
// and warn lines. Defaults to a no-op logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRegisterer registers the collector's Prometheus instrumentation with
// reg. Defaults to no registration; metrics are still computed but never
// exposed.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.resource == nil {
		c.resource = DefaultMemoryResource{}
	}
	return c
}
