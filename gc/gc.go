// ABOUTME: GC is the public facade: owns a *registry.Collector, exposes Collect/Close
// ABOUTME: Object/Array construction lives in object.go and array.go, both in this package

package gc

import (
	"github.com/43x2/saberGC/internal/registry"
)

// GC owns one collector's registry and mutex. Pass *GC, never copy it; a
// GC is not itself a handle and carries no noCopy marker, but sharing one
// collector across goroutines is exactly what the single mutex is for.
type GC struct {
	collector *registry.Collector
}

// New constructs a GC. The zero-value config (no options) uses
// DefaultMemoryResource for user allocations, a no-op logger, and
// unregistered metrics.
func New(opts ...Option) *GC {
	c := newConfig(opts)
	metrics := registry.NewMetrics(c.registerer)
	collector := registry.New(c.resource, c.logger, metrics)
	g := &GC{collector: collector}
	collector.SetOrphanHook(g.unpin)
	return g
}

// Collect runs one mark-and-sweep pass over every object still reachable
// from a live root handle.
func (g *GC) Collect() {
	g.collector.Collect()
}

// Close runs one final Collect with an empty root set, reclaiming
// everything still registered, and marks the collector as torn down so
// any destructor that fires during that last sweep cannot call back in.
func (g *GC) Close() {
	g.collector.Teardown()
}

// unpin is the collector's orphan hook: called under the registry's lock
// for every child handle address recorded in a storage that sweep has just
// condemned (before it is destroyed), and for every root handle address
// at teardown. The registry has no notion of pinning; only the gc package,
// which owns baseObject.pin, can release it.
func (g *GC) unpin(handleAddr uintptr) {
	unpinAddr(handleAddr)
}
