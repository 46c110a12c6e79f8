// ABOUTME: Collector owns the address-keyed registry and runs mark-and-sweep
// ABOUTME: Every public method here is the single mutex's critical section

package registry

import (
	"sync"
	"time"
	"unsafe"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Collector is the GC.Impl of the design: it owns the MemoryResource, the
// address-ordered storages index, and the root/child classification maps,
// all behind a single mutex: every public method here is blocking, and
// there is no lock-free fast path.
type Collector struct {
	mu sync.Mutex

	resource MemoryResource
	logger   log.Logger
	metrics  *Metrics

	storages *storageIndex
	roots    map[uintptr]*Storage
	children map[uintptr]*Storage

	alive    bool // false once teardown has started; weak references stop upgrading
	onOrphan func(handleAddr uintptr)
}

// SetOrphanHook installs the callback the collector invokes, under its
// mutex, for every entry in the child list of a storage that sweep has
// just condemned (before that storage is destroyed; an address recorded
// more than once is passed more than once), and during Teardown for every
// root address it drops. The gc package uses this to unpin those
// addresses; the registry package has no notion of pinning on its own.
func (c *Collector) SetOrphanHook(fn func(handleAddr uintptr)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOrphan = fn
}

// New constructs a Collector. resource backs user allocations; the
// registry's own bookkeeping (the storages index and the roots/children
// maps) always lives on the ordinary Go heap and is never exposed to user
// code, so internal bytes can never appear as "unreachable" during sweep.
func New(resource MemoryResource, logger log.Logger, metrics *Metrics) *Collector {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Collector{
		resource: resource,
		logger:   logger,
		metrics:  metrics,
		storages: newStorageIndex(),
		roots:    make(map[uintptr]*Storage),
		children: make(map[uintptr]*Storage),
		alive:    true,
	}
}

// Alive reports whether the collector has not yet begun teardown. A child
// handle's weak reference consults this before calling back into the
// collector, so destructors running during the collector's own teardown
// become no-ops instead of re-entering a half-destroyed Collector.
func (c *Collector) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Allocate requests bytes at alignment from the user memory resource. On
// failure it runs one best-effort Collect and retries once before giving up.
// Each attempt holds the mutex only for the resource call itself, never
// across the intervening Collect, which takes the lock on its own.
func (c *Collector) Allocate(bytes, alignment uintptr) (unsafe.Pointer, error) {
	ptr, err := c.allocateLocked(bytes, alignment)
	if err == nil {
		return ptr, nil
	}
	level.Warn(c.logger).Log("msg", "allocation failed, retrying after collect", "bytes", bytes, "err", err)
	c.Collect()
	return c.allocateLocked(bytes, alignment)
}

func (c *Collector) allocateLocked(bytes, alignment uintptr) (unsafe.Pointer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resource.Allocate(bytes, alignment)
}

// RegisterNew creates a Storage for a fresh allocation and classifies
// handleAddr — the address of the handle that owns this allocation — as a
// root or a child by range-searching the existing storages. It returns the
// storage's address (the key other handles will later Copy from) and
// whether handleAddr is a root, i.e. lies outside every other storage's
// byte range.
func (c *Collector) RegisterNew(handleAddr uintptr, raw unsafe.Pointer, bytes, alignment uintptr) (storagePtr uintptr, isRoot bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := newStorage(raw, bytes, alignment, c.resource)
	c.storages.insert(s)

	if enclosing := c.storages.find(handleAddr); enclosing != nil && enclosing != s {
		enclosing.addChild(handleAddr)
		c.children[handleAddr] = s
		c.metrics.liveObjects.Inc()
		return s.ptr, false
	}
	c.roots[handleAddr] = s
	c.metrics.liveObjects.Inc()
	return s.ptr, true
}

// SetDestructor forwards to the Storage keyed by storagePtr.
func (c *Collector) SetDestructor(storagePtr uintptr, d Destructor, elementCount uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.storages.find(storagePtr); s != nil {
		s.setDestructor(d, elementCount)
	}
}

// Copy registers dstHandleAddr against the same storage srcHandleAddr is
// classified into, reclassifying dst by its own address per the range
// search. overwrite=false is a copy-construct (dst must be unregistered);
// overwrite=true is an assignment (dst replaces whatever storage it had).
func (c *Collector) Copy(dstHandleAddr, srcHandleAddr uintptr, overwrite bool) (isRoot bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, found := c.lookupLocked(srcHandleAddr)
	if !found {
		return false, false
	}

	if overwrite {
		if _, wasRoot := c.roots[dstHandleAddr]; wasRoot {
			delete(c.roots, dstHandleAddr)
		} else {
			delete(c.children, dstHandleAddr)
		}
	}

	if enclosing := c.storages.find(dstHandleAddr); enclosing != nil {
		enclosing.addChild(dstHandleAddr)
		c.children[dstHandleAddr] = s
		return false, true
	}
	c.roots[dstHandleAddr] = s
	return true, true
}

// Remove erases handleAddr from whichever of roots/children holds it. It
// does not prune handleAddr from its enclosing storage's children slice;
// see SPEC_FULL.md §9 for why that's the chosen, forgiving behavior.
func (c *Collector) Remove(handleAddr uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roots[handleAddr]; ok {
		delete(c.roots, handleAddr)
		c.metrics.liveObjects.Dec()
		return
	}
	if _, ok := c.children[handleAddr]; ok {
		delete(c.children, handleAddr)
		c.metrics.liveObjects.Dec()
	}
}

func (c *Collector) lookupLocked(handleAddr uintptr) (*Storage, bool) {
	if s, ok := c.roots[handleAddr]; ok {
		return s, true
	}
	if s, ok := c.children[handleAddr]; ok {
		return s, true
	}
	return nil, false
}

// Collect runs one mark-and-sweep pass: unmark every storage, mark
// everything reachable from the root set, then move unmarked storages out
// of the index into a local slice that is destroyed after the mutex is
// released, so user destructors re-entering the collector (via Remove,
// via another allocation) never deadlock on the lock they'd need.
func (c *Collector) Collect() {
	start := time.Now()
	condemned, rootCount := c.markAndSweepLocked()

	var freedBytes uint64
	for _, s := range condemned {
		freedBytes += uint64(s.bytes)
		s.destroy()
	}

	c.metrics.collections.Inc()
	c.metrics.collectDuration.Observe(time.Since(start).Seconds())
	if len(condemned) > 0 {
		c.metrics.objectsSwept.Add(float64(len(condemned)))
		c.metrics.bytesReclaimed.Add(float64(freedBytes))
	}
	level.Debug(c.logger).Log(
		"msg", "collect complete",
		"swept", len(condemned),
		"bytes_reclaimed", freedBytes,
		"roots", rootCount,
		"duration", time.Since(start),
	)
}

// markAndSweepLocked returns the condemned storages and the size of the
// root set at the time of the mark phase.
func (c *Collector) markAndSweepLocked() ([]*Storage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Unmark.
	c.storages.forEach(func(s *Storage) { s.unmark() })

	// Mark, recursively through each storage's children list.
	var markChild func(childHandleAddr uintptr)
	markChild = func(childHandleAddr uintptr) {
		s, ok := c.children[childHandleAddr]
		if !ok {
			// Stale child entry: the handle was removed without being
			// pruned from its enclosing storage. Nothing to mark.
			return
		}
		s.mark(markChild)
	}
	for _, s := range c.roots {
		s.mark(markChild)
	}

	// Sweep: drain unmarked storages into a local slice under the lock,
	// but run their destructors after it's released.
	var condemned []*Storage
	c.storages.forEach(func(s *Storage) {
		if !s.isMarked() {
			condemned = append(condemned, s)
		}
	})
	for _, s := range condemned {
		c.storages.remove(s.ptr)
		for _, addr := range s.children {
			delete(c.children, addr)
			if c.onOrphan != nil {
				c.onOrphan(addr)
			}
		}
	}
	return condemned, len(c.roots)
}

// Teardown empties the root set (passing each dropped root address to the
// orphan hook) and runs one final Collect, reclaiming everything still
// registered. It first marks the collector as no longer alive so any
// child handle whose destructor fires during that sweep treats its weak
// reference as expired instead of calling back in.
func (c *Collector) Teardown() {
	c.mu.Lock()
	c.alive = false
	for addr := range c.roots {
		delete(c.roots, addr)
		if c.onOrphan != nil {
			c.onOrphan(addr)
		}
	}
	c.mu.Unlock()
	c.Collect()
}
