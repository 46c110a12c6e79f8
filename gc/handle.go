// ABOUTME: baseObject is the address-classification state machine shared by Object and Array
// ABOUTME: It is the Go realization of saberGC's BaseObject: never copy it, only Init/Assign/Reset it

package gc

import (
	"runtime"
	"unsafe"

	"github.com/43x2/saberGC/internal/registry"
)

// noCopy makes go vet's copylocks analysis flag an accidental bare
// assignment of a type embedding it, the same trick sync.WaitGroup uses.
// A handle's whole contract depends on staying at the address it was
// registered under; assigning it with `=` would silently produce a second,
// unregistered handle sharing the first one's bookkeeping.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// baseObject is embedded as the first field of every handle type. Its own
// address — wherever the embedding handle happens to live, stack or
// heap, root variable or struct field inside another allocation — is what
// the collector classifies as a root or a child.
type baseObject struct {
	_ noCopy

	collector  *registry.Collector
	storagePtr uintptr
	isRoot     bool
	registered bool
	pin        runtime.Pinner
}

func (h *baseObject) addr() uintptr {
	return uintptr(unsafe.Pointer(h))
}

// bindNew registers h at its own current address as the owner of a brand
// new allocation, classifying it as root or child by range search.
func (h *baseObject) bindNew(c *registry.Collector, raw unsafe.Pointer, bytes, alignment uintptr) {
	storagePtr, isRoot := c.RegisterNew(h.addr(), raw, bytes, alignment)
	h.collector = c
	h.storagePtr = storagePtr
	h.isRoot = isRoot
	h.registered = true
	h.pin.Pin(h)
}

// assignFrom implements both copy-construct (h starts empty) and
// assignment (h may already be registered, possibly under a different
// collector). Self-assignment is a caller-level no-op — callers compare
// h == src before calling this.
func (h *baseObject) assignFrom(src *baseObject) bool {
	if src.collector == nil {
		h.reset()
		return true
	}

	sameCollector := h.registered && h.collector == src.collector
	if h.registered && !sameCollector {
		h.unregisterLocked()
	}

	isRoot, ok := src.collector.Copy(h.addr(), src.addr(), sameCollector)
	if !ok {
		return false
	}
	if !h.registered {
		h.pin.Pin(h)
	}
	h.collector = src.collector
	h.storagePtr = src.storagePtr
	h.isRoot = isRoot
	h.registered = true
	return true
}

// reset removes h from the registry (a no-op if h is already empty, or if
// its collector has finished tearing down) and clears its state.
func (h *baseObject) reset() {
	if h.registered {
		h.unregisterLocked()
	}
	h.collector = nil
	h.storagePtr = 0
	h.isRoot = false
}

func (h *baseObject) unregisterLocked() {
	if h.collector != nil && h.collector.Alive() {
		h.collector.Remove(h.addr())
	}
	h.pin.Unpin()
	h.registered = false
}

// unpinAddr reverses the Pin done in bindNew or assignFrom for a child
// handle whose enclosing storage sweep just condemned, or for a root handle
// the collector drops at teardown. handleAddr was produced by that same
// handle's own addr(). A child's enclosing storage — which is what keeps
// the handle's memory alive — has not yet been returned to the memory
// resource when the collector's orphan hook fires, and a root handle is
// still pinned, so reinterpreting it back into a *baseObject here is safe.
func unpinAddr(handleAddr uintptr) {
	h := (*baseObject)(unsafe.Pointer(handleAddr))
	h.pin.Unpin()
	h.registered = false
}
