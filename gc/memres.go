// ABOUTME: Public re-export of the registry's MemoryResource contract
// ABOUTME: internal/registry owns the implementation; gc is the public name

package gc

import "github.com/43x2/saberGC/internal/registry"

// MemoryResource is a size/alignment-aware raw byte allocator, supplied by
// the embedder to back user object allocations via WithMemoryResource.
type MemoryResource = registry.MemoryResource

// ErrAllocationFailed is the error a MemoryResource can return when a
// request cannot be satisfied. DefaultMemoryResource never returns an
// error.
type ErrAllocationFailed = registry.ErrAllocationFailed

// DefaultMemoryResource backs allocations with the Go heap. It is the
// default for WithMemoryResource.
type DefaultMemoryResource = registry.DefaultMemoryResource
