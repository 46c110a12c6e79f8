// ABOUTME: Array[T] is the generic typed handle over a contiguous run of T
// ABOUTME: Shares baseObject's address-classification with Object[T]; destructs in reverse order

package gc

import "unsafe"

// Array is a smart handle over count contiguous T values allocated inside
// a GC's registry. Like Object, never assign one with `=`.
type Array[T any] struct {
	baseObject
	instance []T
}

// InitArray allocates space for count Ts inside g's registry and registers
// dst at its own address as the owning handle.
func InitArray[T any](dst *Array[T], g *GC, count int) error {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	alignment := unsafe.Alignof(zero)
	bytes := elemSize * uintptr(count)

	raw, err := g.collector.Allocate(bytes, alignment)
	if err != nil {
		return &AllocationFailure{Bytes: bytes, Alignment: alignment, Err: err}
	}
	dst.instance = unsafe.Slice((*T)(raw), count)
	dst.bindNew(g.collector, raw, bytes, alignment)
	g.collector.SetDestructor(dst.storagePtr, destructThunk[T](), uintptr(count))
	return nil
}

// Len returns the element count a was initialized with.
func (a *Array[T]) Len() int {
	return len(a.instance)
}

// Index returns a pointer to the i'th element. It does not bounds-check
// against a's registration state; an Array that has been Reset or swept
// still reports its last-known length and backing slice.
func (a *Array[T]) Index(i int) *T {
	return &a.instance[i]
}

// Reset unregisters a, if registered, and clears it back to its zero
// value.
func (a *Array[T]) Reset() {
	a.reset()
	a.instance = nil
}
