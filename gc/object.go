// ABOUTME: Object[T] is the generic typed handle: baseObject plus a *T view onto its storage
// ABOUTME: Init/Assign/Cast all take *Object[T] destinations; none return a handle by value

package gc

import (
	"reflect"
	"unsafe"

	"github.com/43x2/saberGC/internal/registry"
)

// Finalizer is the optional cleanup hook a stored value can implement. It
// runs once, when the storage holding the value is swept, before the bytes
// are returned to the memory resource. It is not called for values that
// don't implement it; there is no requirement to implement it.
type Finalizer interface {
	Finalize()
}

// Object is a smart handle over a single T allocated inside a GC's
// registry. Its own address — wherever it happens to live — is what gets
// classified as a root or a child. Never assign one with `=`; the
// embedded noCopy marker makes go vet -copylocks flag it.
type Object[T any] struct {
	baseObject
	instance *T
}

// Init allocates space for value inside g's registry and registers dst at
// its own address as the owning handle. dst must be the zero value (or
// have been Reset) before calling Init.
func Init[T any](dst *Object[T], g *GC, value T) error {
	var zero T
	bytes := unsafe.Sizeof(zero)
	alignment := unsafe.Alignof(zero)

	raw, err := g.collector.Allocate(bytes, alignment)
	if err != nil {
		return &AllocationFailure{Bytes: bytes, Alignment: alignment, Err: err}
	}
	*(*T)(raw) = value
	dst.instance = (*T)(raw)
	dst.bindNew(g.collector, raw, bytes, alignment)
	g.collector.SetDestructor(dst.storagePtr, destructThunk[T](), 0)
	return nil
}

// Get returns a pointer to the stored value, or nil if o is not currently
// registered (never Init'd, or Reset, or swept and orphaned).
func (o *Object[T]) Get() *T {
	if !o.registered {
		return nil
	}
	return o.instance
}

// Valid reports whether o is currently registered against a live storage.
func (o *Object[T]) Valid() bool {
	return o.registered
}

// IsRoot reports whether o's own address falls outside every known
// storage's byte range, i.e. it is a root rather than a child.
func (o *Object[T]) IsRoot() bool {
	return o.isRoot
}

// Reset unregisters o, if registered, and clears it back to its zero
// value. Safe to call on an already-empty Object.
func (o *Object[T]) Reset() {
	o.reset()
	o.instance = nil
}

// Assign implements both copy-construct (dst starts empty) and reassignment
// (dst already owns a registration) from src's storage, per the handle
// transition table: dst ends up classified by its own address, same as any
// other handle bound against that storage.
func (dst *Object[T]) Assign(src *Object[T]) error {
	if dst == src {
		return nil
	}
	if !dst.baseObject.assignFrom(&src.baseObject) {
		panic(&InvariantViolation{Msg: "assign against a torn-down collector"})
	}
	dst.instance = src.instance
	return nil
}

// Cast reclassifies dst against src's storage after verifying Derived's
// first field is exactly Base at offset 0 — the layout-compatible upcast
// this stands in for, since Go has no static_cast between unrelated types.
// Derived must embed Base as its first field for this to succeed.
func Cast[Base, Derived any](dst *Object[Base], src *Object[Derived]) bool {
	if !src.registered {
		return false
	}
	var zeroDerived Derived
	derivedType := reflect.TypeOf(zeroDerived)
	if derivedType == nil || derivedType.Kind() != reflect.Struct || derivedType.NumField() == 0 {
		return false
	}
	var zeroBase Base
	baseType := reflect.TypeOf(zeroBase)
	first := derivedType.Field(0)
	if first.Type != baseType || first.Offset != 0 {
		return false
	}

	dst.instance = (*Base)(unsafe.Pointer(src.instance))
	if !dst.baseObject.assignFrom(&src.baseObject) {
		return false
	}
	return true
}

// destructThunk runs Finalize, if T implements Finalizer, once per element
// in reverse order. count is 1 for a single Object; InitArray passes the
// element count for an Array.
func destructThunk[T any]() registry.Destructor {
	return func(ptr unsafe.Pointer, count uintptr) {
		elems := unsafe.Slice((*T)(ptr), count)
		for i := len(elems) - 1; i >= 0; i-- {
			if f, ok := any(&elems[i]).(Finalizer); ok {
				f.Finalize()
			}
		}
	}
}
