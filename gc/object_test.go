// ABOUTME: Scenario tests for Object[T]: primitives, cycles, arrays, assignment, upcast
// ABOUTME: Mirrors the concrete scenarios the collector is meant to handle without leaking

package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/43x2/saberGC/gc"
)

func TestInitAndGetPrimitive(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var o gc.Object[int]
	require.NoError(t, gc.Init(&o, g, 42))
	require.True(t, o.Valid())
	require.True(t, o.IsRoot())
	require.NotNil(t, o.Get())
	require.Equal(t, 42, *o.Get())
}

func TestCollectKeepsReachableRoot(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var o gc.Object[int]
	require.NoError(t, gc.Init(&o, g, 7))

	g.Collect()

	require.True(t, o.Valid())
	require.Equal(t, 7, *o.Get())
}

type selfRef struct {
	self     gc.Object[selfRef]
	finalized *bool
}

func (s *selfRef) Finalize() {
	if s.finalized != nil {
		*s.finalized = true
	}
}

func TestSelfCycleIsCollected(t *testing.T) {
	g := gc.New()
	defer g.Close()

	finalized := false
	var o gc.Object[selfRef]
	require.NoError(t, gc.Init(&o, g, selfRef{finalized: &finalized}))
	require.NoError(t, o.Get().self.Assign(&o))
	require.False(t, o.Get().self.IsRoot())

	o.Reset()
	g.Collect()

	require.True(t, finalized, "a self-cycle with no remaining root must still be swept")
}

type node struct {
	next     gc.Object[node]
	finalized *bool
}

func (n *node) Finalize() {
	if n.finalized != nil {
		*n.finalized = true
	}
}

func TestTwoNodeCycleIsCollected(t *testing.T) {
	g := gc.New()
	defer g.Close()

	aFinalized, bFinalized := false, false

	var a, b gc.Object[node]
	require.NoError(t, gc.Init(&a, g, node{finalized: &aFinalized}))
	require.NoError(t, gc.Init(&b, g, node{finalized: &bFinalized}))

	require.NoError(t, a.Get().next.Assign(&b))
	require.NoError(t, b.Get().next.Assign(&a))

	a.Reset()
	b.Reset()
	g.Collect()

	require.True(t, aFinalized, "node a should be reclaimed once no root reaches the cycle")
	require.True(t, bFinalized, "node b should be reclaimed once no root reaches the cycle")
}

func TestArrayInitAndIndex(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var arr gc.Array[int]
	require.NoError(t, gc.InitArray(&arr, g, 4))
	require.Equal(t, 4, arr.Len())

	for i := 0; i < arr.Len(); i++ {
		*arr.Index(i) = i * 10
	}
	require.Equal(t, 30, *arr.Index(3))
}

type counted struct {
	order *[]int
	id    int
}

func (c *counted) Finalize() {
	*c.order = append(*c.order, c.id)
}

func TestArrayFinalizesInReverseOrder(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var order []int
	var arr gc.Array[counted]
	require.NoError(t, gc.InitArray(&arr, g, 3))
	for i := 0; i < 3; i++ {
		*arr.Index(i) = counted{order: &order, id: i}
	}

	arr.Reset()
	g.Collect()

	require.Equal(t, []int{2, 1, 0}, order)
}

type intBox struct {
	value gc.Object[int]
}

func TestAssignAcrossRootAndChildContainers(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var standalone gc.Object[int]
	require.NoError(t, gc.Init(&standalone, g, 99))
	require.True(t, standalone.IsRoot())

	var holder gc.Object[intBox]
	require.NoError(t, gc.Init(&holder, g, intBox{}))

	// holder.Get().value's own address lives inside holder's storage, so
	// assigning standalone's storage onto it must classify it as a child,
	// not a root, even though the source it copied from was a root.
	require.NoError(t, holder.Get().value.Assign(&standalone))
	require.False(t, holder.Get().value.IsRoot())
	require.Equal(t, 99, *holder.Get().value.Get())

	// A second Object[int] still on the stack, pointed at the same
	// storage, remains a root: classification depends on the destination's
	// own address, not the source's.
	var rootCopy gc.Object[int]
	require.NoError(t, rootCopy.Assign(&standalone))
	require.True(t, rootCopy.IsRoot())
	require.Equal(t, 99, *rootCopy.Get())
}

type base struct {
	tag int
}

type derived struct {
	base
	extra int
}

func TestCastUpcastsToEmbeddedBase(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var d gc.Object[derived]
	require.NoError(t, gc.Init(&d, g, derived{base: base{tag: 5}, extra: 9}))

	var b gc.Object[base]
	require.True(t, gc.Cast(&b, &d))
	require.Equal(t, 5, b.Get().tag)
}

func TestCastRejectsIncompatibleLayout(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var o gc.Object[int]
	require.NoError(t, gc.Init(&o, g, 1))

	var b gc.Object[base]
	require.False(t, gc.Cast(&b, &o))
}

func TestResetMakesHandleInvalid(t *testing.T) {
	g := gc.New()
	defer g.Close()

	var o gc.Object[int]
	require.NoError(t, gc.Init(&o, g, 1))
	o.Reset()

	require.False(t, o.Valid())
	require.Nil(t, o.Get())
}

func TestCloseReclaimsEverythingEvenRoots(t *testing.T) {
	g := gc.New()

	finalized := false
	var o gc.Object[selfRef]
	require.NoError(t, gc.Init(&o, g, selfRef{finalized: &finalized}))

	g.Close()

	require.True(t, finalized, "Close should sweep every storage, root or not")
}
