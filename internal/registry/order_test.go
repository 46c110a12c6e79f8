// ABOUTME: Tests for storageIndex's predecessor query over address ranges

package registry

import "testing"

func TestStorageIndexFindReturnsEnclosingStorage(t *testing.T) {
	idx := newStorageIndex()

	s1 := &Storage{ptr: 100, bytes: 50}
	s2 := &Storage{ptr: 200, bytes: 50}
	idx.insert(s1)
	idx.insert(s2)

	if got := idx.find(120); got != s1 {
		t.Fatalf("find(120): expected s1, got %v", got)
	}
	if got := idx.find(210); got != s2 {
		t.Fatalf("find(210): expected s2, got %v", got)
	}
}

func TestStorageIndexFindReturnsNilOutsideAnyRange(t *testing.T) {
	idx := newStorageIndex()
	idx.insert(&Storage{ptr: 100, bytes: 50})

	if got := idx.find(40); got != nil {
		t.Fatalf("find below every range: expected nil, got %v", got)
	}
	if got := idx.find(151); got != nil {
		t.Fatalf("find just past a range: expected nil, got %v", got)
	}
}

func TestStorageIndexFindPicksNearestPredecessor(t *testing.T) {
	idx := newStorageIndex()
	s1 := &Storage{ptr: 100, bytes: 10}
	s2 := &Storage{ptr: 300, bytes: 10}
	idx.insert(s1)
	idx.insert(s2)

	// An address between the two ranges must not match either: its
	// nearest predecessor is s1, whose range ends at 110, so it falls in
	// neither byte range even though 100 < 250 < 300.
	if got := idx.find(250); got != nil {
		t.Fatalf("find between two ranges: expected nil, got %v", got)
	}
}

func TestStorageIndexRemove(t *testing.T) {
	idx := newStorageIndex()
	s := &Storage{ptr: 100, bytes: 50}
	idx.insert(s)
	idx.remove(s.ptr)

	if got := idx.find(120); got != nil {
		t.Fatalf("find after remove: expected nil, got %v", got)
	}
	if n := idx.len(); n != 0 {
		t.Fatalf("len after remove: expected 0, got %d", n)
	}
}
