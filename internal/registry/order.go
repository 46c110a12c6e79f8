// ABOUTME: Ordered address index over live Storages, backed by a B-tree
// ABOUTME: Answers "which storage's byte range contains this address?" in O(log n)

package registry

import "github.com/google/btree"

type storageEntry struct {
	ptr     uintptr
	storage *Storage
}

func storageEntryLess(a, b storageEntry) bool {
	return a.ptr < b.ptr
}

// storageIndex is the "storages" container from the design: an
// address-ordered map permitting a predecessor query ("the greatest ptr
// <= addr"), which is how a handle's own address is classified as living
// inside or outside every known allocation.
type storageIndex struct {
	tree *btree.BTreeG[storageEntry]
}

func newStorageIndex() *storageIndex {
	return &storageIndex{tree: btree.NewG(32, storageEntryLess)}
}

func (idx *storageIndex) insert(s *Storage) {
	idx.tree.ReplaceOrInsert(storageEntry{ptr: s.ptr, storage: s})
}

func (idx *storageIndex) remove(ptr uintptr) {
	idx.tree.Delete(storageEntry{ptr: ptr})
}

func (idx *storageIndex) len() int {
	return idx.tree.Len()
}

// find returns the exact storage whose byte range contains addr, or nil.
func (idx *storageIndex) find(addr uintptr) *Storage {
	var found *Storage
	idx.tree.DescendLessOrEqual(storageEntry{ptr: addr}, func(item storageEntry) bool {
		if item.storage.contains(addr) {
			found = item.storage
		}
		return false // predecessor query: only the first candidate matters
	})
	return found
}

// forEach visits every storage in ascending address order.
func (idx *storageIndex) forEach(fn func(*Storage)) {
	idx.tree.Ascend(func(item storageEntry) bool {
		fn(item.storage)
		return true
	})
}
