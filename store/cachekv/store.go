// Package cachekv implements a write-overlay over a parent KVStore: a map
// of pending writes plus a set of tombstoned keys, consulted before any
// read falls through to the parent. Both the block-level cache and the
// per-transaction cache in the multi-store are instances of this same
// Store, each wrapping a different parent.
package cachekv

import (
	"bytes"
	"sort"

	st "github.com/chainkit/corechain/store/types"
)

// Store is a pending-write map plus a tombstone set, consulted before
// falling through to parent.
type Store struct {
	parent  st.KVStore
	cache   map[string][]byte
	deleted map[string]struct{}
}

var _ st.KVStore = (*Store)(nil)

func NewStore(parent st.KVStore) *Store {
	return &Store{
		parent:  parent,
		cache:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get consults the tombstone set first, then the pending-write map, then
// the parent. A tombstone at this layer returns nil even if the parent
// still holds a value.
func (s *Store) Get(key []byte) []byte {
	k := string(key)
	if _, tomb := s.deleted[k]; tomb {
		return nil
	}
	if v, ok := s.cache[k]; ok {
		return v
	}
	return s.parent.Get(key)
}

func (s *Store) Has(key []byte) bool {
	return s.Get(key) != nil
}

// Set records a pending write, resurrecting the key even if a parent
// tombstone exists beneath this layer.
func (s *Store) Set(key, value []byte) {
	k := string(key)
	delete(s.deleted, k)
	s.cache[k] = value
}

// Delete tombstones key at this layer regardless of what the parent holds.
func (s *Store) Delete(key []byte) {
	k := string(key)
	delete(s.cache, k)
	s.deleted[k] = struct{}{}
}

// Write pushes every pending write and tombstone down into parent, then
// clears this layer.
func (s *Store) Write() {
	keys := make([]string, 0, len(s.cache)+len(s.deleted))
	for k := range s.cache {
		keys = append(keys, k)
	}
	for k := range s.deleted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if v, ok := s.cache[k]; ok {
			s.parent.Set([]byte(k), v)
			continue
		}
		s.parent.Delete([]byte(k))
	}
	s.cache = make(map[string][]byte)
	s.deleted = make(map[string]struct{})
}

// Discard drops every pending write and tombstone without touching parent.
func (s *Store) Discard() {
	s.cache = make(map[string][]byte)
	s.deleted = make(map[string]struct{})
}

func (s *Store) Iterator(start, end []byte) st.Iterator {
	return s.iterator(start, end, true)
}

func (s *Store) ReverseIterator(start, end []byte) st.Iterator {
	return s.iterator(start, end, false)
}

// iterator merges this layer's cache/tombstones over the parent's range,
// materializing a consistent snapshot at construction time.
func (s *Store) iterator(start, end []byte, ascending bool) st.Iterator {
	merged := map[string][]byte{}
	parentIt := s.parent.Iterator(start, end)
	for ; parentIt.Valid(); parentIt.Next() {
		merged[string(parentIt.Key())] = append([]byte(nil), parentIt.Value()...)
	}
	_ = parentIt.Close()

	for k := range s.deleted {
		if inRange(k, start, end) {
			delete(merged, k)
		}
	}
	for k, v := range s.cache {
		if inRange(k, start, end) {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !ascending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	items := make([]kvPair, len(keys))
	for i, k := range keys {
		items[i] = kvPair{key: []byte(k), value: merged[k]}
	}
	return &memIterator{items: items}
}

func inRange(key string, start, end []byte) bool {
	k := []byte(key)
	if start != nil && bytes.Compare(k, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(k, end) >= 0 {
		return false
	}
	return true
}

type kvPair struct {
	key, value []byte
}

type memIterator struct {
	items []kvPair
	idx   int
}

func (it *memIterator) Valid() bool   { return it.idx < len(it.items) }
func (it *memIterator) Next()         { it.idx++ }
func (it *memIterator) Key() []byte   { return it.items[it.idx].key }
func (it *memIterator) Value() []byte { return it.items[it.idx].value }
func (it *memIterator) Close() error  { return nil }
