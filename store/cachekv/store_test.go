package cachekv

import (
	"testing"

	st "github.com/chainkit/corechain/store/types"
	"github.com/stretchr/testify/require"
)

// mapStore is a minimal iterable parent for exercising the overlay.
type mapStore struct {
	m map[string][]byte
}

func newMapStore() *mapStore { return &mapStore{m: map[string][]byte{}} }

func (s *mapStore) Get(key []byte) []byte { return s.m[string(key)] }
func (s *mapStore) Has(key []byte) bool   { _, ok := s.m[string(key)]; return ok }
func (s *mapStore) Set(key, value []byte) { s.m[string(key)] = append([]byte{}, value...) }
func (s *mapStore) Delete(key []byte)     { delete(s.m, string(key)) }

func (s *mapStore) Iterator(start, end []byte) st.Iterator {
	// reuse the overlay's own merge machinery with an empty overlay.
	empty := NewStore(&nilStore{})
	for k, v := range s.m {
		empty.Set([]byte(k), v)
	}
	return empty.Iterator(start, end)
}

func (s *mapStore) ReverseIterator(start, end []byte) st.Iterator {
	empty := NewStore(&nilStore{})
	for k, v := range s.m {
		empty.Set([]byte(k), v)
	}
	return empty.ReverseIterator(start, end)
}

type nilStore struct{}

func (nilStore) Get([]byte) []byte                  { return nil }
func (nilStore) Has([]byte) bool                    { return false }
func (nilStore) Set([]byte, []byte)                 {}
func (nilStore) Delete([]byte)                      {}
func (nilStore) Iterator(_, _ []byte) st.Iterator   { return &memIterator{} }
func (nilStore) ReverseIterator(_, _ []byte) st.Iterator {
	return &memIterator{}
}

func TestReadConsultsLayersInOrder(t *testing.T) {
	parent := newMapStore()
	parent.Set([]byte("k"), []byte("tree"))
	s := NewStore(parent)

	require.Equal(t, []byte("tree"), s.Get([]byte("k")))

	s.Set([]byte("k"), []byte("cached"))
	require.Equal(t, []byte("cached"), s.Get([]byte("k")))

	s.Delete([]byte("k"))
	require.Nil(t, s.Get([]byte("k")))
	require.False(t, s.Has([]byte("k")))
	// the parent is untouched until Write.
	require.Equal(t, []byte("tree"), parent.Get([]byte("k")))
}

func TestWriteResurrectsParentTombstone(t *testing.T) {
	parent := newMapStore()
	parent.Set([]byte("k"), []byte("old"))
	block := NewStore(parent)
	block.Delete([]byte("k"))

	tx := NewStore(block)
	require.Nil(t, tx.Get([]byte("k")))

	// a fresh tx-level write overrides the block-level tombstone.
	tx.Set([]byte("k"), []byte("new"))
	require.Equal(t, []byte("new"), tx.Get([]byte("k")))

	tx.Write()
	require.Equal(t, []byte("new"), block.Get([]byte("k")))
}

func TestDiscardDropsPendingWrites(t *testing.T) {
	parent := newMapStore()
	parent.Set([]byte("kept"), []byte("v1"))
	s := NewStore(parent)
	s.Set([]byte("kept"), []byte("v2"))
	s.Set([]byte("fresh"), []byte("x"))
	s.Discard()

	require.Equal(t, []byte("v1"), s.Get([]byte("kept")))
	require.Nil(t, s.Get([]byte("fresh")))
}

func TestWritePropagatesTombstones(t *testing.T) {
	parent := newMapStore()
	parent.Set([]byte("a"), []byte("1"))
	s := NewStore(parent)
	s.Delete([]byte("a"))
	s.Write()
	require.False(t, parent.Has([]byte("a")))
}

func TestIteratorMergesLayers(t *testing.T) {
	parent := newMapStore()
	parent.Set([]byte("a"), []byte("1"))
	parent.Set([]byte("b"), []byte("2"))
	parent.Set([]byte("c"), []byte("3"))

	s := NewStore(parent)
	s.Delete([]byte("b"))
	s.Set([]byte("d"), []byte("4"))
	s.Set([]byte("a"), []byte("overridden"))

	it := s.Iterator(nil, nil)
	defer it.Close()
	var keys []string
	var vals []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
		vals = append(vals, string(it.Value()))
	}
	require.Equal(t, []string{"a", "c", "d"}, keys)
	require.Equal(t, []string{"overridden", "3", "4"}, vals)
}

func TestIteratorRangeBounds(t *testing.T) {
	s := NewStore(newMapStore())
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		s.Set([]byte(k), []byte(k))
	}
	it := s.Iterator([]byte("b"), []byte("d"))
	defer it.Close()
	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"b", "c"}, keys)
}

func TestReverseIterator(t *testing.T) {
	s := NewStore(newMapStore())
	for _, k := range []string{"a", "b", "c"} {
		s.Set([]byte(k), []byte(k))
	}
	it := s.ReverseIterator(nil, nil)
	defer it.Close()
	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestIteratorSnapshotIsolation(t *testing.T) {
	s := NewStore(newMapStore())
	s.Set([]byte("a"), []byte("1"))
	it := s.Iterator(nil, nil)
	defer it.Close()

	// writes after construction are not observed by the open iterator.
	s.Set([]byte("b"), []byte("2"))
	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"a"}, keys)
}
