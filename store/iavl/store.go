package iavl

import (
	st "github.com/chainkit/corechain/store/types"
)

// TreeStore adapts Tree to the st.KVStore/CommitKVStore surface so it can
// sit at the bottom of a cachekv stack like any other layer - the
// persistent tree is the lowest layer of the multi-store.
type TreeStore struct {
	tree *Tree
}

var (
	_ st.KVStore       = (*TreeStore)(nil)
	_ st.CommitKVStore = (*TreeStore)(nil)
)

func NewTreeStore(tree *Tree) *TreeStore { return &TreeStore{tree: tree} }

func (s *TreeStore) Get(key []byte) []byte { return s.tree.Get(key) }

func (s *TreeStore) Has(key []byte) bool { return s.tree.Get(key) != nil }

// Set panics on the rare NodeDB storage fault rather than silently losing
// the write; a fault here means the underlying disk is broken, which is
// treated as a fatal process error rather than a recoverable one.
func (s *TreeStore) Set(key, value []byte) {
	if _, err := s.tree.Set(key, value); err != nil {
		panic(err)
	}
}

func (s *TreeStore) Delete(key []byte) {
	if _, _, err := s.tree.Remove(key); err != nil {
		panic(err)
	}
}

func (s *TreeStore) Iterator(start, end []byte) st.Iterator {
	return s.tree.Iterator(start, end, true)
}

func (s *TreeStore) ReverseIterator(start, end []byte) st.Iterator {
	return s.tree.Iterator(start, end, false)
}

func (s *TreeStore) Commit() st.CommitID {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		panic(err)
	}
	return st.CommitID{Version: version, Hash: hash}
}

func (s *TreeStore) LastCommitID() st.CommitID {
	return st.CommitID{Version: s.tree.Version(), Hash: s.tree.RootHash()}
}

func (s *TreeStore) SetInitialVersion(version int64) error {
	return s.tree.SetInitialVersion(version)
}

func (s *TreeStore) GetImmutable(version int64) (st.KVStore, error) {
	snap, err := s.tree.GetImmutable(version)
	if err != nil {
		return nil, err
	}
	return &TreeStore{tree: snap}, nil
}
