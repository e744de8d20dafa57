// Package types declares the interfaces shared by every layer of the
// multi-store: the per-module StoreKey, the KVStore surface each layer
// implements, and an ordered-iteration contract all three cache layers
// merge into.
package types

// StoreKey is the opaque, process-wide identifier selecting one logical
// sub-store.
type StoreKey interface {
	Name() string
}

type kvStoreKey struct {
	name string
}

func NewKVStoreKey(name string) StoreKey { return &kvStoreKey{name: name} }

func (k *kvStoreKey) Name() string { return k.name }

// KVStore is the ordered byte-map surface every store layer (tree, block
// cache, tx cache) implements identically, so BaseApp and module keepers
// never know which layer they're talking to.
type KVStore interface {
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte)
	Delete(key []byte)
	Iterator(start, end []byte) Iterator
	ReverseIterator(start, end []byte) Iterator
}

// Iterator walks a half-open [start, end) range in ascending or descending
// key order.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}

// CommitKVStore additionally supports versioning - the persistent IAVL
// layer at the bottom of the stack.
type CommitKVStore interface {
	KVStore
	Commit() CommitID
	LastCommitID() CommitID
	SetInitialVersion(version int64) error
	GetImmutable(version int64) (KVStore, error)
}

// CommitID names a committed version and the root hash it produced.
type CommitID struct {
	Version int64
	Hash    []byte
}

func (id CommitID) IsZero() bool { return id.Version == 0 && len(id.Hash) == 0 }

// MultiStoreView exposes named read-only KVStore handles pinned at a single
// committed height, for historical queries against the multi-store.
type MultiStoreView interface {
	GetKVStore(name string) KVStore
}
