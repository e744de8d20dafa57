// Package rootmulti implements the MultiStore: many per-module IAVL trees
// behind one commit barrier, each wrapped in a block cache and, per
// transaction, a tx cache - the three layers of store/cachekv stacked over
// store/iavl.
package rootmulti

import (
	"crypto/sha256"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/store/cachekv"
	"github.com/chainkit/corechain/store/iavl"
	st "github.com/chainkit/corechain/store/types"
)

// Store is the MultiStore: one committed IAVL tree per store key, each
// fronted by a block-level cachekv.Store that transactions write through
// on success.
type Store struct {
	db          *bolt.DB
	keys        map[string]st.StoreKey
	trees       map[string]*iavl.TreeStore
	blockCaches map[string]*cachekv.Store
}

// NewStore mounts one IAVL tree per key in keys, all backed by the same
// bolt.DB, one bucket each prefixed by key name.
func NewStore(db *bolt.DB, keys map[string]st.StoreKey) (*Store, error) {
	s := &Store{
		db:          db,
		keys:        keys,
		trees:       make(map[string]*iavl.TreeStore, len(keys)),
		blockCaches: make(map[string]*cachekv.Store, len(keys)),
	}
	for name := range keys {
		tree, err := iavl.LoadTree(db, name)
		if err != nil {
			return nil, fmt.Errorf("loading store %q: %w", name, err)
		}
		treeStore := iavl.NewTreeStore(tree)
		s.trees[name] = treeStore
		s.blockCaches[name] = cachekv.NewStore(treeStore)
	}
	return s, nil
}

// GetKVStore returns the block-cache-backed store for name - reads/writes
// at this handle are visible to the rest of the current block once a tx
// writes through.
func (s *Store) GetKVStore(name string) st.KVStore {
	cache, ok := s.blockCaches[name]
	if !ok {
		panic(fmt.Sprintf("unknown store key %q", name))
	}
	return cache
}

// CacheMultiStore opens a fresh tx cache over every block cache, for the
// duration of one transaction or message batch.
func (s *Store) CacheMultiStore() *TxStores {
	tx := &TxStores{stores: make(map[string]*cachekv.Store, len(s.blockCaches))}
	for name, block := range s.blockCaches {
		tx.stores[name] = cachekv.NewStore(block)
	}
	return tx
}

// Commit versions every store key's tree and returns the app-hash: SHA-256
// over a canonically ordered list of (store name, store hash) records.
func (s *Store) Commit() (appHash []byte, height int64, err error) {
	names := s.sortedNames()
	records := make([]commitRecord, 0, len(names))
	for _, name := range names {
		s.blockCaches[name].Write()
		id := s.trees[name].Commit()
		records = append(records, commitRecord{name: name, hash: id.Hash})
		height = id.Version
	}
	return hashCommitRecords(records), height, nil
}

type commitRecord struct {
	name string
	hash []byte
}

func hashCommitRecords(records []commitRecord) []byte {
	buf := make([]byte, 0, 64*len(records))
	for _, r := range records {
		buf = append(buf, []byte(r.name)...)
		buf = append(buf, 0)
		buf = append(buf, r.hash...)
	}
	h := sha256.Sum256(buf)
	return h[:]
}

func (s *Store) sortedNames() []string {
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastCommitInfo reports the last committed height and the app-hash that
// height produced, for the ABCI Info handler.
func (s *Store) LastCommitInfo() (height int64, appHash []byte) {
	names := s.sortedNames()
	records := make([]commitRecord, 0, len(names))
	for _, name := range names {
		id := s.trees[name].LastCommitID()
		records = append(records, commitRecord{name: name, hash: id.Hash})
		if id.Version > height {
			height = id.Version
		}
	}
	if height == 0 {
		return 0, nil
	}
	return height, hashCommitRecords(records)
}

// SetInitialVersion sets every store's initial version - used by InitChain
// when InitialHeight > 1.
func (s *Store) SetInitialVersion(version int64) error {
	for _, tree := range s.trees {
		if err := tree.SetInitialVersion(version); err != nil {
			return err
		}
	}
	return nil
}

// CacheMultiStoreAt returns a read-only multistore view pinned at the
// requested committed height, for historical queries.
func (s *Store) CacheMultiStoreAt(height int64) (st.MultiStoreView, error) {
	view := &queryView{stores: make(map[string]st.KVStore, len(s.trees))}
	for name, tree := range s.trees {
		snap, err := tree.GetImmutable(height)
		if err != nil {
			return nil, err
		}
		view.stores[name] = snap
	}
	return view, nil
}

type queryView struct {
	stores map[string]st.KVStore
}

func (v *queryView) GetKVStore(name string) st.KVStore { return v.stores[name] }

// TxStores is the tx-cache layer opened over every block cache for the
// duration of one message batch. Writes land here first and are only
// visible to the rest of the block once Write is called.
type TxStores struct {
	stores map[string]*cachekv.Store
}

func (tx *TxStores) GetKVStore(name string) st.KVStore {
	s, ok := tx.stores[name]
	if !ok {
		panic(fmt.Sprintf("unknown store key %q", name))
	}
	return s
}

// CacheWrap opens a further overlay over this tx-cache layer, for flows
// that need nested all-or-nothing scopes (simulation runs messages over
// the ante stage's uncommitted writes; check-mode admission overlays its
// persistent cache per tx).
func (tx *TxStores) CacheWrap() *TxStores {
	out := &TxStores{stores: make(map[string]*cachekv.Store, len(tx.stores))}
	for name, s := range tx.stores {
		out.stores[name] = cachekv.NewStore(s)
	}
	return out
}

// Write pushes every store's pending writes into its block cache - the
// tx-success path.
func (tx *TxStores) Write() {
	for _, s := range tx.stores {
		s.Write()
	}
}

// Discard drops every store's pending writes - the tx-failure path.
func (tx *TxStores) Discard() {
	for _, s := range tx.stores {
		s.Discard()
	}
}
