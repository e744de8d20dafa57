package iavl

import (
	"encoding/binary"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	sdkerrors "github.com/chainkit/corechain/types/errors"
)

// nodeDB persists node blobs keyed by content hash in a dedicated bolt
// bucket, one per store key, using go.etcd.io/bbolt.
//
// Cold inner-node children (held only by hash) are memoized in an LRU
// after being fetched, bounding the in-memory working set without needing
// every node resident for the life of the process.
type nodeDB struct {
	db     *bolt.DB
	bucket []byte
	cache  *lru.Cache
}

const defaultNodeCacheSize = 100_000

// LoadTree opens (or initializes, if empty) a Tree backed by db, one bolt
// bucket per store key, and loads it at head (the latest saved version).
func LoadTree(db *bolt.DB, storeKeyName string) (*Tree, error) {
	ndb, err := newNodeDB(db, []byte("iavl/"+storeKeyName))
	if err != nil {
		return nil, err
	}
	t := &Tree{ndb: ndb, version: 0, workingVersion: 1}
	latest, err := latestVersion(db, ndb.bucket)
	if err != nil {
		return nil, err
	}
	if latest > 0 {
		if err := t.LoadVersion(latest); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func latestVersion(db *bolt.DB, bucket []byte) (int64, error) {
	var latest int64
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		c := b.Cursor()
		for k, _ := c.Seek([]byte{'r'}); k != nil && k[0] == 'r'; k, _ = c.Next() {
			v := int64(binary.BigEndian.Uint64(k[1:]))
			if v > latest {
				latest = v
			}
		}
		return nil
	})
	return latest, err
}

func newNodeDB(db *bolt.DB, bucket []byte) (*nodeDB, error) {
	cache, err := lru.New(defaultNodeCacheSize)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create iavl node bucket")
	}
	return &nodeDB{db: db, bucket: bucket, cache: cache}, nil
}

func rootKey(version int64) []byte {
	key := make([]byte, 9)
	key[0] = 'r'
	binary.BigEndian.PutUint64(key[1:], uint64(version))
	return key
}

func nodeKey(hash []byte) []byte {
	key := make([]byte, 1+len(hash))
	key[0] = 'n'
	copy(key[1:], hash)
	return key
}

func (ndb *nodeDB) GetNode(hash []byte) (*node, error) {
	if v, ok := ndb.cache.Get(string(hash)); ok {
		return v.(*node), nil
	}
	var buf []byte
	err := ndb.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ndb.bucket)
		v := b.Get(nodeKey(hash))
		if v == nil {
			return nil
		}
		buf = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, fmt.Errorf("node with hash %x not found in nodedb", hash)
	}
	n, err := deserializeNode(buf)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrNodeDeserialize, err.Error())
	}
	n.hash = hash
	ndb.cache.Add(string(hash), n)
	return n, nil
}

// SaveBatch persists every node in nodes (keyed by hash) plus the version's
// root hash pointer in a single bolt transaction, so a save is all-or-
// nothing even on a crash mid-write.
func (ndb *nodeDB) SaveBatch(version int64, rootHash []byte, nodes map[string]*node) error {
	return ndb.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ndb.bucket)
		for hashStr, n := range nodes {
			if err := b.Put(nodeKey([]byte(hashStr)), serializeNode(n)); err != nil {
				return err
			}
			ndb.cache.Add(hashStr, n)
		}
		return b.Put(rootKey(version), rootHash)
	})
}

// GetRootHash returns the stored root hash for version, or nil if that
// version was never saved (an empty tree's root hash).
func (ndb *nodeDB) GetRootHash(version int64) (hash []byte, found bool, err error) {
	err = ndb.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ndb.bucket)
		v := b.Get(rootKey(version))
		if v != nil {
			hash = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	return hash, found, err
}

func serializeNode(n *node) []byte {
	buf := make([]byte, 0, 64+len(n.key)+len(n.value))
	buf = encodeVarint(buf, int64(n.height))
	buf = encodeVarint(buf, n.size)
	buf = encodeVarint(buf, n.version)
	buf = encodeBytes(buf, n.key)
	if n.isLeaf() {
		buf = encodeBytes(buf, n.value)
	} else {
		buf = encodeBytes(buf, n.leftHash)
		buf = encodeBytes(buf, n.rightHash)
	}
	return buf
}

func deserializeNode(buf []byte) (*node, error) {
	n := &node{}
	var ok bool
	var height, size, version int64

	height, buf, ok = decodeVarint(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: height")
	}
	n.height = int8(height)

	size, buf, ok = decodeVarint(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: size")
	}
	n.size = size

	version, buf, ok = decodeVarint(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: version")
	}
	n.version = version

	n.key, buf, ok = decodeBytesField(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: key")
	}

	if n.isLeaf() {
		n.value, buf, ok = decodeBytesField(buf)
		if !ok {
			return nil, fmt.Errorf("corrupt node: value")
		}
		return n, nil
	}

	n.leftHash, buf, ok = decodeBytesField(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: leftHash")
	}
	n.rightHash, _, ok = decodeBytesField(buf)
	if !ok {
		return nil, fmt.Errorf("corrupt node: rightHash")
	}
	return n, nil
}
