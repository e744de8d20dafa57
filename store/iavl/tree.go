// Package iavl implements a persistent, Merkleized, ordered bytes->bytes
// map: an AVL-balanced binary search tree whose every node additionally
// carries a version and a content hash, backed by a bolt-based NodeDB
// (nodedb.go) for historical reads.
package iavl

import (
	"bytes"
	"fmt"

	sdkerrors "github.com/chainkit/corechain/types/errors"
)

// rotateInvariantPanic is raised when a mutation would violate the AVL
// balance-factor invariant or tries to rotate a leaf. These are algorithm
// bugs, not recoverable runtime conditions, so this panic is never
// recovered: it aborts the process instead of being surfaced as an error.
type rotateInvariantPanic struct{ msg string }

func (p rotateInvariantPanic) Error() string { return p.msg }

// storageFault wraps a NodeDB read failure encountered mid-recursion; it is
// recovered at the public Tree method boundary and surfaced as a regular
// error, since a failed disk read is not an algorithmic invariant
// violation even though it's convenient to propagate it via panic/recover
// through the recursive insert/delete walk.
type storageFault struct{ err error }

func (f storageFault) Error() string { return f.err.Error() }

// Tree is a mutable, versioned AVL+ tree.
type Tree struct {
	ndb            *nodeDB
	root           *node
	version        int64 // last saved version
	workingVersion int64 // version any new mutation will be stamped with
}

func (t *Tree) Version() int64 { return t.version }

// Get returns the value at key in the working tree, including Set and
// Remove calls not yet saved by SaveVersion, or nil if absent.
func (t *Tree) Get(key []byte) []byte {
	v, _ := t.safeGet(t.root, key)
	return v
}

func (t *Tree) safeGet(n *node, key []byte) (val []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if sf, ok := r.(storageFault); ok {
				err = sf.err
				return
			}
			panic(r)
		}
	}()
	return t.recursiveGet(n, key), nil
}

func (t *Tree) recursiveGet(n *node, key []byte) []byte {
	if n == nil {
		return nil
	}
	if n.isLeaf() {
		if bytes.Equal(n.key, key) {
			return n.value
		}
		return nil
	}
	if bytes.Compare(key, n.key) < 0 {
		return t.recursiveGet(t.resolve(n.leftNode, n.leftHash), key)
	}
	return t.recursiveGet(t.resolve(n.rightNode, n.rightHash), key)
}

// resolve returns memo if already in memory, otherwise fetches the node by
// hash from the NodeDB. It does not memoize onto the parent itself - the
// caller decides whether to keep the resolved pointer.
func (t *Tree) resolve(memo *node, hash []byte) *node {
	if memo != nil {
		return memo
	}
	if hash == nil {
		return nil
	}
	n, err := t.ndb.GetNode(hash)
	if err != nil {
		panic(storageFault{err})
	}
	return n
}

func leftmostKey(t *Tree, n *node) []byte {
	for !n.isLeaf() {
		n = t.resolve(n.leftNode, n.leftHash)
	}
	return n.key
}

// Set inserts or replaces key -> value, returning whether the key already
// existed (an update rather than an insert).
func (t *Tree) Set(key, value []byte) (updated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if sf, ok := r.(storageFault); ok {
				err = sf.err
				return
			}
			panic(r)
		}
	}()
	newRoot, upd := t.recursiveSet(t.root, key, value)
	t.root = newRoot
	return upd, nil
}

func (t *Tree) recursiveSet(n *node, key, value []byte) (*node, bool) {
	if n == nil {
		return &node{key: key, value: value, height: 0, size: 1, version: t.workingVersion}, false
	}
	if n.isLeaf() {
		switch c := bytes.Compare(key, n.key); {
		case c < 0:
			return &node{
				key: n.key, height: 1, size: 2, version: t.workingVersion,
				leftNode:  &node{key: key, value: value, height: 0, size: 1, version: t.workingVersion},
				rightNode: n,
			}, false
		case c > 0:
			return &node{
				key: key, height: 1, size: 2, version: t.workingVersion,
				leftNode:  n,
				rightNode: &node{key: key, value: value, height: 0, size: 1, version: t.workingVersion},
			}, false
		default:
			return &node{key: key, value: value, height: 0, size: 1, version: t.workingVersion}, true
		}
	}

	newn := n.clone(t.workingVersion)
	if bytes.Compare(key, n.key) < 0 {
		left := t.resolve(n.leftNode, n.leftHash)
		right := t.resolve(n.rightNode, n.rightHash)
		newLeft, updated := t.recursiveSet(left, key, value)
		newn.leftNode, newn.leftHash = newLeft, nil
		newn.rightNode, newn.rightHash = right, nil
		newn.key = leftmostKey(t, newn.rightNode)
		newn.calcHeightAndSize(newn.leftNode, newn.rightNode)
		return t.balance(newn), updated
	}
	left := t.resolve(n.leftNode, n.leftHash)
	right := t.resolve(n.rightNode, n.rightHash)
	newRight, updated := t.recursiveSet(right, key, value)
	newn.rightNode, newn.rightHash = newRight, nil
	newn.leftNode, newn.leftHash = left, nil
	newn.key = leftmostKey(t, newn.rightNode)
	newn.calcHeightAndSize(newn.leftNode, newn.rightNode)
	return t.balance(newn), updated
}

// Remove deletes key, returning its prior value and whether it existed.
// Deleting the final leaf under an inner node promotes its sibling
// subtree in its place.
func (t *Tree) Remove(key []byte) (value []byte, removed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if sf, ok := r.(storageFault); ok {
				err = sf.err
				return
			}
			panic(r)
		}
	}()
	newRoot, val, rm := t.recursiveRemove(t.root, key)
	if rm {
		t.root = newRoot
	}
	return val, rm, nil
}

func (t *Tree) recursiveRemove(n *node, key []byte) (*node, []byte, bool) {
	if n == nil {
		return nil, nil, false
	}
	if n.isLeaf() {
		if bytes.Equal(n.key, key) {
			return nil, n.value, true
		}
		return n, nil, false
	}

	if bytes.Compare(key, n.key) < 0 {
		left := t.resolve(n.leftNode, n.leftHash)
		right := t.resolve(n.rightNode, n.rightHash)
		newLeft, val, removed := t.recursiveRemove(left, key)
		if !removed {
			return n, nil, false
		}
		if newLeft == nil {
			return right, val, true
		}
		newn := n.clone(t.workingVersion)
		newn.leftNode, newn.leftHash = newLeft, nil
		newn.rightNode, newn.rightHash = right, nil
		newn.key = leftmostKey(t, newn.rightNode)
		newn.calcHeightAndSize(newn.leftNode, newn.rightNode)
		return t.balance(newn), val, true
	}

	left := t.resolve(n.leftNode, n.leftHash)
	right := t.resolve(n.rightNode, n.rightHash)
	newRight, val, removed := t.recursiveRemove(right, key)
	if !removed {
		return n, nil, false
	}
	if newRight == nil {
		return left, val, true
	}
	newn := n.clone(t.workingVersion)
	newn.rightNode, newn.rightHash = newRight, nil
	newn.leftNode, newn.leftHash = left, nil
	newn.key = leftmostKey(t, newn.rightNode)
	newn.calcHeightAndSize(newn.leftNode, newn.rightNode)
	return t.balance(newn), val, true
}

// balance applies LL/LR/RR/RL rotations until n's balance factor is back
// in {-1,0,1}.
func (t *Tree) balance(n *node) *node {
	bf := n.balanceFactor(n.leftNode, n.rightNode)
	if bf < -2 || bf > 2 {
		panic(rotateInvariantPanic{fmt.Sprintf("balance factor %d out of [-2,2]", bf)})
	}
	if bf > 1 {
		if n.leftNode.balanceFactor(
			t.resolve(n.leftNode.leftNode, n.leftNode.leftHash),
			t.resolve(n.leftNode.rightNode, n.leftNode.rightHash),
		) < 0 {
			n.leftNode = t.rotateLeft(n.leftNode)
		}
		return t.rotateRight(n)
	}
	if bf < -1 {
		if n.rightNode.balanceFactor(
			t.resolve(n.rightNode.leftNode, n.rightNode.leftHash),
			t.resolve(n.rightNode.rightNode, n.rightNode.rightHash),
		) > 0 {
			n.rightNode = t.rotateRight(n.rightNode)
		}
		return t.rotateLeft(n)
	}
	return n
}

func (t *Tree) rotateLeft(z *node) *node {
	if z.isLeaf() {
		panic(rotateInvariantPanic{"cannot rotate a leaf"})
	}
	y := t.resolve(z.rightNode, z.rightHash).clone(t.workingVersion)
	yLeft := t.resolve(y.leftNode, y.leftHash)

	z = z.clone(t.workingVersion)
	z.rightNode, z.rightHash = yLeft, nil
	z.key = leftmostKeyOrSelf(t, z.rightNode, z.key)
	z.calcHeightAndSize(t.resolve(z.leftNode, z.leftHash), z.rightNode)

	y.leftNode, y.leftHash = z, nil
	y.key = leftmostKey(t, y.rightNode)
	y.calcHeightAndSize(y.leftNode, t.resolve(y.rightNode, y.rightHash))
	return y
}

func (t *Tree) rotateRight(z *node) *node {
	if z.isLeaf() {
		panic(rotateInvariantPanic{"cannot rotate a leaf"})
	}
	y := t.resolve(z.leftNode, z.leftHash).clone(t.workingVersion)
	yRight := t.resolve(y.rightNode, y.rightHash)

	z = z.clone(t.workingVersion)
	z.leftNode, z.leftHash = yRight, nil
	z.key = leftmostKey(t, z.rightNode)
	z.calcHeightAndSize(z.leftNode, t.resolve(z.rightNode, z.rightHash))

	y.rightNode, y.rightHash = z, nil
	y.key = leftmostKeyOrSelf(t, y.rightNode, y.key)
	y.calcHeightAndSize(t.resolve(y.leftNode, y.leftHash), y.rightNode)
	return y
}

func leftmostKeyOrSelf(t *Tree, rightSubtree *node, fallback []byte) []byte {
	if rightSubtree == nil {
		return fallback
	}
	return leftmostKey(t, rightSubtree)
}

// RootHash returns the hash of the current working root, computing it (and
// every dirty node under it) if it hasn't been computed yet.
func (t *Tree) RootHash() []byte {
	if t.root == nil {
		return emptyHash()
	}
	t.hashDirty(t.root)
	return t.root.hash
}

func emptyHash() []byte {
	return nil
}

// hashDirty walks nodes stamped with the current working version bottom-up,
// computing and memoizing their hash; nodes from an older version already
// have a stable hash and are left untouched.
func (t *Tree) hashDirty(n *node) []byte {
	if n == nil {
		return nil
	}
	if n.hash != nil && n.version != t.workingVersion {
		return n.hash
	}
	if !n.isLeaf() {
		left := t.resolve(n.leftNode, n.leftHash)
		right := t.resolve(n.rightNode, n.rightHash)
		n.leftHash = t.hashDirty(left)
		n.rightHash = t.hashDirty(right)
	}
	return n.computeHash()
}

// SaveVersion commits the current working tree, assigning it the next
// version and persisting every node stamped with that version. Saving a
// version that would duplicate an existing one is an error (Overwrite)
// unless the computed hash matches what's already stored, in which case
// it's an idempotent no-op.
func (t *Tree) SaveVersion() ([]byte, int64, error) {
	nextVersion := t.workingVersion
	hash := t.RootHash()

	existing, found, err := t.ndb.GetRootHash(nextVersion)
	if err != nil {
		return nil, 0, err
	}
	if found {
		if !bytes.Equal(existing, hash) {
			return nil, 0, sdkerrors.Wrapf(sdkerrors.ErrOverwrite, "version %d already saved with a different hash", nextVersion)
		}
		t.version = nextVersion
		t.workingVersion = nextVersion + 1
		return hash, nextVersion, nil
	}

	dirty := map[string]*node{}
	collectDirty(t, t.root, nextVersion, dirty)
	if err := t.ndb.SaveBatch(nextVersion, hash, dirty); err != nil {
		return nil, 0, err
	}

	t.version = nextVersion
	t.workingVersion = nextVersion + 1
	// Clear the root's memoized children so the next read resolves them
	// from the NodeDB rather than holding the whole working tree in memory.
	if t.root != nil && !t.root.isLeaf() {
		t.root.leftNode = nil
		t.root.rightNode = nil
	}
	return hash, nextVersion, nil
}

func collectDirty(t *Tree, n *node, version int64, out map[string]*node) {
	if n == nil || n.version != version {
		return
	}
	out[string(n.hash)] = n
	if !n.isLeaf() {
		collectDirty(t, t.resolve(n.leftNode, n.leftHash), version, out)
		collectDirty(t, t.resolve(n.rightNode, n.rightHash), version, out)
	}
}

// SetInitialVersion pins the next commit's version number, for chains
// whose genesis starts above height 1. Only valid on a tree that has
// never committed.
func (t *Tree) SetInitialVersion(version int64) error {
	if t.version != 0 {
		return fmt.Errorf("cannot set initial version %d: tree already at version %d", version, t.version)
	}
	t.workingVersion = version
	return nil
}

// VersionExists reports whether version was ever saved.
func (t *Tree) VersionExists(version int64) bool {
	if version == t.version {
		return true
	}
	_, found, err := t.ndb.GetRootHash(version)
	return err == nil && found
}

// LoadVersion points the working tree at a previously saved version,
// making it the new head for further mutation - used on process restart.
func (t *Tree) LoadVersion(version int64) error {
	if version == 0 {
		t.root = nil
		t.version = 0
		t.workingVersion = 1
		return nil
	}
	hash, found, err := t.ndb.GetRootHash(version)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("version %d does not exist", version)
	}
	if hash == nil {
		t.root = nil
	} else {
		t.root, err = t.ndb.GetNode(hash)
		if err != nil {
			return err
		}
	}
	t.version = version
	t.workingVersion = version + 1
	return nil
}

// GetImmutable returns a read-only snapshot pinned at version, for
// historical reads.
func (t *Tree) GetImmutable(version int64) (*Tree, error) {
	hash, found, err := t.ndb.GetRootHash(version)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("version %d does not exist", version)
	}
	snap := &Tree{ndb: t.ndb, version: version, workingVersion: version + 1}
	if hash != nil {
		snap.root, err = t.ndb.GetNode(hash)
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Iterator returns an ordered walk of [start, end); end of nil means
// unbounded above, start of nil means unbounded below.
func (t *Tree) Iterator(start, end []byte, ascending bool) *TreeIterator {
	items := make([]kvPair, 0)
	t.collectRange(t.root, start, end, &items)
	if !ascending {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return &TreeIterator{items: items, idx: 0}
}

type kvPair struct {
	key, value []byte
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

func (t *Tree) collectRange(n *node, start, end []byte, out *[]kvPair) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		if inRange(n.key, start, end) {
			*out = append(*out, kvPair{n.key, n.value})
		}
		return
	}
	// Prune subtrees entirely outside [start, end) using the inner node's
	// key (leftmost key of its right subtree) as the split point.
	if start == nil || bytes.Compare(start, n.key) < 0 {
		t.collectRange(t.resolve(n.leftNode, n.leftHash), start, end, out)
	}
	if end == nil || bytes.Compare(end, n.key) > 0 {
		t.collectRange(t.resolve(n.rightNode, n.rightHash), start, end, out)
	}
}

// TreeIterator is a materialized ordered walk: the full result set is
// collected at construction time, so later mutations to the tree never
// change what an in-flight iteration sees.
type TreeIterator struct {
	items []kvPair
	idx   int
}

func (it *TreeIterator) Valid() bool { return it.idx < len(it.items) }

func (it *TreeIterator) Next() { it.idx++ }

func (it *TreeIterator) Key() []byte { return it.items[it.idx].key }

func (it *TreeIterator) Value() []byte { return it.items[it.idx].value }

func (it *TreeIterator) Close() error { return nil }
