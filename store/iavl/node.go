package iavl

import (
	"bytes"
	"crypto/sha256"
)

// node is a single tree node, either a leaf or an inner node: a leaf has
// no children and height 0; an inner node holds the leftmost key of its
// right subtree plus left/right hashes, optionally with the children
// resolved in-memory (hot path) or only by hash (cold path, fetched
// lazily from the NodeDB).
type node struct {
	key       []byte
	value     []byte // leaf only
	height    int8
	size      int64
	version   int64
	leftHash  []byte
	rightHash []byte
	leftNode  *node // memoized, nil if cold or leaf
	rightNode *node

	hash []byte // memoized on computeHash
}

func (n *node) isLeaf() bool { return n.height == 0 }

// hashBytes serializes n into its canonical hash input: inner nodes never
// include key/value, leaves never include child hashes.
func (n *node) hashBytes() []byte {
	buf := make([]byte, 0, 64)
	buf = encodeVarint(buf, int64(n.height))
	buf = encodeVarint(buf, n.size)
	buf = encodeVarint(buf, n.version)

	if n.isLeaf() {
		buf = encodeBytes(buf, n.key)
		valueHash := sha256.Sum256(n.value)
		buf = encodeBytes(buf, valueHash[:])
	} else {
		buf = encodeBytes(buf, n.leftHash)
		buf = encodeBytes(buf, n.rightHash)
	}
	return buf
}

// computeHash fills in and returns n.hash, memoizing it. Callers must call
// this bottom-up after any mutation so every node on the path has a fresh
// hash before its parent hashes it.
func (n *node) computeHash() []byte {
	ser := n.hashBytes()
	h := sha256.Sum256(ser)
	n.hash = h[:]
	return n.hash
}

func (n *node) clone(version int64) *node {
	return &node{
		key:       n.key,
		value:     n.value,
		height:    n.height,
		size:      n.size,
		version:   version,
		leftHash:  n.leftHash,
		rightHash: n.rightHash,
		leftNode:  n.leftNode,
		rightNode: n.rightNode,
	}
}

func (n *node) calcHeightAndSize(left, right *node) {
	lh, rh := int8(0), int8(0)
	ls, rs := int64(0), int64(0)
	if left != nil {
		lh, ls = left.height, left.size
	}
	if right != nil {
		rh, rs = right.height, right.size
	}
	h := lh
	if rh > h {
		h = rh
	}
	n.height = h + 1
	n.size = ls + rs
}

func (n *node) balanceFactor(left, right *node) int {
	lh, rh := int8(0), int8(0)
	if left != nil {
		lh = left.height
	}
	if right != nil {
		rh = right.height
	}
	return int(lh) - int(rh)
}

func equalBytes(a, b []byte) bool { return bytes.Equal(a, b) }
