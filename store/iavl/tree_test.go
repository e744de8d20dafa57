package iavl

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

// setupTree instantiates and returns a fresh Tree backed by a temp-dir bolt
// database, cleaned up automatically at test end.
func setupTree(t testing.TB) *Tree {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "iavl.db"), 0600, nil)
	require.NoError(t, err, "failed to open bolt db")
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	tree, err := LoadTree(db, "test")
	require.NoError(t, err, "failed to load tree")
	return tree
}

func TestSetGetRemove(t *testing.T) {
	tree := setupTree(t)

	_, err := tree.Set([]byte("a"), []byte("1"))
	require.NoError(t, err)
	_, err = tree.Set([]byte("b"), []byte("2"))
	require.NoError(t, err)

	require.Equal(t, []byte("1"), tree.Get([]byte("a")))
	require.Equal(t, []byte("2"), tree.Get([]byte("b")))
	require.Nil(t, tree.Get([]byte("c")))

	val, removed, err := tree.Remove([]byte("a"))
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []byte("1"), val)
	require.Nil(t, tree.Get([]byte("a")))
}

func TestSetThenRemoveRestoresHash(t *testing.T) {
	tree := setupTree(t)
	_, err := tree.Set([]byte("x"), []byte("y"))
	require.NoError(t, err)
	_, _, err = tree.SaveVersion()
	require.NoError(t, err)
	before := tree.RootHash()

	_, err = tree.Set([]byte("z"), []byte("w"))
	require.NoError(t, err)
	_, removed, err := tree.Remove([]byte("z"))
	require.NoError(t, err)
	require.True(t, removed)

	require.Equal(t, before, tree.RootHash(), "insert then remove should restore the prior root hash")
}

func TestSaveVersionPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "iavl.db")
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)

	tree, err := LoadTree(db, "test")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		_, err := tree.Set([]byte(fmt.Sprintf("key-%02d", i)), []byte(fmt.Sprintf("val-%02d", i)))
		require.NoError(t, err)
	}
	hash, version, err := tree.SaveVersion()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db2.Close()) })

	reloaded, err := LoadTree(db2, "test")
	require.NoError(t, err)
	require.Equal(t, version, reloaded.Version())
	require.Equal(t, hash, reloaded.RootHash())

	for i := 0; i < 25; i++ {
		got := reloaded.Get([]byte(fmt.Sprintf("key-%02d", i)))
		require.Equal(t, []byte(fmt.Sprintf("val-%02d", i)), got)
	}
}

func TestTwoTreesSameOpsSameHash(t *testing.T) {
	treeA := setupTree(t)
	treeB := setupTree(t)

	ops := []struct {
		key, val string
	}{
		{"m", "1"}, {"a", "2"}, {"z", "3"}, {"b", "4"}, {"q", "5"},
	}
	for _, op := range ops {
		_, err := treeA.Set([]byte(op.key), []byte(op.val))
		require.NoError(t, err)
		_, err = treeB.Set([]byte(op.key), []byte(op.val))
		require.NoError(t, err)
	}
	hashA, _, err := treeA.SaveVersion()
	require.NoError(t, err)
	hashB, _, err := treeB.SaveVersion()
	require.NoError(t, err)
	require.Equal(t, hashA, hashB, "identical op sequences must produce equal root hashes")
}

func TestOverwriteVersionWithDifferentHashFails(t *testing.T) {
	tree := setupTree(t)
	_, err := tree.Set([]byte("a"), []byte("1"))
	require.NoError(t, err)
	_, _, err = tree.SaveVersion()
	require.NoError(t, err)
	_, _, err = tree.SaveVersion()
	require.NoError(t, err)

	require.NoError(t, tree.LoadVersion(1))
	_, err = tree.Set([]byte("a"), []byte("2"))
	require.NoError(t, err)
	_, _, err = tree.SaveVersion()
	require.Error(t, err, "overwriting version 2 with a different hash must fail")
}

func TestRangeAscendingAndBounds(t *testing.T) {
	tree := setupTree(t)
	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		_, err := tree.Set([]byte(k), []byte(k))
		require.NoError(t, err)
	}

	it := tree.Iterator([]byte("b"), []byte("e"), true)
	var got []string
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	require.Equal(t, []string{"b", "c", "d"}, got)
}

func TestAVLInvariantHoldsAfterManyInserts(t *testing.T) {
	tree := setupTree(t)
	for i := 0; i < 200; i++ {
		_, err := tree.Set([]byte(fmt.Sprintf("k%03d", i)), []byte("v"))
		require.NoError(t, err)
	}
	_, _, err := tree.SaveVersion()
	require.NoError(t, err)

	var walk func(n *node) int8
	walk = func(n *node) int8 {
		if n == nil || n.isLeaf() {
			return 0
		}
		left := tree.resolve(n.leftNode, n.leftHash)
		right := tree.resolve(n.rightNode, n.rightHash)
		lh := walk(left)
		rh := walk(right)
		diff := lh - rh
		require.LessOrEqual(t, diff, int8(1))
		require.GreaterOrEqual(t, diff, int8(-1))
		h := lh
		if rh > h {
			h = rh
		}
		return h + 1
	}
	walk(tree.root)
}
