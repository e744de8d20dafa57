package rootmulti

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	st "github.com/chainkit/corechain/store/types"
)

func openStore(t *testing.T, path string) (*Store, *bolt.DB) {
	t.Helper()
	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	keys := map[string]st.StoreKey{
		"auth": st.NewKVStoreKey("auth"),
		"bank": st.NewKVStoreKey("bank"),
	}
	s, err := NewStore(db, keys)
	require.NoError(t, err)
	return s, db
}

func TestCommitAndReopenPreservesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	s, db := openStore(t, path)

	s.GetKVStore("auth").Set([]byte("k1"), []byte("v1"))
	s.GetKVStore("bank").Set([]byte("k2"), []byte("v2"))
	hash1, height, err := s.Commit()
	require.NoError(t, err)
	require.Equal(t, int64(1), height)
	require.Len(t, hash1, 32)
	require.NoError(t, db.Close())

	reopened, db2 := openStore(t, path)
	defer db2.Close()
	require.Equal(t, []byte("v1"), reopened.GetKVStore("auth").Get([]byte("k1")))
	require.Equal(t, []byte("v2"), reopened.GetKVStore("bank").Get([]byte("k2")))

	lastHeight, lastHash := reopened.LastCommitInfo()
	require.Equal(t, int64(1), lastHeight)
	require.Equal(t, hash1, lastHash)
}

func TestIdenticalOpsProduceIdenticalAppHash(t *testing.T) {
	write := func(s *Store) []byte {
		s.GetKVStore("auth").Set([]byte("a"), []byte("1"))
		s.GetKVStore("bank").Set([]byte("b"), []byte("2"))
		s.GetKVStore("bank").Delete([]byte("missing"))
		hash, _, err := s.Commit()
		require.NoError(t, err)
		return hash
	}

	s1, db1 := openStore(t, filepath.Join(t.TempDir(), "a.db"))
	defer db1.Close()
	s2, db2 := openStore(t, filepath.Join(t.TempDir(), "b.db"))
	defer db2.Close()

	require.Equal(t, write(s1), write(s2))
}

func TestAppHashChangesWithState(t *testing.T) {
	s, db := openStore(t, filepath.Join(t.TempDir(), "app.db"))
	defer db.Close()

	s.GetKVStore("auth").Set([]byte("a"), []byte("1"))
	hash1, _, err := s.Commit()
	require.NoError(t, err)

	s.GetKVStore("auth").Set([]byte("a"), []byte("2"))
	hash2, _, err := s.Commit()
	require.NoError(t, err)
	require.NotEqual(t, hash1, hash2)
}

func TestTxCacheDiscardLeavesBlockStateUntouched(t *testing.T) {
	s, db := openStore(t, filepath.Join(t.TempDir(), "app.db"))
	defer db.Close()

	s.GetKVStore("auth").Set([]byte("committed"), []byte("yes"))

	tx := s.CacheMultiStore()
	tx.GetKVStore("auth").Set([]byte("pending"), []byte("no"))
	tx.GetKVStore("auth").Delete([]byte("committed"))
	require.Nil(t, tx.GetKVStore("auth").Get([]byte("committed")))

	tx.Discard()
	require.Equal(t, []byte("yes"), s.GetKVStore("auth").Get([]byte("committed")))
	require.Nil(t, s.GetKVStore("auth").Get([]byte("pending")))
}

func TestTxCacheWriteThrough(t *testing.T) {
	s, db := openStore(t, filepath.Join(t.TempDir(), "app.db"))
	defer db.Close()

	tx := s.CacheMultiStore()
	tx.GetKVStore("bank").Set([]byte("k"), []byte("v"))
	tx.Write()
	require.Equal(t, []byte("v"), s.GetKVStore("bank").Get([]byte("k")))
}

func TestCacheWrapNests(t *testing.T) {
	s, db := openStore(t, filepath.Join(t.TempDir(), "app.db"))
	defer db.Close()

	tx := s.CacheMultiStore()
	tx.GetKVStore("bank").Set([]byte("outer"), []byte("1"))

	inner := tx.CacheWrap()
	inner.GetKVStore("bank").Set([]byte("inner"), []byte("2"))
	require.Equal(t, []byte("1"), inner.GetKVStore("bank").Get([]byte("outer")))

	inner.Discard()
	require.Nil(t, tx.GetKVStore("bank").Get([]byte("inner")))
	require.Equal(t, []byte("1"), tx.GetKVStore("bank").Get([]byte("outer")))
}

func TestHistoricalQueryViewPinsVersion(t *testing.T) {
	s, db := openStore(t, filepath.Join(t.TempDir(), "app.db"))
	defer db.Close()

	s.GetKVStore("auth").Set([]byte("k"), []byte("v1"))
	_, h1, err := s.Commit()
	require.NoError(t, err)

	s.GetKVStore("auth").Set([]byte("k"), []byte("v2"))
	_, _, err = s.Commit()
	require.NoError(t, err)

	view, err := s.CacheMultiStoreAt(h1)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), view.GetKVStore("auth").Get([]byte("k")))

	latest, _ := s.LastCommitInfo()
	view2, err := s.CacheMultiStoreAt(latest)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), view2.GetKVStore("auth").Get([]byte("k")))
}
