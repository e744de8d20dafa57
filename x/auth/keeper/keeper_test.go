package keeper

import (
	"testing"
	"time"

	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	"github.com/stretchr/testify/require"
)

// memStore is a bare map-backed KVStore, enough to exercise a keeper
// without pulling in the full cachekv/iavl stack.
type memStore struct{ m map[string][]byte }

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Get(key []byte) []byte { return s.m[string(key)] }
func (s *memStore) Has(key []byte) bool   { _, ok := s.m[string(key)]; return ok }
func (s *memStore) Set(key, value []byte) { s.m[string(key)] = append([]byte{}, value...) }
func (s *memStore) Delete(key []byte)     { delete(s.m, string(key)) }
func (s *memStore) Iterator(start, end []byte) st.Iterator        { panic("unused in this test") }
func (s *memStore) ReverseIterator(start, end []byte) st.Iterator { panic("unused in this test") }

type memMultiStore struct{ stores map[string]st.KVStore }

func (m memMultiStore) GetKVStore(name string) st.KVStore { return m.stores[name] }

func testContext() (sdk.Context, st.StoreKey) {
	key := st.NewKVStoreKey("acc")
	ms := memMultiStore{stores: map[string]st.KVStore{"acc": newMemStore()}}
	ctx := sdk.NewContext(ms, sdk.Header{ChainID: "test", Height: 1, Time: time.Now()}, false)
	return ctx, key
}

func TestGetOrCreateAccountAssignsSequentialNumbers(t *testing.T) {
	ctx, key := testContext()
	k := NewKeeper(key, paramskeeper.Subspace{})

	a1 := k.GetOrCreateAccount(ctx, []byte("addr1"))
	a2 := k.GetOrCreateAccount(ctx, []byte("addr2"))
	require.Equal(t, uint64(0), a1.AccountNumber)
	require.Equal(t, uint64(1), a2.AccountNumber)

	again := k.GetOrCreateAccount(ctx, []byte("addr1"))
	require.Equal(t, a1.AccountNumber, again.AccountNumber)
}

func TestSetAccountPersistsSequenceAndPubKey(t *testing.T) {
	ctx, key := testContext()
	k := NewKeeper(key, paramskeeper.Subspace{})

	acc := k.GetOrCreateAccount(ctx, []byte("addr1"))
	acc.Sequence = 5
	acc.PubKey = []byte{0x02, 0x01, 0x02, 0x03}
	k.SetAccount(ctx, acc)

	reloaded, ok := k.GetAccount(ctx, []byte("addr1"))
	require.True(t, ok)
	require.Equal(t, uint64(5), reloaded.Sequence)
	require.Equal(t, acc.PubKey, reloaded.PubKey)
}

func TestGetAccountMissingReturnsFalse(t *testing.T) {
	ctx, key := testContext()
	k := NewKeeper(key, paramskeeper.Subspace{})
	_, ok := k.GetAccount(ctx, []byte("nobody"))
	require.False(t, ok)
}
