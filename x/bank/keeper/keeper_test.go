package keeper

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/store/rootmulti"
	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	banktypes "github.com/chainkit/corechain/x/bank/types"
)

func setup(t *testing.T) (sdk.Context, Keeper) {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	keys := map[string]st.StoreKey{"bank": st.NewKVStoreKey("bank")}
	cms, err := rootmulti.NewStore(db, keys)
	require.NoError(t, err)

	ctx := sdk.NewContext(cms, sdk.Header{ChainID: "test", Height: 1, Time: time.Unix(1700000000, 0).UTC()}, false)
	return ctx, NewKeeper(keys["bank"])
}

func coins(amt int64, denom string) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, sdk.NewInt(amt)))
}

func TestSendCoinsMovesBalance(t *testing.T) {
	ctx, k := setup(t)
	from, to := []byte("from-address-bytes-1"), []byte("to-address-bytes-2--")

	k.AddCoins(ctx, from, coins(100, "uatom"))
	require.NoError(t, k.SendCoins(ctx, from, to, coins(34, "uatom")))

	require.True(t, k.GetBalance(ctx, from, "uatom").Amount.Equal(sdk.NewInt(66)))
	require.True(t, k.GetBalance(ctx, to, "uatom").Amount.Equal(sdk.NewInt(34)))
}

func TestSendCoinsInsufficientFundsFailsAtomically(t *testing.T) {
	ctx, k := setup(t)
	from, to := []byte("from-address-bytes-1"), []byte("to-address-bytes-2--")

	k.AddCoins(ctx, from, sdk.NewCoins(
		sdk.NewCoin("uatom", sdk.NewInt(100)),
		sdk.NewCoin("stake", sdk.NewInt(1)),
	))
	err := k.SendCoins(ctx, from, to, sdk.NewCoins(
		sdk.NewCoin("uatom", sdk.NewInt(50)),
		sdk.NewCoin("stake", sdk.NewInt(2)),
	))
	require.Error(t, err)

	// nothing moved, in either denom.
	require.True(t, k.GetBalance(ctx, from, "uatom").Amount.Equal(sdk.NewInt(100)))
	require.True(t, k.GetBalance(ctx, to, "uatom").Amount.IsZero())
}

func TestSendEmitsTransferEvent(t *testing.T) {
	ctx, k := setup(t)
	from, to := []byte("from-address-bytes-1"), []byte("to-address-bytes-2--")
	k.AddCoins(ctx, from, coins(10, "uatom"))
	require.NoError(t, k.SendCoins(ctx, from, to, coins(10, "uatom")))

	events := ctx.EventManager().Events()
	require.Len(t, events, 1)
	require.Equal(t, "transfer", events[0].Type)
}

func TestGetAllBalancesScansDenoms(t *testing.T) {
	ctx, k := setup(t)
	addr := []byte("some-address-bytes--")
	k.AddCoins(ctx, addr, sdk.NewCoins(
		sdk.NewCoin("uatom", sdk.NewInt(5)),
		sdk.NewCoin("stake", sdk.NewInt(7)),
	))
	all := k.GetAllBalances(ctx, addr)
	require.Len(t, all, 2)
	require.True(t, all.AmountOf("uatom").Equal(sdk.NewInt(5)))
	require.True(t, all.AmountOf("stake").Equal(sdk.NewInt(7)))
}

func TestZeroBalanceEntryIsDeleted(t *testing.T) {
	ctx, k := setup(t)
	from, to := []byte("from-address-bytes-1"), []byte("to-address-bytes-2--")
	k.AddCoins(ctx, from, coins(10, "uatom"))
	require.NoError(t, k.SendCoins(ctx, from, to, coins(10, "uatom")))

	require.Empty(t, k.GetAllBalances(ctx, from))
}

func TestModuleAccountTransfers(t *testing.T) {
	ctx, k := setup(t)
	addr := []byte("payer-address-bytes-")
	k.AddCoins(ctx, addr, coins(100, "uatom"))

	require.NoError(t, k.SendCoinsFromAccountToModule(ctx, addr, banktypes.FeeCollectorName, coins(40, "uatom")))
	feeAddr := banktypes.NewModuleAddress(banktypes.FeeCollectorName)
	require.True(t, k.GetBalance(ctx, feeAddr, "uatom").Amount.Equal(sdk.NewInt(40)))

	require.NoError(t, k.SendCoinsFromModuleToModule(ctx, banktypes.FeeCollectorName, banktypes.DistrModuleName, coins(40, "uatom")))
	distrAddr := banktypes.NewModuleAddress(banktypes.DistrModuleName)
	require.True(t, k.GetBalance(ctx, distrAddr, "uatom").Amount.Equal(sdk.NewInt(40)))

	require.NoError(t, k.SendCoinsFromModuleToAccount(ctx, banktypes.DistrModuleName, addr, coins(40, "uatom")))
	require.True(t, k.GetBalance(ctx, addr, "uatom").Amount.Equal(sdk.NewInt(100)))
}
