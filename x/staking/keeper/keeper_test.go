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
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	"github.com/chainkit/corechain/x/staking/types"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx  sdk.Context
	k    Keeper
	bk   bankkeeper.Keeper
	cms  *rootmulti.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	keys := map[string]st.StoreKey{
		"staking": st.NewKVStoreKey("staking"),
		"bank":    st.NewKVStoreKey("bank"),
		"params":  st.NewKVStoreKey("params"),
	}
	cms, err := rootmulti.NewStore(db, keys)
	require.NoError(t, err)

	pk := paramskeeper.NewKeeper(keys["params"])
	bk := bankkeeper.NewKeeper(keys["bank"])
	k := NewKeeper(keys["staking"], bk, pk.Subspace(types.ModuleName))

	ctx := sdk.NewContext(cms, sdk.Header{ChainID: "test", Height: 10, Time: testTime}, false)
	params := types.DefaultParams()
	params.MaxValidators = 2
	params.UnbondingTime = time.Hour
	k.SetParams(ctx, params)
	k.SetLastTotalPower(ctx, sdk.ZeroInt())
	return &fixture{ctx: ctx, k: k, bk: bk, cms: cms}
}

func (f *fixture) atTime(t time.Time) sdk.Context {
	return sdk.NewContext(f.cms, sdk.Header{ChainID: "test", Height: f.ctx.BlockHeight() + 1, Time: t}, false)
}

// newValidator registers a validator record directly; token balances are
// funded through the bank keeper like the message path would.
func (f *fixture) newValidator(t *testing.T, operator string, selfDelegation int64) types.Validator {
	t.Helper()
	opAddr := []byte(operator)
	v := types.NewValidator(opAddr, append([]byte("conspubkey-pad-to-32-bytes--"), operator...), types.Description{Moniker: operator},
		types.Commission{Rate: sdk.ZeroDec(), MaxRate: sdk.OneDec(), MaxChangeRate: sdk.OneDec(), UpdateTime: testTime},
		sdk.NewInt(1))
	f.k.SetValidator(f.ctx, v)
	f.k.SetValidatorByPowerIndex(f.ctx, v)

	if selfDelegation > 0 {
		f.fund(t, opAddr, selfDelegation)
		_, err := f.k.Delegate(f.ctx, opAddr, sdk.NewInt(selfDelegation), v)
		require.NoError(t, err)
		v, _ = f.k.GetValidator(f.ctx, opAddr)
	}
	return v
}

func (f *fixture) fund(t *testing.T, addr []byte, amt int64) {
	t.Helper()
	f.bk.AddCoins(f.ctx, addr, sdk.NewCoins(sdk.NewCoin("stake", sdk.NewInt(amt))))
}

func TestDelegateMintsSharesAndMovesTokens(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 100)

	del := []byte("delegator1")
	f.fund(t, del, 50)
	shares, err := f.k.Delegate(f.ctx, del, sdk.NewInt(50), v)
	require.NoError(t, err)
	require.True(t, shares.Equal(sdk.NewDec(50)))

	v, _ = f.k.GetValidator(f.ctx, []byte("val1"))
	require.True(t, v.Tokens.Equal(sdk.NewInt(150)))
	require.True(t, v.DelegatorShares.Equal(sdk.NewDec(150)))

	// delegator balance spent into the not-bonded pool (validator is
	// still Unbonded).
	require.True(t, f.bk.GetBalance(f.ctx, del, "stake").Amount.IsZero())
	poolAddr := banktypes.NewModuleAddress(banktypes.NotBondedPoolName)
	require.True(t, f.bk.GetBalance(f.ctx, poolAddr, "stake").Amount.Equal(sdk.NewInt(150)))
}

func TestDelegationSharesSumToValidatorShares(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 100)
	for i, del := range [][]byte{[]byte("d1"), []byte("d2"), []byte("d3")} {
		f.fund(t, del, int64(10*(i+1)))
		v, _ = f.k.GetValidator(f.ctx, []byte("val1"))
		_, err := f.k.Delegate(f.ctx, del, sdk.NewInt(int64(10*(i+1))), v)
		require.NoError(t, err)
	}
	v, _ = f.k.GetValidator(f.ctx, []byte("val1"))

	sum := sdk.ZeroDec()
	for _, del := range [][]byte{[]byte("val1"), []byte("d1"), []byte("d2"), []byte("d3")} {
		d, found := f.k.GetDelegation(f.ctx, del, []byte("val1"))
		require.True(t, found)
		sum = sum.Add(d.Shares)
	}
	require.True(t, sum.Equal(v.DelegatorShares))
}

func TestSharesTokensTruncationMonotonic(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 1_000_000)
	// depress the exchange rate below 1:1 so conversion is lossy.
	v.Tokens = sdk.NewInt(999_999)
	f.k.SetValidator(f.ctx, v)
	v, _ = f.k.GetValidator(f.ctx, []byte("val1"))

	for _, x := range []int64{1, 7, 333, 12345, 999_998} {
		back := v.TokensFromShares(v.SharesFromTokens(sdk.NewInt(x)))
		require.True(t, back.LT(sdk.NewInt(x)) || back.Equal(sdk.NewInt(x)),
			"tokens_from_shares(shares_from_tokens(%d)) = %s must not exceed input", x, back)
	}
}

func TestUndelegateQueuesAndMatures(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 100)

	completion, returned, err := f.k.Undelegate(f.ctx, []byte("val1"), v, sdk.NewDec(40))
	require.NoError(t, err)
	require.True(t, returned.Equal(sdk.NewInt(40)))
	require.Equal(t, testTime.Add(time.Hour), completion)

	ubd, found := f.k.GetUnbondingDelegation(f.ctx, []byte("val1"), []byte("val1"))
	require.True(t, found)
	require.Len(t, ubd.Entries, 1)
	require.True(t, ubd.Entries[0].Balance.Equal(sdk.NewInt(40)))

	// before maturity nothing is released.
	f.k.DequeueAllMatureUnbondingDelegations(f.ctx)
	require.True(t, f.bk.GetBalance(f.ctx, []byte("val1"), "stake").Amount.IsZero())

	matureCtx := f.atTime(testTime.Add(time.Hour + time.Second))
	f.k.DequeueAllMatureUnbondingDelegations(matureCtx)
	require.True(t, f.bk.GetBalance(matureCtx, []byte("val1"), "stake").Amount.Equal(sdk.NewInt(40)))
	_, found = f.k.GetUnbondingDelegation(matureCtx, []byte("val1"), []byte("val1"))
	require.False(t, found)

	// maturation happens exactly once.
	f.k.DequeueAllMatureUnbondingDelegations(matureCtx)
	require.True(t, f.bk.GetBalance(matureCtx, []byte("val1"), "stake").Amount.Equal(sdk.NewInt(40)))
}

func TestUndelegateRespectsMaxEntries(t *testing.T) {
	f := setup(t)
	params := f.k.GetParams(f.ctx)
	params.MaxEntries = 2
	f.k.SetParams(f.ctx, params)

	v := f.newValidator(t, "val1", 100)
	for i := 0; i < 2; i++ {
		v, _ = f.k.GetValidator(f.ctx, []byte("val1"))
		_, _, err := f.k.Undelegate(f.ctx, []byte("val1"), v, sdk.NewDec(10))
		require.NoError(t, err)
	}
	v, _ = f.k.GetValidator(f.ctx, []byte("val1"))
	_, _, err := f.k.Undelegate(f.ctx, []byte("val1"), v, sdk.NewDec(10))
	require.ErrorContains(t, err, "too many unbonding delegation entries")
}

func TestUndelegateMoreThanDelegatedFails(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 10)
	_, err := f.k.validateUnbondAmount(f.ctx, []byte("val1"), v, sdk.NewInt(11))
	require.ErrorContains(t, err, "invalid shares amount")
}

func TestRedelegateMovesStakeWithoutTouchingBalance(t *testing.T) {
	f := setup(t)
	src := f.newValidator(t, "val1", 100)
	f.newValidator(t, "val2", 100)

	balBefore := f.bk.GetBalance(f.ctx, []byte("val1"), "stake").Amount
	dst, _ := f.k.GetValidator(f.ctx, []byte("val2"))
	_, err := f.k.BeginRedelegation(f.ctx, []byte("val1"), src, dst, sdk.NewDec(30))
	require.NoError(t, err)

	srcAfter, _ := f.k.GetValidator(f.ctx, []byte("val1"))
	dstAfter, _ := f.k.GetValidator(f.ctx, []byte("val2"))
	require.True(t, srcAfter.Tokens.Equal(sdk.NewInt(70)))
	require.True(t, dstAfter.Tokens.Equal(sdk.NewInt(130)))

	// the delegator's spendable balance never changes on redelegation.
	require.True(t, f.bk.GetBalance(f.ctx, []byte("val1"), "stake").Amount.Equal(balBefore))

	red, found := f.k.GetRedelegation(f.ctx, []byte("val1"), []byte("val1"), []byte("val2"))
	require.True(t, found)
	require.Len(t, red.Entries, 1)
}

func TestRedelegateExcessSharesFails(t *testing.T) {
	f := setup(t)
	src := f.newValidator(t, "val1", 10)
	f.newValidator(t, "val2", 100)
	dst, _ := f.k.GetValidator(f.ctx, []byte("val2"))

	_, err := f.k.BeginRedelegation(f.ctx, []byte("val1"), src, dst, sdk.NewDec(11))
	require.ErrorContains(t, err, "invalid shares amount")
}

func TestValidatorSetRecomputationBondsTopN(t *testing.T) {
	f := setup(t)
	// MaxValidators is 2; powers 5, 3, 1 (power reduction 1e6).
	f.newValidator(t, "val1", 5_000_000)
	f.newValidator(t, "val2", 3_000_000)
	f.newValidator(t, "val3", 1_000_000)

	updates := f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)
	require.Len(t, updates, 2)
	require.Equal(t, int64(5), updates[0].Power)
	require.Equal(t, int64(3), updates[1].Power)

	v1, _ := f.k.GetValidator(f.ctx, []byte("val1"))
	v2, _ := f.k.GetValidator(f.ctx, []byte("val2"))
	v3, _ := f.k.GetValidator(f.ctx, []byte("val3"))
	require.Equal(t, types.Bonded, v1.Status)
	require.Equal(t, types.Bonded, v2.Status)
	require.Equal(t, types.Unbonded, v3.Status)

	require.True(t, f.k.GetLastTotalPower(f.ctx).Equal(sdk.NewInt(8)))

	// bonded tokens moved into the bonded pool.
	bondedAddr := banktypes.NewModuleAddress(banktypes.BondedPoolName)
	require.True(t, f.bk.GetBalance(f.ctx, bondedAddr, "stake").Amount.Equal(sdk.NewInt(8_000_000)))
}

func TestDisplacedValidatorBeginsUnbonding(t *testing.T) {
	f := setup(t)
	f.newValidator(t, "val1", 5_000_000)
	f.newValidator(t, "val2", 3_000_000)
	f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)

	// a stronger third validator displaces val2.
	f.newValidator(t, "val3", 4_000_000)
	updates := f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)

	var sawZero bool
	for _, u := range updates {
		if u.Power == 0 {
			sawZero = true
		}
	}
	require.True(t, sawZero, "displaced validator must emit a power-zero update")

	v2, _ := f.k.GetValidator(f.ctx, []byte("val2"))
	require.Equal(t, types.Unbonding, v2.Status)
	require.Equal(t, testTime.Add(time.Hour), v2.UnbondingTime)
	require.Equal(t, f.ctx.BlockHeight(), v2.UnbondingHeight)
}

func TestUnchangedPowerEmitsNoUpdate(t *testing.T) {
	f := setup(t)
	f.newValidator(t, "val1", 5_000_000)
	require.Len(t, f.k.ApplyAndReturnValidatorSetUpdates(f.ctx), 1)
	require.Empty(t, f.k.ApplyAndReturnValidatorSetUpdates(f.ctx))
}

func TestJailedValidatorExcluded(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 5_000_000)
	consAddr := []byte("cons1")
	f.k.SetValidatorByConsAddr(f.ctx, consAddr, v)
	f.k.Jail(f.ctx, consAddr)

	updates := f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)
	require.Empty(t, updates)
}

func TestSlashPreservesSharesAndReducesTokens(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 1_000_000)
	consAddr := []byte("cons1")
	f.k.SetValidatorByConsAddr(f.ctx, consAddr, v)
	f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)

	sharesBefore, _ := f.k.GetDelegation(f.ctx, []byte("val1"), []byte("val1"))

	// slash 1% of power at the current height (power 1 = 1e6 tokens).
	f.k.Slash(f.ctx, consAddr, f.ctx.BlockHeight(), 1, sdk.NewDecWithPrec(1, 2))

	after, _ := f.k.GetValidator(f.ctx, []byte("val1"))
	require.True(t, after.Tokens.Equal(sdk.NewInt(990_000)), "got %s", after.Tokens)

	sharesAfter, _ := f.k.GetDelegation(f.ctx, []byte("val1"), []byte("val1"))
	require.True(t, sharesBefore.Shares.Equal(sharesAfter.Shares))

	// token value of the shares drops proportionally.
	require.True(t, after.TokensFromShares(sharesAfter.Shares).Equal(sdk.NewInt(990_000)))
}

func TestCommissionUpdateRules(t *testing.T) {
	f := setup(t)
	v := f.newValidator(t, "val1", 100)
	v.Commission = types.Commission{
		Rate:          sdk.NewDecWithPrec(10, 2),
		MaxRate:       sdk.NewDecWithPrec(20, 2),
		MaxChangeRate: sdk.NewDecWithPrec(1, 2),
		UpdateTime:    testTime.Add(-25 * time.Hour),
	}
	f.k.SetValidator(f.ctx, v)

	// too large a jump.
	big := sdk.NewDecWithPrec(15, 2)
	_, err := f.k.EditValidator(f.ctx, []byte("val1"), v.Description, &big)
	require.ErrorContains(t, err, "commission change rate exceeds maximum")

	// within bounds.
	ok := sdk.NewDecWithPrec(11, 2)
	updated, err := f.k.EditValidator(f.ctx, []byte("val1"), v.Description, &ok)
	require.NoError(t, err)
	require.True(t, updated.Commission.Rate.Equal(ok))

	// a second change within 24h is rejected.
	again := sdk.NewDecWithPrec(12, 2)
	_, err = f.k.EditValidator(f.ctx, []byte("val1"), v.Description, &again)
	require.ErrorContains(t, err, "commission update period not elapsed")
}

func TestValidatorQueueMaturation(t *testing.T) {
	f := setup(t)
	f.newValidator(t, "val1", 5_000_000)
	f.newValidator(t, "val2", 3_000_000)
	f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)

	f.newValidator(t, "val3", 4_000_000)
	f.k.ApplyAndReturnValidatorSetUpdates(f.ctx)

	v2, _ := f.k.GetValidator(f.ctx, []byte("val2"))
	require.Equal(t, types.Unbonding, v2.Status)

	matureCtx := f.atTime(testTime.Add(time.Hour + time.Minute))
	f.k.UnbondAllMatureValidators(matureCtx)

	v2, found := f.k.GetValidator(matureCtx, []byte("val2"))
	require.True(t, found)
	require.Equal(t, types.Unbonded, v2.Status)
}
