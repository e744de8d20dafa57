// Package keeper implements x/distribution: per-validator reward periods,
// delegator starting info, slash-event bracketing, and the community pool.
// Every stake-changing action
// on a validator closes the current period via the staking hooks, so a
// delegator's rewards are always computed from cumulative per-share
// ratios recorded under a consistent exchange rate.
package keeper

import (
	"encoding/binary"
	"encoding/json"

	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	"github.com/chainkit/corechain/x/distribution/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	stakingkeeper "github.com/chainkit/corechain/x/staking/keeper"
)

// BankKeeper is the coin-moving surface distribution needs: reward payout
// from the module account and fee sweeping from the collector.
type BankKeeper interface {
	GetAllBalances(ctx sdk.Context, addr []byte) sdk.Coins
	SendCoinsFromModuleToAccount(ctx sdk.Context, moduleName string, to []byte, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx sdk.Context, fromModule, toModule string, amt sdk.Coins) error
}

type Keeper struct {
	storeKey      st.StoreKey
	paramSpace    paramskeeper.Subspace
	bankKeeper    BankKeeper
	stakingKeeper stakingkeeper.Keeper

	feeCollectorName string
}

func NewKeeper(storeKey st.StoreKey, paramSpace paramskeeper.Subspace, bk BankKeeper, sk stakingkeeper.Keeper) Keeper {
	return Keeper{
		storeKey:         storeKey,
		paramSpace:       paramSpace,
		bankKeeper:       bk,
		stakingKeeper:    sk,
		feeCollectorName: banktypes.FeeCollectorName,
	}
}

func (k Keeper) store(ctx sdk.Context) st.KVStore {
	return ctx.KVStore(k.storeKey)
}

func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	var p types.Params
	k.paramSpace.Get(ctx, types.ParamsKey, &p)
	return p
}

func (k Keeper) SetParams(ctx sdk.Context, p types.Params) {
	k.paramSpace.Set(ctx, types.ParamsKey, p)
}

// --- JSON store encodings, the same pattern x/staking's keeper uses ---

type decCoinJSON struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func encodeDecCoins(coins sdk.DecCoins) []decCoinJSON {
	out := make([]decCoinJSON, 0, len(coins))
	for _, c := range coins {
		out = append(out, decCoinJSON{Denom: c.Denom, Amount: c.Amount.String()})
	}
	return out
}

func decodeDecCoins(in []decCoinJSON) sdk.DecCoins {
	out := make(sdk.DecCoins, 0, len(in))
	for _, c := range in {
		var amt sdk.Dec
		if err := amt.UnmarshalJSON([]byte(`"` + c.Amount + `"`)); err != nil {
			panic(err)
		}
		out = append(out, sdk.DecCoin{Denom: c.Denom, Amount: amt})
	}
	return out
}

// --- fee pool ---

type feePoolJSON struct {
	CommunityPool []decCoinJSON `json:"community_pool"`
}

func (k Keeper) GetFeePool(ctx sdk.Context) types.FeePool {
	bz := k.store(ctx).Get(types.FeePoolKey)
	if bz == nil {
		return types.FeePool{}
	}
	var fj feePoolJSON
	if err := json.Unmarshal(bz, &fj); err != nil {
		panic(err)
	}
	return types.FeePool{CommunityPool: decodeDecCoins(fj.CommunityPool)}
}

func (k Keeper) SetFeePool(ctx sdk.Context, pool types.FeePool) {
	bz, err := json.Marshal(feePoolJSON{CommunityPool: encodeDecCoins(pool.CommunityPool)})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.FeePoolKey, bz)
}

// --- outstanding rewards ---

func (k Keeper) GetValidatorOutstandingRewards(ctx sdk.Context, valAddr []byte) sdk.DecCoins {
	bz := k.store(ctx).Get(types.ValidatorOutstandingRewardsKeyFor(valAddr))
	if bz == nil {
		return nil
	}
	var cj []decCoinJSON
	if err := json.Unmarshal(bz, &cj); err != nil {
		panic(err)
	}
	return decodeDecCoins(cj)
}

func (k Keeper) SetValidatorOutstandingRewards(ctx sdk.Context, valAddr []byte, rewards sdk.DecCoins) {
	bz, err := json.Marshal(encodeDecCoins(rewards))
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.ValidatorOutstandingRewardsKeyFor(valAddr), bz)
}

// --- current rewards ---

type currentRewardsJSON struct {
	Rewards []decCoinJSON `json:"rewards"`
	Period  uint64        `json:"period"`
}

func (k Keeper) GetValidatorCurrentRewards(ctx sdk.Context, valAddr []byte) (types.ValidatorCurrentRewards, bool) {
	bz := k.store(ctx).Get(types.ValidatorCurrentRewardsKeyFor(valAddr))
	if bz == nil {
		return types.ValidatorCurrentRewards{}, false
	}
	var cj currentRewardsJSON
	if err := json.Unmarshal(bz, &cj); err != nil {
		panic(err)
	}
	return types.ValidatorCurrentRewards{Rewards: decodeDecCoins(cj.Rewards), Period: cj.Period}, true
}

func (k Keeper) SetValidatorCurrentRewards(ctx sdk.Context, valAddr []byte, rewards types.ValidatorCurrentRewards) {
	bz, err := json.Marshal(currentRewardsJSON{Rewards: encodeDecCoins(rewards.Rewards), Period: rewards.Period})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.ValidatorCurrentRewardsKeyFor(valAddr), bz)
}

// --- historical rewards ---

type historicalRewardsJSON struct {
	CumulativeRewardRatio []decCoinJSON `json:"cumulative_reward_ratio"`
	ReferenceCount        uint32        `json:"reference_count"`
}

func (k Keeper) GetValidatorHistoricalRewards(ctx sdk.Context, valAddr []byte, period uint64) types.ValidatorHistoricalRewards {
	bz := k.store(ctx).Get(types.ValidatorHistoricalRewardsKeyFor(valAddr, period))
	if bz == nil {
		return types.ValidatorHistoricalRewards{}
	}
	var hj historicalRewardsJSON
	if err := json.Unmarshal(bz, &hj); err != nil {
		panic(err)
	}
	return types.ValidatorHistoricalRewards{
		CumulativeRewardRatio: decodeDecCoins(hj.CumulativeRewardRatio),
		ReferenceCount:        hj.ReferenceCount,
	}
}

func (k Keeper) SetValidatorHistoricalRewards(ctx sdk.Context, valAddr []byte, period uint64, rewards types.ValidatorHistoricalRewards) {
	bz, err := json.Marshal(historicalRewardsJSON{
		CumulativeRewardRatio: encodeDecCoins(rewards.CumulativeRewardRatio),
		ReferenceCount:        rewards.ReferenceCount,
	})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.ValidatorHistoricalRewardsKeyFor(valAddr, period), bz)
}

func (k Keeper) DeleteValidatorHistoricalRewards(ctx sdk.Context, valAddr []byte, period uint64) {
	k.store(ctx).Delete(types.ValidatorHistoricalRewardsKeyFor(valAddr, period))
}

// --- accumulated commission ---

func (k Keeper) GetValidatorAccumulatedCommission(ctx sdk.Context, valAddr []byte) sdk.DecCoins {
	bz := k.store(ctx).Get(types.ValidatorAccumulatedCommissionKeyFor(valAddr))
	if bz == nil {
		return nil
	}
	var cj []decCoinJSON
	if err := json.Unmarshal(bz, &cj); err != nil {
		panic(err)
	}
	return decodeDecCoins(cj)
}

func (k Keeper) SetValidatorAccumulatedCommission(ctx sdk.Context, valAddr []byte, commission sdk.DecCoins) {
	bz, err := json.Marshal(encodeDecCoins(commission))
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.ValidatorAccumulatedCommissionKeyFor(valAddr), bz)
}

// --- delegator starting info ---

type startingInfoJSON struct {
	PreviousPeriod uint64 `json:"previous_period"`
	Stake          string `json:"stake"`
	Height         uint64 `json:"height"`
}

func (k Keeper) GetDelegatorStartingInfo(ctx sdk.Context, valAddr, delAddr []byte) (types.DelegatorStartingInfo, bool) {
	bz := k.store(ctx).Get(types.DelegatorStartingInfoKeyFor(valAddr, delAddr))
	if bz == nil {
		return types.DelegatorStartingInfo{}, false
	}
	var sj startingInfoJSON
	if err := json.Unmarshal(bz, &sj); err != nil {
		panic(err)
	}
	var stake sdk.Dec
	if err := stake.UnmarshalJSON([]byte(`"` + sj.Stake + `"`)); err != nil {
		panic(err)
	}
	return types.DelegatorStartingInfo{PreviousPeriod: sj.PreviousPeriod, Stake: stake, Height: sj.Height}, true
}

func (k Keeper) SetDelegatorStartingInfo(ctx sdk.Context, valAddr, delAddr []byte, info types.DelegatorStartingInfo) {
	bz, err := json.Marshal(startingInfoJSON{
		PreviousPeriod: info.PreviousPeriod,
		Stake:          info.Stake.String(),
		Height:         info.Height,
	})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.DelegatorStartingInfoKeyFor(valAddr, delAddr), bz)
}

func (k Keeper) DeleteDelegatorStartingInfo(ctx sdk.Context, valAddr, delAddr []byte) {
	k.store(ctx).Delete(types.DelegatorStartingInfoKeyFor(valAddr, delAddr))
}

// --- slash events ---

type slashEventJSON struct {
	ValidatorPeriod uint64 `json:"validator_period"`
	Fraction        string `json:"fraction"`
}

func (k Keeper) SetValidatorSlashEvent(ctx sdk.Context, valAddr []byte, height uint64, event types.ValidatorSlashEvent) {
	bz, err := json.Marshal(slashEventJSON{ValidatorPeriod: event.ValidatorPeriod, Fraction: event.Fraction.String()})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.ValidatorSlashEventKeyFor(valAddr, height), bz)
}

// IterateValidatorSlashEventsBetween walks slash events recorded for
// valAddr at heights in [startingHeight, endingHeight], in height order -
// the historical slash-event iterator reward withdrawal brackets over.
func (k Keeper) IterateValidatorSlashEventsBetween(ctx sdk.Context, valAddr []byte, startingHeight, endingHeight uint64,
	fn func(height uint64, event types.ValidatorSlashEvent) (stop bool)) {
	start := types.ValidatorSlashEventKeyFor(valAddr, startingHeight)
	end := sdk.PrefixEnd(types.ValidatorSlashEventKeyFor(valAddr, endingHeight))
	it := k.store(ctx).Iterator(start, end)
	defer it.Close()
	prefixLen := len(types.ValidatorSlashEventPrefix(valAddr))
	for ; it.Valid(); it.Next() {
		height := binary.BigEndian.Uint64(it.Key()[prefixLen:])
		var sj slashEventJSON
		if err := json.Unmarshal(it.Value(), &sj); err != nil {
			panic(err)
		}
		var frac sdk.Dec
		if err := frac.UnmarshalJSON([]byte(`"` + sj.Fraction + `"`)); err != nil {
			panic(err)
		}
		if fn(height, types.ValidatorSlashEvent{ValidatorPeriod: sj.ValidatorPeriod, Fraction: frac}) {
			return
		}
	}
}

func (k Keeper) DeleteValidatorSlashEvents(ctx sdk.Context, valAddr []byte) {
	prefix := types.ValidatorSlashEventPrefix(valAddr)
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	var keys [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte{}, it.Key()...))
	}
	it.Close()
	for _, key := range keys {
		k.store(ctx).Delete(key)
	}
}
