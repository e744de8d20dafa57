package keeper

import (
	"encoding/json"
	"time"

	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/staking/types"
)

// dvPair names one (delegator, validator) unbonding delegation queued for
// a given maturation time.
type dvPair struct {
	DelegatorAddress []byte
	ValidatorAddress []byte
}

// dvvTriplet names one (delegator, srcValidator, dstValidator)
// redelegation queued for a given maturation time.
type dvvTriplet struct {
	DelegatorAddress    []byte
	ValidatorSrcAddress []byte
	ValidatorDstAddress []byte
}

func (k Keeper) InsertUnbondingQueue(ctx sdk.Context, ubd types.UnbondingDelegation, completionTime time.Time) {
	key := types.UnbondingQueueKeyFor(completionTime)
	var pairs []dvPair
	if bz := k.store(ctx).Get(key); bz != nil {
		if err := json.Unmarshal(bz, &pairs); err != nil {
			panic(err)
		}
	}
	pairs = append(pairs, dvPair{DelegatorAddress: ubd.DelegatorAddress, ValidatorAddress: ubd.ValidatorAddress})
	bz, err := json.Marshal(pairs)
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(key, bz)
}

func (k Keeper) InsertRedelegationQueue(ctx sdk.Context, red types.Redelegation, completionTime time.Time) {
	key := types.RedelegationQueueKeyFor(completionTime)
	var triplets []dvvTriplet
	if bz := k.store(ctx).Get(key); bz != nil {
		if err := json.Unmarshal(bz, &triplets); err != nil {
			panic(err)
		}
	}
	triplets = append(triplets, dvvTriplet{
		DelegatorAddress:    red.DelegatorAddress,
		ValidatorSrcAddress: red.ValidatorSrcAddress,
		ValidatorDstAddress: red.ValidatorDstAddress,
	})
	bz, err := json.Marshal(triplets)
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(key, bz)
}

func (k Keeper) InsertValidatorQueue(ctx sdk.Context, operatorAddr []byte, completionTime time.Time) {
	key := types.ValidatorQueueKeyFor(completionTime)
	var addrs [][]byte
	if bz := k.store(ctx).Get(key); bz != nil {
		if err := json.Unmarshal(bz, &addrs); err != nil {
			panic(err)
		}
	}
	addrs = append(addrs, operatorAddr)
	bz, err := json.Marshal(addrs)
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(key, bz)
}

// DequeueAllMatureUnbondingDelegations releases every unbonding
// delegation entry that matured by the current block time, crediting
// tokens back to the delegator from the not-bonded pool.
func (k Keeper) DequeueAllMatureUnbondingDelegations(ctx sdk.Context) {
	blockTime := ctx.BlockTime()
	prefix := types.UnbondingQueueKey
	end := append(append([]byte{}, types.UnbondingQueueKeyFor(blockTime)...), 0xff)
	it := k.store(ctx).Iterator(prefix, end)
	var matureKeys [][]byte
	var pairs []dvPair
	for ; it.Valid(); it.Next() {
		var ps []dvPair
		if err := json.Unmarshal(it.Value(), &ps); err != nil {
			panic(err)
		}
		pairs = append(pairs, ps...)
		matureKeys = append(matureKeys, append([]byte{}, it.Key()...))
	}
	it.Close()

	for _, key := range matureKeys {
		k.store(ctx).Delete(key)
	}

	bondDenom := k.GetParams(ctx).BondDenom
	for _, p := range pairs {
		ubd, found := k.GetUnbondingDelegation(ctx, p.DelegatorAddress, p.ValidatorAddress)
		if !found {
			continue
		}
		released := ubd.RemoveMatureEntries(blockTime)
		if !released.IsZero() {
			// the not-bonded pool must cover every matured entry; coming up
			// short means the pool invariant is already broken, and
			// dropping the entry anyway would silently confiscate the
			// delegator's coins.
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, notBondedPoolName, p.DelegatorAddress, sdk.NewCoins(sdk.NewCoin(bondDenom, released))); err != nil {
				panic(err)
			}
		}
		k.SetUnbondingDelegation(ctx, ubd)
	}
}

// DequeueAllMatureRedelegations drops redelegation entries that matured
// by the current block time; tokens already live at the destination
// validator, so maturation only lifts the claw-back restriction.
func (k Keeper) DequeueAllMatureRedelegations(ctx sdk.Context) {
	blockTime := ctx.BlockTime()
	prefix := types.RedelegationQueueKey
	end := append(append([]byte{}, types.RedelegationQueueKeyFor(blockTime)...), 0xff)
	it := k.store(ctx).Iterator(prefix, end)
	var matureKeys [][]byte
	var triplets []dvvTriplet
	for ; it.Valid(); it.Next() {
		var ts []dvvTriplet
		if err := json.Unmarshal(it.Value(), &ts); err != nil {
			panic(err)
		}
		triplets = append(triplets, ts...)
		matureKeys = append(matureKeys, append([]byte{}, it.Key()...))
	}
	it.Close()

	for _, key := range matureKeys {
		k.store(ctx).Delete(key)
	}
	for _, t := range triplets {
		red, found := k.GetRedelegation(ctx, t.DelegatorAddress, t.ValidatorSrcAddress, t.ValidatorDstAddress)
		if !found {
			continue
		}
		red.RemoveMatureEntries(blockTime)
		k.SetRedelegation(ctx, red)
	}
}

// UnbondAllMatureValidators transitions every validator whose unbonding
// period matured by the current block time from Unbonding to Unbonded,
// completing the bond-status lifecycle begun by ApplyAndReturnValidatorSetUpdates.
func (k Keeper) UnbondAllMatureValidators(ctx sdk.Context) {
	blockTime := ctx.BlockTime()
	prefix := types.ValidatorQueueKey
	end := append(append([]byte{}, types.ValidatorQueueKeyFor(blockTime)...), 0xff)
	it := k.store(ctx).Iterator(prefix, end)
	var matureKeys [][]byte
	var operators [][]byte
	for ; it.Valid(); it.Next() {
		var addrs [][]byte
		if err := json.Unmarshal(it.Value(), &addrs); err != nil {
			panic(err)
		}
		operators = append(operators, addrs...)
		matureKeys = append(matureKeys, append([]byte{}, it.Key()...))
	}
	it.Close()

	for _, key := range matureKeys {
		k.store(ctx).Delete(key)
	}
	for _, addr := range operators {
		v, found := k.GetValidator(ctx, addr)
		if !found || v.Status != types.Unbonding {
			continue
		}
		if !v.UnbondingTime.After(blockTime) {
			v.UpdateStatus(types.Unbonded)
			if v.DelegatorShares.IsZero() {
				k.RemoveValidator(ctx, v)
				continue
			}
			k.SetValidator(ctx, v)
		}
	}
}
