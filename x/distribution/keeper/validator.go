package keeper

import (
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/distribution/types"
)

// initializeValidator sets up the period bookkeeping for a freshly
// created validator: historical period 0 closes empty (referenced once by
// the period machinery itself), current rewards open under period 1, and
// commission/outstanding start at zero.
func (k Keeper) initializeValidator(ctx sdk.Context, valAddr []byte) {
	k.SetValidatorHistoricalRewards(ctx, valAddr, 0, types.ValidatorHistoricalRewards{ReferenceCount: 1})
	k.SetValidatorCurrentRewards(ctx, valAddr, types.ValidatorCurrentRewards{Period: 1})
	k.SetValidatorAccumulatedCommission(ctx, valAddr, nil)
	k.SetValidatorOutstandingRewards(ctx, valAddr, nil)
}

// IncrementValidatorPeriod closes the validator's current reward period:
// the period's per-share ratio is folded into the cumulative ratio under
// the closing period's index, current rewards reset under the next index,
// and the closed period's index is returned. Called before every
// stake-changing action.
func (k Keeper) IncrementValidatorPeriod(ctx sdk.Context, valAddr []byte) uint64 {
	validator, found := k.stakingKeeper.GetValidator(ctx, valAddr)
	rewards, haveRewards := k.GetValidatorCurrentRewards(ctx, valAddr)
	if !haveRewards {
		// a validator that predates distribution bookkeeping (e.g. genesis
		// import) is initialized lazily on first touch.
		k.initializeValidator(ctx, valAddr)
		rewards, _ = k.GetValidatorCurrentRewards(ctx, valAddr)
	}

	var ratio sdk.DecCoins
	if !found || validator.Tokens.IsZero() {
		// no stake to attribute the pending rewards to; sweep them into the
		// community pool so they are never stranded.
		if !rewards.Rewards.IsZero() {
			pool := k.GetFeePool(ctx)
			pool.CommunityPool = pool.CommunityPool.Add(rewards.Rewards)
			k.SetFeePool(ctx, pool)
			outstanding := k.GetValidatorOutstandingRewards(ctx, valAddr)
			k.SetValidatorOutstandingRewards(ctx, valAddr, outstanding.Sub(rewards.Rewards))
		}
	} else {
		ratio = rewards.Rewards.QuoDec(sdk.NewDecFromInt(validator.Tokens))
	}

	historical := k.GetValidatorHistoricalRewards(ctx, valAddr, rewards.Period-1)
	k.decrementReferenceCount(ctx, valAddr, rewards.Period-1)

	k.SetValidatorHistoricalRewards(ctx, valAddr, rewards.Period, types.ValidatorHistoricalRewards{
		CumulativeRewardRatio: historical.CumulativeRewardRatio.Add(ratio),
		ReferenceCount:        1,
	})
	k.SetValidatorCurrentRewards(ctx, valAddr, types.ValidatorCurrentRewards{Period: rewards.Period + 1})
	return rewards.Period
}

// incrementReferenceCount marks one more delegation or slash event
// depending on the cumulative ratio stored under period.
func (k Keeper) incrementReferenceCount(ctx sdk.Context, valAddr []byte, period uint64) {
	historical := k.GetValidatorHistoricalRewards(ctx, valAddr, period)
	if historical.ReferenceCount > 2 {
		panic("distribution: reference count should never exceed 2")
	}
	historical.ReferenceCount++
	k.SetValidatorHistoricalRewards(ctx, valAddr, period, historical)
}

// decrementReferenceCount releases one reference, pruning the period's
// record once nothing points at it.
func (k Keeper) decrementReferenceCount(ctx sdk.Context, valAddr []byte, period uint64) {
	historical := k.GetValidatorHistoricalRewards(ctx, valAddr, period)
	if historical.ReferenceCount == 0 {
		panic("distribution: cannot decrement zero reference count")
	}
	historical.ReferenceCount--
	if historical.ReferenceCount == 0 {
		k.DeleteValidatorHistoricalRewards(ctx, valAddr, period)
		return
	}
	k.SetValidatorHistoricalRewards(ctx, valAddr, period, historical)
}

// updateValidatorSlashFraction closes the current period and records a
// slash event under it, so reward calculation can bracket any delegation
// whose accrual spans the slash.
func (k Keeper) updateValidatorSlashFraction(ctx sdk.Context, valAddr []byte, fraction sdk.Dec) {
	if fraction.IsZero() {
		return
	}
	period := k.IncrementValidatorPeriod(ctx, valAddr)
	k.incrementReferenceCount(ctx, valAddr, period)
	k.SetValidatorSlashEvent(ctx, valAddr, uint64(ctx.BlockHeight()), types.ValidatorSlashEvent{
		ValidatorPeriod: period,
		Fraction:        fraction,
	})
}

// removeValidator tears down a deleted validator's bookkeeping, flushing
// outstanding rewards and accumulated commission into the community pool
// since no delegation remains to claim them.
func (k Keeper) removeValidator(ctx sdk.Context, valAddr []byte) {
	pool := k.GetFeePool(ctx)
	if outstanding := k.GetValidatorOutstandingRewards(ctx, valAddr); !outstanding.IsZero() {
		pool.CommunityPool = pool.CommunityPool.Add(outstanding)
	}
	if commission := k.GetValidatorAccumulatedCommission(ctx, valAddr); !commission.IsZero() {
		pool.CommunityPool = pool.CommunityPool.Add(commission)
	}
	k.SetFeePool(ctx, pool)

	k.DeleteValidatorSlashEvents(ctx, valAddr)
	prefix := types.ValidatorHistoricalRewardsPrefix(valAddr)
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	var keys [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte{}, it.Key()...))
	}
	it.Close()
	for _, key := range keys {
		k.store(ctx).Delete(key)
	}
	k.store(ctx).Delete(types.ValidatorCurrentRewardsKeyFor(valAddr))
	k.store(ctx).Delete(types.ValidatorAccumulatedCommissionKeyFor(valAddr))
	k.store(ctx).Delete(types.ValidatorOutstandingRewardsKeyFor(valAddr))
}
