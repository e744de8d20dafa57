package keeper

import (
	sdk "github.com/chainkit/corechain/types"
	banktypes "github.com/chainkit/corechain/x/bank/types"

	log "github.com/sirupsen/logrus"
)

// AllocateTokens distributes the previous block's collected fees at the
// start of each block: the community tax is skimmed into the fee pool,
// and the remainder is split across the previous block's bonded
// validators proportional to their recorded consensus power, each
// validator taking its commission cut off the top of its share.
func (k Keeper) AllocateTokens(ctx sdk.Context) {
	collectorAddr := banktypes.NewModuleAddress(k.feeCollectorName)
	feesCollected := k.bankKeeper.GetAllBalances(ctx, collectorAddr)
	if feesCollected.IsZero() {
		return
	}
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, k.feeCollectorName, banktypes.DistrModuleName, feesCollected); err != nil {
		log.WithError(err).Error("distribution: failed to sweep fee collector")
		return
	}
	feesDec := sdk.NewDecCoinsFromCoins(feesCollected)

	totalPower := k.stakingKeeper.GetLastTotalPower(ctx)
	if totalPower.IsZero() {
		// no bonded validators recorded yet (first blocks after genesis);
		// everything goes to the community pool.
		pool := k.GetFeePool(ctx)
		pool.CommunityPool = pool.CommunityPool.Add(feesDec)
		k.SetFeePool(ctx, pool)
		return
	}

	communityTax := k.GetParams(ctx).CommunityTax
	voteMultiplier := sdk.OneDec().Sub(communityTax)
	remaining := feesDec

	k.stakingKeeper.IterateLastValidatorPowers(ctx, func(operatorAddr []byte, power int64) bool {
		powerFraction := sdk.NewDecFromInt(sdk.NewInt(power)).Quo(sdk.NewDecFromInt(totalPower))
		reward := feesDec.MulDec(voteMultiplier).MulDec(powerFraction)
		k.AllocateTokensToValidator(ctx, operatorAddr, reward)
		remaining = remaining.Sub(reward)
		return false
	})

	// community tax plus every per-validator truncation leftover.
	pool := k.GetFeePool(ctx)
	pool.CommunityPool = pool.CommunityPool.Add(remaining)
	k.SetFeePool(ctx, pool)
}

// AllocateTokensToValidator credits one validator's share of a block's
// rewards: commission to the operator's accumulated commission, the rest
// to the current period's reward accumulator.
func (k Keeper) AllocateTokensToValidator(ctx sdk.Context, valAddr []byte, tokens sdk.DecCoins) {
	validator, found := k.stakingKeeper.GetValidator(ctx, valAddr)
	if !found {
		return
	}
	commission := tokens.MulDec(validator.Commission.Rate)
	shared := tokens.Sub(commission)

	if !commission.IsZero() {
		accumulated := k.GetValidatorAccumulatedCommission(ctx, valAddr)
		k.SetValidatorAccumulatedCommission(ctx, valAddr, accumulated.Add(commission))
	}

	current, ok := k.GetValidatorCurrentRewards(ctx, valAddr)
	if !ok {
		k.initializeValidator(ctx, valAddr)
		current, _ = k.GetValidatorCurrentRewards(ctx, valAddr)
	}
	current.Rewards = current.Rewards.Add(shared)
	k.SetValidatorCurrentRewards(ctx, valAddr, current)

	outstanding := k.GetValidatorOutstandingRewards(ctx, valAddr)
	k.SetValidatorOutstandingRewards(ctx, valAddr, outstanding.Add(tokens))
}
