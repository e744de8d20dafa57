package keeper

import (
	banktypes "github.com/chainkit/corechain/x/bank/types"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/distribution/types"
)

// initializeDelegation records a delegation's starting info after its
// shares changed: the period just closed, the delegation's token-value
// stake at the new exchange rate, and the creation height.
func (k Keeper) initializeDelegation(ctx sdk.Context, valAddr, delAddr []byte) {
	rewards, ok := k.GetValidatorCurrentRewards(ctx, valAddr)
	if !ok {
		k.initializeValidator(ctx, valAddr)
		rewards, _ = k.GetValidatorCurrentRewards(ctx, valAddr)
	}
	delegation, found := k.stakingKeeper.GetDelegation(ctx, delAddr, valAddr)
	if !found {
		// the share change removed the delegation entirely; there is
		// nothing left to accrue for.
		return
	}
	previousPeriod := rewards.Period - 1
	k.incrementReferenceCount(ctx, valAddr, previousPeriod)

	validator, _ := k.stakingKeeper.GetValidator(ctx, valAddr)
	stake := validator.TokensFromSharesDec(delegation.Shares)
	k.SetDelegatorStartingInfo(ctx, valAddr, delAddr, types.DelegatorStartingInfo{
		PreviousPeriod: previousPeriod,
		Stake:          stake,
		Height:         uint64(ctx.BlockHeight()),
	})
}

// calculateDelegationRewardsBetween accrues stake's rewards over
// (startingPeriod, endingPeriod]: the difference of cumulative per-share
// ratios times the stake held across that span.
func (k Keeper) calculateDelegationRewardsBetween(ctx sdk.Context, valAddr []byte,
	startingPeriod, endingPeriod uint64, stake sdk.Dec) sdk.DecCoins {
	if startingPeriod > endingPeriod {
		panic("distribution: starting period after ending period")
	}
	if stake.IsNegative() {
		panic("distribution: negative stake")
	}
	starting := k.GetValidatorHistoricalRewards(ctx, valAddr, startingPeriod)
	ending := k.GetValidatorHistoricalRewards(ctx, valAddr, endingPeriod)
	difference := ending.CumulativeRewardRatio.Sub(starting.CumulativeRewardRatio)
	return difference.MulDec(stake)
}

// CalculateDelegationRewards sums a delegation's accrued rewards over
// [starting period, endingPeriod], slicing the span at every slash event
// and scaling the bracketed stake down by each slash fraction in turn.
func (k Keeper) CalculateDelegationRewards(ctx sdk.Context, valAddr, delAddr []byte, endingPeriod uint64) sdk.DecCoins {
	startingInfo, found := k.GetDelegatorStartingInfo(ctx, valAddr, delAddr)
	if !found {
		return nil
	}

	rewards := sdk.DecCoins{}
	startingPeriod := startingInfo.PreviousPeriod
	stake := startingInfo.Stake

	startingHeight := startingInfo.Height
	endingHeight := uint64(ctx.BlockHeight())
	if endingHeight > startingHeight {
		k.IterateValidatorSlashEventsBetween(ctx, valAddr, startingHeight, endingHeight,
			func(height uint64, event types.ValidatorSlashEvent) bool {
				if event.ValidatorPeriod > startingPeriod {
					rewards = rewards.Add(k.calculateDelegationRewardsBetween(ctx, valAddr, startingPeriod, event.ValidatorPeriod, stake))
					stake = stake.Mul(sdk.OneDec().Sub(event.Fraction))
					startingPeriod = event.ValidatorPeriod
				}
				return false
			})
	}

	// the recorded stake can exceed the delegation's current token value
	// by a rounding hair after repeated slashes; cap it so the final
	// bracket never over-credits.
	validator, _ := k.stakingKeeper.GetValidator(ctx, valAddr)
	delegation, delFound := k.stakingKeeper.GetDelegation(ctx, delAddr, valAddr)
	if delFound {
		currentStake := validator.TokensFromSharesDec(delegation.Shares)
		if stake.GT(currentStake) {
			stake = currentStake
		}
	}

	rewards = rewards.Add(k.calculateDelegationRewardsBetween(ctx, valAddr, startingPeriod, endingPeriod, stake))
	return rewards
}

// withdrawDelegationRewards pays out a delegation's full accrued rewards:
// truncated whole tokens go to the delegator from the distribution module
// account, the fractional remainder to the community pool, and the
// starting info is released (to be re-recorded if the delegation
// continues).
func (k Keeper) withdrawDelegationRewards(ctx sdk.Context, valAddr, delAddr []byte) (sdk.Coins, error) {
	startingInfo, found := k.GetDelegatorStartingInfo(ctx, valAddr, delAddr)
	if !found {
		return nil, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "no delegation distribution info")
	}

	endingPeriod := k.IncrementValidatorPeriod(ctx, valAddr)
	rewardsRaw := k.CalculateDelegationRewards(ctx, valAddr, delAddr, endingPeriod)

	outstanding := k.GetValidatorOutstandingRewards(ctx, valAddr)
	rewards := rewardsRaw
	for _, c := range rewardsRaw {
		if c.Amount.GT(outstanding.AmountOf(c.Denom)) {
			// defense against paying more than the validator's outstanding
			// pool holds; truncation drift only ever errs the other way.
			rewards = nil
			for _, rc := range rewardsRaw {
				capped := rc.Amount
				if avail := outstanding.AmountOf(rc.Denom); capped.GT(avail) {
					capped = avail
				}
				rewards = append(rewards, sdk.DecCoin{Denom: rc.Denom, Amount: capped})
			}
			break
		}
	}

	coins, remainder := rewards.TruncateDecimal()
	if !coins.IsZero() {
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, banktypes.DistrModuleName, delAddr, coins); err != nil {
			return nil, err
		}
	}

	k.SetValidatorOutstandingRewards(ctx, valAddr, outstanding.Sub(rewards))
	if !remainder.IsZero() {
		pool := k.GetFeePool(ctx)
		pool.CommunityPool = pool.CommunityPool.Add(remainder)
		k.SetFeePool(ctx, pool)
	}

	k.decrementReferenceCount(ctx, valAddr, startingInfo.PreviousPeriod)
	k.DeleteDelegatorStartingInfo(ctx, valAddr, delAddr)

	ctx.EventManager().EmitEvent(sdk.NewEvent("withdraw_rewards",
		sdk.NewAttribute("validator", string(valAddr)),
		sdk.NewAttribute("amount", coins.String()),
	))
	return coins, nil
}

// WithdrawDelegationRewards is the message-server entry: withdraw, then
// immediately re-open the delegation's accrual from the current period.
func (k Keeper) WithdrawDelegationRewards(ctx sdk.Context, valAddr, delAddr []byte) (sdk.Coins, error) {
	coins, err := k.withdrawDelegationRewards(ctx, valAddr, delAddr)
	if err != nil {
		return nil, err
	}
	if _, stillDelegated := k.stakingKeeper.GetDelegation(ctx, delAddr, valAddr); stillDelegated {
		k.initializeDelegation(ctx, valAddr, delAddr)
	}
	return coins, nil
}

// WithdrawValidatorCommission pays the operator its accumulated
// commission, truncated, leaving the fractional part accumulated.
func (k Keeper) WithdrawValidatorCommission(ctx sdk.Context, valAddr []byte) (sdk.Coins, error) {
	commission := k.GetValidatorAccumulatedCommission(ctx, valAddr)
	if commission.IsZero() {
		return nil, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "no commission to withdraw")
	}
	coins, remainder := commission.TruncateDecimal()
	k.SetValidatorAccumulatedCommission(ctx, valAddr, remainder)

	if !coins.IsZero() {
		outstanding := k.GetValidatorOutstandingRewards(ctx, valAddr)
		k.SetValidatorOutstandingRewards(ctx, valAddr, outstanding.Sub(sdk.NewDecCoinsFromCoins(coins)))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, banktypes.DistrModuleName, valAddr, coins); err != nil {
			return nil, err
		}
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent("withdraw_commission",
		sdk.NewAttribute("amount", coins.String()),
	))
	return coins, nil
}
