package keeper

import (
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/staking/types"
)

// ValidatorUpdate is a consensus-power change the driver must pass to the
// consensus engine via EndBlock's validator_updates field.
type ValidatorUpdate struct {
	ConsensusPubKey []byte
	Power           int64 // 0 removes the validator from the active set
}

// ApplyAndReturnValidatorSetUpdates recomputes the bonded validator set
// for this block: the top MaxValidators validators by consensus power are
// bonded (minting ValidatorUpdates for any that changed power or newly
// entered), and every previously-bonded validator that fell out of the
// top N begins unbonding. The bonded/not-bonded pool transfer is netted
// into at most one move rather than one per validator. Last-power records
// and the last total power are written only when their value changes.
func (k Keeper) ApplyAndReturnValidatorSetUpdates(ctx sdk.Context) []ValidatorUpdate {
	params := k.GetParams(ctx)
	maxValidators := int(params.MaxValidators)

	last := k.lastValidatorsByAddr(ctx)
	var updates []ValidatorUpdate

	amtFromNotBondedToBonded := sdk.ZeroInt()
	amtFromBondedToNotBonded := sdk.ZeroInt()

	totalPower := sdk.ZeroInt()
	count := 0
	k.IterateValidatorsByPower(ctx, func(v types.Validator) bool {
		if count >= maxValidators {
			return true
		}
		if v.Jailed {
			return false
		}
		newPower := v.ConsensusPower()
		if newPower == 0 {
			// the power index descends, so everything past here rounds to
			// zero consensus power and can never enter the active set.
			return true
		}
		count++

		oldPower, wasBonded := last[string(v.OperatorAddress)]
		delete(last, string(v.OperatorAddress))

		switch v.Status {
		case types.Unbonded:
			amtFromNotBondedToBonded = amtFromNotBondedToBonded.Add(v.Tokens)
			v.UpdateStatus(types.Bonded)
			k.SetValidator(ctx, v)
		case types.Unbonding:
			amtFromNotBondedToBonded = amtFromNotBondedToBonded.Add(v.Tokens)
			v.UpdateStatus(types.Bonded)
			k.SetValidator(ctx, v)
		}

		if !wasBonded || oldPower != newPower {
			updates = append(updates, ValidatorUpdate{ConsensusPubKey: v.ConsensusPubKey, Power: newPower})
			k.SetLastValidatorPower(ctx, v.OperatorAddress, newPower)
		}

		totalPower = totalPower.Add(sdk.NewInt(newPower))
		return false
	})

	// every validator still in `last` was bonded before this block but did
	// not make the cut this time; begin unbonding and zero out the
	// ValidatorUpdate to signal removal to the consensus engine.
	for addrStr := range last {
		addr := []byte(addrStr)
		v, found := k.GetValidator(ctx, addr)
		if !found {
			continue
		}
		amtFromBondedToNotBonded = amtFromBondedToNotBonded.Add(v.Tokens)
		v.UpdateStatus(types.Unbonding)
		v.UnbondingHeight = ctx.BlockHeight()
		v.UnbondingTime = ctx.BlockTime().Add(params.UnbondingTime)
		k.SetValidator(ctx, v)
		k.InsertValidatorQueue(ctx, v.OperatorAddress, v.UnbondingTime)
		k.DeleteLastValidatorPower(ctx, addr)
		updates = append(updates, ValidatorUpdate{ConsensusPubKey: v.ConsensusPubKey, Power: 0})
	}

	k.netPoolTransfer(ctx, amtFromNotBondedToBonded, amtFromBondedToNotBonded)
	if !k.GetLastTotalPower(ctx).Equal(totalPower) {
		k.SetLastTotalPower(ctx, totalPower)
	}
	bondedValidatorsGauge.Set(float64(count))
	lastTotalPowerGauge.Set(float64(totalPower.Int64()))
	return updates
}

// lastValidatorsByAddr snapshots the previous block's bonded-power index
// as operatorAddr -> power, so this block's recomputation can tell which
// validators are new entrants, unchanged, or dropped.
func (k Keeper) lastValidatorsByAddr(ctx sdk.Context) map[string]int64 {
	out := map[string]int64{}
	prefix := types.LastValidatorPowerKey
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		addr := it.Key()[len(prefix):]
		power, _ := k.GetLastValidatorPower(ctx, addr)
		out[string(addr)] = power
	}
	return out
}

// IterateLastValidatorPowers walks the previous block's bonded-power
// records, the per-validator weights distribution allocates block rewards
// by.
func (k Keeper) IterateLastValidatorPowers(ctx sdk.Context, fn func(operatorAddr []byte, power int64) (stop bool)) {
	prefix := types.LastValidatorPowerKey
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		addr := append([]byte{}, it.Key()[len(prefix):]...)
		power, _ := k.GetLastValidatorPower(ctx, addr)
		if fn(addr, power) {
			return
		}
	}
}

// netPoolTransfer moves only the difference between the two pool flows
// this block produced, avoiding two offsetting transfers when validators
// move in both directions within a single block. A pool that cannot
// cover its side of the flow means bonded-token accounting is already
// corrupt, so failure here aborts the process.
func (k Keeper) netPoolTransfer(ctx sdk.Context, toBonded, toNotBonded sdk.Int) {
	bondDenom := k.GetParams(ctx).BondDenom
	if toBonded.GT(toNotBonded) {
		diff := toBonded.Sub(toNotBonded)
		if !diff.IsZero() {
			if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, notBondedPoolName, bondedPoolName, sdk.NewCoins(sdk.NewCoin(bondDenom, diff))); err != nil {
				panic(err)
			}
		}
	} else if toNotBonded.GT(toBonded) {
		diff := toNotBonded.Sub(toBonded)
		if !diff.IsZero() {
			if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, bondedPoolName, notBondedPoolName, sdk.NewCoins(sdk.NewCoin(bondDenom, diff))); err != nil {
				panic(err)
			}
		}
	}
}

// EndBlocker runs the full end-of-block staking sequence: unbonding
// validator/delegation/redelegation maturation, then validator-set
// recomputation.
func (k Keeper) EndBlocker(ctx sdk.Context) []ValidatorUpdate {
	k.UnbondAllMatureValidators(ctx)
	k.DequeueAllMatureUnbondingDelegations(ctx)
	k.DequeueAllMatureRedelegations(ctx)
	return k.ApplyAndReturnValidatorSetUpdates(ctx)
}
