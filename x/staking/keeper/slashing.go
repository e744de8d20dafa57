package keeper

import (
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/staking/types"
)

// Slash reduces a validator's Tokens by slashFactor of its power at
// infractionHeight, burning the slashed tokens from whichever pool
// currently holds them, and claws back a proportional share of any
// redelegation whose creation height is at or after infractionHeight -
// the mechanism that prevents a delegator from dodging a slash by
// redelegating away after the infraction but before it is detected.
func (k Keeper) Slash(ctx sdk.Context, consAddr []byte, infractionHeight int64, power int64, slashFactor sdk.Dec) sdk.Int {
	v, found := k.getValidatorByConsAddr(ctx, consAddr)
	if !found {
		return sdk.ZeroInt()
	}

	if k.hooks != nil {
		k.hooks.BeforeValidatorSlashed(ctx, v.OperatorAddress, slashFactor)
	}

	slashAmountDec := sdk.NewDecFromInt(sdk.NewInt(power * types.PowerReduction)).Mul(slashFactor)
	slashAmount := slashAmountDec.TruncateInt()

	remaining := slashAmount
	remaining = k.slashRedelegations(ctx, v, infractionHeight, slashFactor, remaining)

	if remaining.GT(v.Tokens) {
		remaining = v.Tokens
	}
	v.Tokens = v.Tokens.Sub(remaining)
	k.DeleteValidatorByPowerIndex(ctx, v)
	k.SetValidator(ctx, v)
	k.SetValidatorByPowerIndex(ctx, v)

	poolName := notBondedPoolName
	if v.IsBonded() {
		poolName = bondedPoolName
	}
	bondDenom := k.GetParams(ctx).BondDenom
	if !remaining.IsZero() {
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, poolName, banktypesBurnSink, sdk.NewCoins(sdk.NewCoin(bondDenom, remaining))); err != nil {
			panic(err)
		}
	}
	return slashAmount
}

// banktypesBurnSink is the module account slashed tokens are transferred
// to. A real chain would burn them outright; this kernel models burning
// as an irrecoverable sink account rather than adding a supply-tracking
// burn primitive to x/bank.
const banktypesBurnSink = "slashed_tokens_sink"

// slashRedelegations takes slashFactor of the InitialBalance of every
// outstanding redelegation entry created at or after infractionHeight out
// of the destination validator's tokens and burns it from the destination's
// pool (the entries themselves are left unchanged), and returns the portion
// of the slash amount still owed after crediting what was clawed back here.
func (k Keeper) slashRedelegations(ctx sdk.Context, srcValidator types.Validator, infractionHeight int64, slashFactor sdk.Dec, remaining sdk.Int) sdk.Int {
	prefix := types.RedelegationKey
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	var matches []types.Redelegation
	for ; it.Valid(); it.Next() {
		key := it.Key()[len(prefix):]
		delLen := int(key[0])
		delAddr := key[1 : 1+delLen]
		rest := key[1+delLen:]
		srcLen := int(rest[0])
		valSrcAddr := rest[1 : 1+srcLen]
		valDstAddr := rest[1+srcLen:]
		if string(valSrcAddr) != string(srcValidator.OperatorAddress) {
			continue
		}
		red, found := k.GetRedelegation(ctx, delAddr, valSrcAddr, valDstAddr)
		if found {
			matches = append(matches, red)
		}
	}
	it.Close()

	for _, red := range matches {
		for _, entry := range red.Entries {
			if entry.CreationHeight < infractionHeight {
				continue
			}
			slashAmount := sdk.NewDecFromInt(entry.InitialBalance).Mul(slashFactor).TruncateInt()
			if slashAmount.IsZero() {
				continue
			}
			dstValidator, found := k.GetValidator(ctx, red.ValidatorDstAddress)
			if !found {
				continue
			}
			burned := slashAmount
			if burned.GT(dstValidator.Tokens) {
				burned = dstValidator.Tokens
			}
			k.DeleteValidatorByPowerIndex(ctx, dstValidator)
			dstValidator.Tokens = dstValidator.Tokens.Sub(burned)
			k.SetValidator(ctx, dstValidator)
			k.SetValidatorByPowerIndex(ctx, dstValidator)
			dstPool := notBondedPoolName
			if dstValidator.IsBonded() {
				dstPool = bondedPoolName
			}
			if !burned.IsZero() {
				if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, dstPool, banktypesBurnSink, sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).BondDenom, burned))); err != nil {
					panic(err)
				}
			}
			remaining = remaining.Sub(burned)
			if remaining.IsNegative() {
				remaining = sdk.ZeroInt()
			}
		}
	}
	return remaining
}

func (k Keeper) getValidatorByConsAddr(ctx sdk.Context, consAddr []byte) (types.Validator, bool) {
	operatorAddr := k.store(ctx).Get(types.ValidatorByConsAddrKey(consAddr))
	if operatorAddr == nil {
		return types.Validator{}, false
	}
	return k.GetValidator(ctx, operatorAddr)
}

// SetValidatorByConsAddr indexes v by its consensus address, letting the
// slashing path (driven by ABCI evidence, which names a consensus
// address) resolve back to the validator's operator record.
func (k Keeper) SetValidatorByConsAddr(ctx sdk.Context, consAddr []byte, v types.Validator) {
	k.store(ctx).Set(types.ValidatorByConsAddrKey(consAddr), v.OperatorAddress)
}

// Jail marks a validator ineligible for the active set until unjailed. Its
// power-index entry stays in place; the next
// ApplyAndReturnValidatorSetUpdates call skips jailed validators.
func (k Keeper) Jail(ctx sdk.Context, consAddr []byte) {
	v, found := k.getValidatorByConsAddr(ctx, consAddr)
	if !found {
		return
	}
	v.Jailed = true
	k.SetValidator(ctx, v)
}

func (k Keeper) Unjail(ctx sdk.Context, consAddr []byte) {
	v, found := k.getValidatorByConsAddr(ctx, consAddr)
	if !found {
		return
	}
	v.Jailed = false
	k.SetValidator(ctx, v)
}
