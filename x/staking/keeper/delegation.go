package keeper

import (
	"encoding/json"
	"time"

	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/staking/types"
)

type delegationJSON struct {
	Shares string
}

func (k Keeper) GetDelegation(ctx sdk.Context, delAddr, valAddr []byte) (types.Delegation, bool) {
	bz := k.store(ctx).Get(types.DelegationKeyFor(delAddr, valAddr))
	if bz == nil {
		return types.Delegation{}, false
	}
	var dj delegationJSON
	if err := json.Unmarshal(bz, &dj); err != nil {
		panic(err)
	}
	shares, _ := sdk.NewDecFromString(dj.Shares)
	return types.Delegation{DelegatorAddress: delAddr, ValidatorAddress: valAddr, Shares: shares}, true
}

func (k Keeper) SetDelegation(ctx sdk.Context, d types.Delegation) {
	bz, err := json.Marshal(delegationJSON{Shares: d.Shares.String()})
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.DelegationKeyFor(d.DelegatorAddress, d.ValidatorAddress), bz)
}

func (k Keeper) RemoveDelegation(ctx sdk.Context, delAddr, valAddr []byte) {
	k.store(ctx).Delete(types.DelegationKeyFor(delAddr, valAddr))
}

// GetDelegatorDelegations returns every delegation delAddr currently has
// outstanding, across all validators.
func (k Keeper) GetDelegatorDelegations(ctx sdk.Context, delAddr []byte) []types.Delegation {
	prefix := types.DelegationsByDelegatorPrefix(delAddr)
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	defer it.Close()
	var out []types.Delegation
	for ; it.Valid(); it.Next() {
		valAddr := append([]byte{}, it.Key()[len(prefix):]...)
		var dj delegationJSON
		if err := json.Unmarshal(it.Value(), &dj); err != nil {
			panic(err)
		}
		shares, _ := sdk.NewDecFromString(dj.Shares)
		out = append(out, types.Delegation{DelegatorAddress: delAddr, ValidatorAddress: valAddr, Shares: shares})
	}
	return out
}

// Delegate moves amt tokens from delAddr into the validator's bonded or
// not-bonded pool (by current status) and mints shares at the
// validator's current exchange rate, updating both the delegation record
// and the validator's power index.
func (k Keeper) Delegate(ctx sdk.Context, delAddr []byte, amt sdk.Int, validator types.Validator) (sdk.Dec, error) {
	return k.delegate(ctx, delAddr, amt, validator, "")
}

// delegate is the shared bond path. srcPool names the module pool the
// tokens already sit in ("" means the delegator's own account funds the
// bond); redelegation passes the source validator's pool so stake never
// round-trips through the delegator's spendable balance.
func (k Keeper) delegate(ctx sdk.Context, delAddr []byte, amt sdk.Int, validator types.Validator, srcPool string) (sdk.Dec, error) {
	_, alreadyDelegated := k.GetDelegation(ctx, delAddr, validator.OperatorAddress)
	if k.hooks != nil {
		if alreadyDelegated {
			k.hooks.BeforeDelegationSharesModified(ctx, delAddr, validator.OperatorAddress)
		} else {
			k.hooks.BeforeDelegationCreated(ctx, delAddr, validator.OperatorAddress)
		}
	}

	dstPool := notBondedPoolName
	if validator.IsBonded() {
		dstPool = bondedPoolName
	}
	bondDenom := k.GetParams(ctx).BondDenom
	if srcPool == "" {
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, delAddr, dstPool, sdk.NewCoins(sdk.NewCoin(bondDenom, amt))); err != nil {
			return sdk.Dec{}, err
		}
	} else if srcPool != dstPool {
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, srcPool, dstPool, sdk.NewCoins(sdk.NewCoin(bondDenom, amt))); err != nil {
			return sdk.Dec{}, err
		}
	}

	k.DeleteValidatorByPowerIndex(ctx, validator)
	newShares := validator.AddTokensFromDelegation(amt)
	k.SetValidator(ctx, validator)
	k.SetValidatorByPowerIndex(ctx, validator)

	d, found := k.GetDelegation(ctx, delAddr, validator.OperatorAddress)
	if !found {
		d = types.Delegation{DelegatorAddress: delAddr, ValidatorAddress: validator.OperatorAddress, Shares: sdk.ZeroDec()}
	}
	d.Shares = d.Shares.Add(newShares)
	k.SetDelegation(ctx, d)

	if k.hooks != nil {
		k.hooks.AfterDelegationModified(ctx, delAddr, validator.OperatorAddress)
	}
	return newShares, nil
}

// Undelegate burns shares worth of delegation, queues the released
// tokens for unbonding, and enforces Params.MaxEntries.
func (k Keeper) Undelegate(ctx sdk.Context, delAddr []byte, validator types.Validator, shares sdk.Dec) (time.Time, sdk.Int, error) {
	ubd, found := k.GetUnbondingDelegation(ctx, delAddr, validator.OperatorAddress)
	if found {
		params := k.GetParams(ctx)
		if uint32(len(ubd.Entries)) >= params.MaxEntries {
			return time.Time{}, sdk.Int{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "too many unbonding delegation entries")
		}
	} else {
		ubd = types.UnbondingDelegation{DelegatorAddress: delAddr, ValidatorAddress: validator.OperatorAddress}
	}

	d, found := k.GetDelegation(ctx, delAddr, validator.OperatorAddress)
	if !found {
		return time.Time{}, sdk.Int{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "no delegation for (delegator, validator) tuple")
	}
	if d.Shares.LT(shares) {
		return time.Time{}, sdk.Int{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "invalid shares amount")
	}

	if k.hooks != nil {
		k.hooks.BeforeDelegationSharesModified(ctx, delAddr, validator.OperatorAddress)
	}

	k.DeleteValidatorByPowerIndex(ctx, validator)
	d.Shares = d.Shares.Sub(shares)
	returnAmount := validator.RemoveDelShares(shares)
	k.SetValidator(ctx, validator)
	k.SetValidatorByPowerIndex(ctx, validator)

	if d.Shares.IsZero() {
		k.RemoveDelegation(ctx, delAddr, validator.OperatorAddress)
	} else {
		k.SetDelegation(ctx, d)
	}

	if !validator.IsBonded() {
		// tokens already sit in the not-bonded pool; nothing moves until
		// completion.
	} else {
		bondDenom := k.GetParams(ctx).BondDenom
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, bondedPoolName, notBondedPoolName, sdk.NewCoins(sdk.NewCoin(bondDenom, returnAmount))); err != nil {
			return time.Time{}, sdk.Int{}, err
		}
	}

	completionTime := ctx.BlockTime().Add(k.GetParams(ctx).UnbondingTime)
	ubd.AddEntry(ctx.BlockHeight(), completionTime, returnAmount)
	k.SetUnbondingDelegation(ctx, ubd)
	k.InsertUnbondingQueue(ctx, ubd, completionTime)

	if k.hooks != nil {
		k.hooks.AfterDelegationModified(ctx, delAddr, validator.OperatorAddress)
	}
	return completionTime, returnAmount, nil
}

// --- unbonding delegation storage ---

type ubdEntryJSON struct {
	CreationHeight int64
	CompletionTime int64
	InitialBalance string
	Balance        string
}

type ubdJSON struct {
	Entries []ubdEntryJSON
}

func (k Keeper) GetUnbondingDelegation(ctx sdk.Context, delAddr, valAddr []byte) (types.UnbondingDelegation, bool) {
	bz := k.store(ctx).Get(types.UnbondingDelegationKeyFor(delAddr, valAddr))
	if bz == nil {
		return types.UnbondingDelegation{}, false
	}
	var uj ubdJSON
	if err := json.Unmarshal(bz, &uj); err != nil {
		panic(err)
	}
	ubd := types.UnbondingDelegation{DelegatorAddress: delAddr, ValidatorAddress: valAddr}
	for _, e := range uj.Entries {
		initial, _ := sdk.NewIntFromString(e.InitialBalance)
		bal, _ := sdk.NewIntFromString(e.Balance)
		ubd.Entries = append(ubd.Entries, types.UnbondingDelegationEntry{
			CreationHeight: e.CreationHeight,
			CompletionTime: time.Unix(0, e.CompletionTime).UTC(),
			InitialBalance: initial,
			Balance:        bal,
		})
	}
	return ubd, true
}

func (k Keeper) SetUnbondingDelegation(ctx sdk.Context, ubd types.UnbondingDelegation) {
	if len(ubd.Entries) == 0 {
		k.store(ctx).Delete(types.UnbondingDelegationKeyFor(ubd.DelegatorAddress, ubd.ValidatorAddress))
		return
	}
	var uj ubdJSON
	for _, e := range ubd.Entries {
		uj.Entries = append(uj.Entries, ubdEntryJSON{
			CreationHeight: e.CreationHeight,
			CompletionTime: e.CompletionTime.UnixNano(),
			InitialBalance: e.InitialBalance.String(),
			Balance:        e.Balance.String(),
		})
	}
	bz, err := json.Marshal(uj)
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.UnbondingDelegationKeyFor(ubd.DelegatorAddress, ubd.ValidatorAddress), bz)
}

// --- redelegation storage ---

type redEntryJSON struct {
	CreationHeight int64
	CompletionTime int64
	InitialBalance string
	SharesDst      string
}

type redJSON struct {
	Entries []redEntryJSON
}

func (k Keeper) GetRedelegation(ctx sdk.Context, delAddr, valSrcAddr, valDstAddr []byte) (types.Redelegation, bool) {
	bz := k.store(ctx).Get(types.RedelegationKeyFor(delAddr, valSrcAddr, valDstAddr))
	if bz == nil {
		return types.Redelegation{}, false
	}
	var rj redJSON
	if err := json.Unmarshal(bz, &rj); err != nil {
		panic(err)
	}
	red := types.Redelegation{DelegatorAddress: delAddr, ValidatorSrcAddress: valSrcAddr, ValidatorDstAddress: valDstAddr}
	for _, e := range rj.Entries {
		initial, _ := sdk.NewIntFromString(e.InitialBalance)
		sharesDst, _ := sdk.NewDecFromString(e.SharesDst)
		red.Entries = append(red.Entries, types.RedelegationEntry{
			CreationHeight: e.CreationHeight,
			CompletionTime: time.Unix(0, e.CompletionTime).UTC(),
			InitialBalance: initial,
			SharesDst:      sharesDst,
		})
	}
	return red, true
}

func (k Keeper) SetRedelegation(ctx sdk.Context, red types.Redelegation) {
	if len(red.Entries) == 0 {
		k.store(ctx).Delete(types.RedelegationKeyFor(red.DelegatorAddress, red.ValidatorSrcAddress, red.ValidatorDstAddress))
		return
	}
	var rj redJSON
	for _, e := range red.Entries {
		rj.Entries = append(rj.Entries, redEntryJSON{
			CreationHeight: e.CreationHeight,
			CompletionTime: e.CompletionTime.UnixNano(),
			InitialBalance: e.InitialBalance.String(),
			SharesDst:      e.SharesDst.String(),
		})
	}
	bz, err := json.Marshal(rj)
	if err != nil {
		panic(err)
	}
	k.store(ctx).Set(types.RedelegationKeyFor(red.DelegatorAddress, red.ValidatorSrcAddress, red.ValidatorDstAddress), bz)
}

// BeginRedelegation moves shares worth of stake from valSrc to valDst
// without passing through the unbonding queue's liquidity lockup,
// subject to the same Params.MaxEntries cap as undelegation.
func (k Keeper) BeginRedelegation(ctx sdk.Context, delAddr []byte, valSrc, valDst types.Validator, shares sdk.Dec) (time.Time, error) {
	red, found := k.GetRedelegation(ctx, delAddr, valSrc.OperatorAddress, valDst.OperatorAddress)
	if found {
		params := k.GetParams(ctx)
		if uint32(len(red.Entries)) >= params.MaxEntries {
			return time.Time{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "too many redelegation entries")
		}
	} else {
		red = types.Redelegation{DelegatorAddress: delAddr, ValidatorSrcAddress: valSrc.OperatorAddress, ValidatorDstAddress: valDst.OperatorAddress}
	}

	srcDelegation, found := k.GetDelegation(ctx, delAddr, valSrc.OperatorAddress)
	if !found || srcDelegation.Shares.LT(shares) {
		return time.Time{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "invalid shares amount")
	}

	if k.hooks != nil {
		k.hooks.BeforeDelegationSharesModified(ctx, delAddr, valSrc.OperatorAddress)
	}

	k.DeleteValidatorByPowerIndex(ctx, valSrc)
	srcDelegation.Shares = srcDelegation.Shares.Sub(shares)
	returnAmount := valSrc.RemoveDelShares(shares)
	k.SetValidator(ctx, valSrc)
	k.SetValidatorByPowerIndex(ctx, valSrc)
	if srcDelegation.Shares.IsZero() {
		k.RemoveDelegation(ctx, delAddr, valSrc.OperatorAddress)
	} else {
		k.SetDelegation(ctx, srcDelegation)
	}

	if k.hooks != nil {
		k.hooks.AfterDelegationModified(ctx, delAddr, valSrc.OperatorAddress)
	}

	srcPool := notBondedPoolName
	if valSrc.IsBonded() {
		srcPool = bondedPoolName
	}
	sharesDst, err := k.delegate(ctx, delAddr, returnAmount, valDst, srcPool)
	if err != nil {
		return time.Time{}, err
	}

	completionTime := ctx.BlockTime().Add(k.GetParams(ctx).UnbondingTime)
	red.AddEntry(ctx.BlockHeight(), completionTime, returnAmount, sharesDst)
	k.SetRedelegation(ctx, red)
	k.InsertRedelegationQueue(ctx, red, completionTime)
	return completionTime, nil
}
