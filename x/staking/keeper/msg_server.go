package keeper

import (
	"github.com/chainkit/corechain/crypto/bech32"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/staking/types"

	log "github.com/sirupsen/logrus"
)

func decodeBech32(addr string) ([]byte, error) {
	_, raw, err := bech32.DecodeToBytes(addr)
	return raw, err
}

// HandleMsgCreateValidator registers a new validator and performs its
// initial self-delegation. The validator is created Unbonded and bonds
// at the next end-of-block recomputation if it makes the top N.
func (k Keeper) HandleMsgCreateValidator(ctx sdk.Context, msg types.MsgCreateValidator) (sdk.Result, error) {
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	delAddr, err := decodeBech32(msg.DelegatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid delegator address: %s", err)
	}
	if _, exists := k.GetValidator(ctx, valAddr); exists {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "validator already exists")
	}
	params := k.GetParams(ctx)
	if msg.Value.Denom != params.BondDenom {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidCoins, "self-delegation denom %s does not match bond denom %s", msg.Value.Denom, params.BondDenom)
	}
	if msg.Value.Amount.LT(msg.MinSelfDelegation) {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "self-delegation below minimum")
	}

	commission := msg.Commission
	commission.UpdateTime = ctx.BlockTime()
	validator := types.NewValidator(valAddr, msg.ConsensusPubKey, msg.Description, commission, msg.MinSelfDelegation)
	k.SetValidator(ctx, validator)
	if consAddr := consAddressFromPubKey(msg.ConsensusPubKey); consAddr != nil {
		k.SetValidatorByConsAddr(ctx, consAddr, validator)
	}
	k.SetValidatorByPowerIndex(ctx, validator)
	if k.hooks != nil {
		k.hooks.AfterValidatorCreated(ctx, valAddr)
	}

	if _, err := k.Delegate(ctx, delAddr, msg.Value.Amount, validator); err != nil {
		return sdk.Result{}, err
	}

	log.WithFields(log.Fields{"validator": msg.ValidatorAddress, "selfDelegation": msg.Value.String()}).Debug("staking: validator created")
	ctx.EventManager().EmitEvent(sdk.NewEvent("create_validator",
		sdk.NewAttribute("validator", msg.ValidatorAddress),
		sdk.NewAttribute("amount", msg.Value.String()),
	))
	return sdk.Result{}, nil
}

// HandleMsgEditValidator applies description and rate changes under the
// commission-update rules.
func (k Keeper) HandleMsgEditValidator(ctx sdk.Context, msg types.MsgEditValidator) (sdk.Result, error) {
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	if _, err := k.EditValidator(ctx, valAddr, msg.Description, msg.CommissionRate); err != nil {
		return sdk.Result{}, err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent("edit_validator",
		sdk.NewAttribute("validator", msg.ValidatorAddress),
	))
	return sdk.Result{}, nil
}

// HandleMsgDelegate bonds msg.Amount to the named validator.
func (k Keeper) HandleMsgDelegate(ctx sdk.Context, msg types.MsgDelegate) (sdk.Result, error) {
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	delAddr, err := decodeBech32(msg.DelegatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid delegator address: %s", err)
	}
	validator, found := k.GetValidator(ctx, valAddr)
	if !found {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "validator not found")
	}
	if msg.Amount.Denom != k.GetParams(ctx).BondDenom {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidCoins, "delegation denom %s does not match bond denom", msg.Amount.Denom)
	}
	if _, err := k.Delegate(ctx, delAddr, msg.Amount.Amount, validator); err != nil {
		return sdk.Result{}, err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent("delegate",
		sdk.NewAttribute("validator", msg.ValidatorAddress),
		sdk.NewAttribute("amount", msg.Amount.String()),
	))
	return sdk.Result{}, nil
}

// HandleMsgUndelegate converts msg.Amount into shares at the validator's
// current rate and begins unbonding them.
func (k Keeper) HandleMsgUndelegate(ctx sdk.Context, msg types.MsgUndelegate) (sdk.Result, error) {
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	delAddr, err := decodeBech32(msg.DelegatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid delegator address: %s", err)
	}
	validator, found := k.GetValidator(ctx, valAddr)
	if !found {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "validator not found")
	}
	shares, err := k.validateUnbondAmount(ctx, delAddr, validator, msg.Amount.Amount)
	if err != nil {
		return sdk.Result{}, err
	}
	completionTime, returned, err := k.Undelegate(ctx, delAddr, validator, shares)
	if err != nil {
		return sdk.Result{}, err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent("unbond",
		sdk.NewAttribute("validator", msg.ValidatorAddress),
		sdk.NewAttribute("amount", returned.String()),
		sdk.NewAttribute("completion_time", completionTime.String()),
	))
	return sdk.Result{}, nil
}

// HandleMsgBeginRedelegate moves msg.Amount of stake between validators.
func (k Keeper) HandleMsgBeginRedelegate(ctx sdk.Context, msg types.MsgBeginRedelegate) (sdk.Result, error) {
	srcAddr, err := decodeBech32(msg.ValidatorSrcAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid source validator address: %s", err)
	}
	dstAddr, err := decodeBech32(msg.ValidatorDstAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid destination validator address: %s", err)
	}
	delAddr, err := decodeBech32(msg.DelegatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid delegator address: %s", err)
	}
	valSrc, found := k.GetValidator(ctx, srcAddr)
	if !found {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "source validator not found")
	}
	valDst, found := k.GetValidator(ctx, dstAddr)
	if !found {
		return sdk.Result{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "destination validator not found")
	}
	shares, err := k.validateUnbondAmount(ctx, delAddr, valSrc, msg.Amount.Amount)
	if err != nil {
		return sdk.Result{}, err
	}
	completionTime, err := k.BeginRedelegation(ctx, delAddr, valSrc, valDst, shares)
	if err != nil {
		return sdk.Result{}, err
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent("redelegate",
		sdk.NewAttribute("source_validator", msg.ValidatorSrcAddress),
		sdk.NewAttribute("destination_validator", msg.ValidatorDstAddress),
		sdk.NewAttribute("amount", msg.Amount.String()),
		sdk.NewAttribute("completion_time", completionTime.String()),
	))
	return sdk.Result{}, nil
}

// validateUnbondAmount converts a token amount into shares against the
// delegator's existing delegation, failing with the canonical "invalid
// shares amount" when the request exceeds what is delegated.
func (k Keeper) validateUnbondAmount(ctx sdk.Context, delAddr []byte, validator types.Validator, amt sdk.Int) (sdk.Dec, error) {
	del, found := k.GetDelegation(ctx, delAddr, validator.OperatorAddress)
	if !found {
		return sdk.Dec{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "no delegation for (delegator, validator) tuple")
	}
	shares := validator.SharesFromTokens(amt)
	if shares.GT(del.Shares) {
		return sdk.Dec{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "invalid shares amount")
	}
	return shares, nil
}

// InitGenesis seeds the staking parameter set; validators enter via
// create_validator transactions.
func (k Keeper) InitGenesis(ctx sdk.Context, params types.Params) {
	k.SetParams(ctx, params)
	k.SetLastTotalPower(ctx, sdk.ZeroInt())
}
