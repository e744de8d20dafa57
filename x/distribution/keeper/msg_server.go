package keeper

import (
	"github.com/chainkit/corechain/crypto/bech32"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/distribution/types"
)

// HandleMsgWithdrawDelegatorReward routes the withdraw-reward message.
func (k Keeper) HandleMsgWithdrawDelegatorReward(ctx sdk.Context, msg types.MsgWithdrawDelegatorReward) (sdk.Result, error) {
	delAddr, err := decodeBech32(msg.DelegatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid delegator address: %s", err)
	}
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	coins, err := k.WithdrawDelegationRewards(ctx, valAddr, delAddr)
	if err != nil {
		return sdk.Result{}, err
	}
	return sdk.Result{Log: "withdrawn " + coins.String()}, nil
}

// HandleMsgWithdrawValidatorCommission routes the withdraw-commission
// message.
func (k Keeper) HandleMsgWithdrawValidatorCommission(ctx sdk.Context, msg types.MsgWithdrawValidatorCommission) (sdk.Result, error) {
	valAddr, err := decodeBech32(msg.ValidatorAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
	}
	coins, err := k.WithdrawValidatorCommission(ctx, valAddr)
	if err != nil {
		return sdk.Result{}, err
	}
	return sdk.Result{Log: "withdrawn " + coins.String()}, nil
}

func decodeBech32(addr string) ([]byte, error) {
	_, raw, err := bech32.DecodeToBytes(addr)
	return raw, err
}

// InitGenesis seeds the module's parameter set and an empty fee pool.
func (k Keeper) InitGenesis(ctx sdk.Context, params types.Params) {
	k.SetParams(ctx, params)
	k.SetFeePool(ctx, types.FeePool{})
}

// BeginBlocker runs the per-block fee allocation, before any of the
// block's transactions execute.
func (k Keeper) BeginBlocker(ctx sdk.Context) {
	k.AllocateTokens(ctx)
}
