package keeper

import (
	"github.com/chainkit/corechain/crypto/bech32"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	banktypes "github.com/chainkit/corechain/x/bank/types"
)

// HandleMsgSend executes a MsgSend: both addresses decode from bech32,
// and the transfer fails atomically on insufficient funds.
func (k Keeper) HandleMsgSend(ctx sdk.Context, msg banktypes.MsgSend) (sdk.Result, error) {
	_, from, err := bech32.DecodeToBytes(msg.FromAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid from address: %s", err)
	}
	_, to, err := bech32.DecodeToBytes(msg.ToAddress)
	if err != nil {
		return sdk.Result{}, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid to address: %s", err)
	}
	if err := k.SendCoins(ctx, from, to, msg.Amount); err != nil {
		return sdk.Result{}, err
	}
	return sdk.Result{}, nil
}

// GenesisBalance is one address's opening balance in the bank module's
// genesis slice.
type GenesisBalance struct {
	Address []byte
	Coins   sdk.Coins
}

// InitGenesis credits every genesis balance.
func (k Keeper) InitGenesis(ctx sdk.Context, balances []GenesisBalance) {
	for _, b := range balances {
		k.AddCoins(ctx, b.Address, b.Coins)
	}
}
