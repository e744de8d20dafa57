// Package keeper implements x/bank: per-address, per-denom balance
// storage and the coin-moving primitives every other module (AnteHandler
// fee deduction, staking's bonded/not-bonded pool transfers, distribution
// reward payout) calls through rather than touching the store directly.
package keeper

import (
	sdk "github.com/chainkit/corechain/types"
	st "github.com/chainkit/corechain/store/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	banktypes "github.com/chainkit/corechain/x/bank/types"
)

type Keeper struct {
	storeKey st.StoreKey
}

func NewKeeper(storeKey st.StoreKey) Keeper {
	return Keeper{storeKey: storeKey}
}

func (k Keeper) store(ctx sdk.Context) st.KVStore {
	return ctx.KVStore(k.storeKey)
}

// GetBalance returns the stored amount of denom held by addr, zero if
// none is recorded.
func (k Keeper) GetBalance(ctx sdk.Context, addr []byte, denom string) sdk.Coin {
	bz := k.store(ctx).Get(banktypes.BalanceKey(addr, denom))
	if bz == nil {
		return sdk.Coin{Denom: denom, Amount: sdk.ZeroInt()}
	}
	amt, ok := sdk.NewIntFromString(string(bz))
	if !ok {
		panic("bank: corrupt balance entry for denom " + denom)
	}
	return sdk.Coin{Denom: denom, Amount: amt}
}

// GetAllBalances scans every denom recorded for addr.
func (k Keeper) GetAllBalances(ctx sdk.Context, addr []byte) sdk.Coins {
	prefix := banktypes.BalancePrefix(addr)
	it := k.store(ctx).Iterator(prefix, sdk.PrefixEnd(prefix))
	defer it.Close()
	var coins []sdk.Coin
	for ; it.Valid(); it.Next() {
		denom := string(it.Key()[len(prefix):])
		amt, ok := sdk.NewIntFromString(string(it.Value()))
		if !ok {
			panic("bank: corrupt balance entry for denom " + denom)
		}
		coins = append(coins, sdk.Coin{Denom: denom, Amount: amt})
	}
	return sdk.NewCoins(coins...)
}

func (k Keeper) setBalance(ctx sdk.Context, addr []byte, c sdk.Coin) {
	if c.IsZero() {
		k.store(ctx).Delete(banktypes.BalanceKey(addr, c.Denom))
		return
	}
	k.store(ctx).Set(banktypes.BalanceKey(addr, c.Denom), []byte(c.Amount.String()))
}

// AddCoins credits addr's balance in every denom of amt.
func (k Keeper) AddCoins(ctx sdk.Context, addr []byte, amt sdk.Coins) {
	for _, c := range amt {
		cur := k.GetBalance(ctx, addr, c.Denom)
		k.setBalance(ctx, addr, cur.Add(c))
	}
}

// SubCoins debits addr's balance in every denom of amt, failing if any
// denom would go negative.
func (k Keeper) SubCoins(ctx sdk.Context, addr []byte, amt sdk.Coins) error {
	for _, c := range amt {
		cur := k.GetBalance(ctx, addr, c.Denom)
		if cur.IsLT(c) {
			return sdkerrors.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", cur, c)
		}
	}
	for _, c := range amt {
		cur := k.GetBalance(ctx, addr, c.Denom)
		k.setBalance(ctx, addr, cur.SubAmount(c.Amount))
	}
	return nil
}

// SendCoins moves amt from->to, emitting the "transfer" event the ABCI
// response surfaces to clients.
func (k Keeper) SendCoins(ctx sdk.Context, from, to []byte, amt sdk.Coins) error {
	if err := k.SubCoins(ctx, from, amt); err != nil {
		return err
	}
	k.AddCoins(ctx, to, amt)
	ctx.EventManager().EmitEvent(sdk.NewEvent("transfer",
		sdk.NewAttribute("recipient", string(to)),
		sdk.NewAttribute("sender", string(from)),
		sdk.NewAttribute("amount", amt.String()),
	))
	return nil
}

// SendCoinsFromAccountToModule moves amt from a regular account into a
// named module account, used by the AnteHandler's fee-deduct stage and
// staking's delegate flow.
func (k Keeper) SendCoinsFromAccountToModule(ctx sdk.Context, from []byte, moduleName string, amt sdk.Coins) error {
	return k.SendCoins(ctx, from, banktypes.NewModuleAddress(moduleName), amt)
}

// SendCoinsFromModuleToAccount moves amt out of a named module account,
// used by distribution's reward withdrawal and staking's unbonding
// maturation payouts.
func (k Keeper) SendCoinsFromModuleToAccount(ctx sdk.Context, moduleName string, to []byte, amt sdk.Coins) error {
	return k.SendCoins(ctx, banktypes.NewModuleAddress(moduleName), to, amt)
}

// SendCoinsFromModuleToModule moves amt between two module accounts,
// used by staking's bonded/not-bonded pool transfers on bond/unbond.
func (k Keeper) SendCoinsFromModuleToModule(ctx sdk.Context, fromModule, toModule string, amt sdk.Coins) error {
	return k.SendCoins(ctx, banktypes.NewModuleAddress(fromModule), banktypes.NewModuleAddress(toModule), amt)
}
