package keeper

import (
	sdk "github.com/chainkit/corechain/types"
)

// Hooks is the staking-hooks adapter wired into the staking keeper at app
// construction: every stake-changing staking event closes or re-opens the
// affected validator's reward period here.
type Hooks struct {
	k Keeper
}

func (k Keeper) Hooks() Hooks { return Hooks{k: k} }

func (h Hooks) AfterValidatorCreated(ctx sdk.Context, valAddr []byte) {
	h.k.initializeValidator(ctx, valAddr)
}

func (h Hooks) AfterValidatorRemoved(ctx sdk.Context, valAddr []byte) {
	h.k.removeValidator(ctx, valAddr)
}

func (h Hooks) BeforeDelegationCreated(ctx sdk.Context, delAddr, valAddr []byte) {
	h.k.IncrementValidatorPeriod(ctx, valAddr)
}

// BeforeDelegationSharesModified withdraws the delegation's accrued
// rewards in full before the share change; AfterDelegationModified then
// re-records starting info under the new stake.
func (h Hooks) BeforeDelegationSharesModified(ctx sdk.Context, delAddr, valAddr []byte) {
	if _, found := h.k.GetDelegatorStartingInfo(ctx, valAddr, delAddr); !found {
		return
	}
	if _, err := h.k.withdrawDelegationRewards(ctx, valAddr, delAddr); err != nil {
		panic(err)
	}
}

func (h Hooks) AfterDelegationModified(ctx sdk.Context, delAddr, valAddr []byte) {
	h.k.initializeDelegation(ctx, valAddr, delAddr)
}

func (h Hooks) BeforeValidatorSlashed(ctx sdk.Context, valAddr []byte, slashFactor sdk.Dec) {
	h.k.updateValidatorSlashFraction(ctx, valAddr, slashFactor)
}
