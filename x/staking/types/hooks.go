package types

import (
	sdk "github.com/chainkit/corechain/types"
)

// StakingHooks lets other modules react to stake-changing events without
// staking importing them back - distribution is the only implementor in
// this kernel, using BeforeDelegationSharesModified/BeforeValidatorSlashed
// to close a reward period before the change that would otherwise mix
// rewards accrued under two different exchange rates.
type StakingHooks interface {
	AfterValidatorCreated(ctx sdk.Context, valAddr []byte)
	AfterValidatorRemoved(ctx sdk.Context, valAddr []byte)
	BeforeDelegationCreated(ctx sdk.Context, delAddr, valAddr []byte)
	BeforeDelegationSharesModified(ctx sdk.Context, delAddr, valAddr []byte)
	AfterDelegationModified(ctx sdk.Context, delAddr, valAddr []byte)
	BeforeValidatorSlashed(ctx sdk.Context, valAddr []byte, slashFactor sdk.Dec)
}

// MultiStakingHooks fans a single staking event out to every registered
// hook implementor, in registration order - mirrors cosmos-sdk's
// stakingtypes.MultiStakingHooks, even though this kernel only ever
// registers one (distribution).
type MultiStakingHooks []StakingHooks

func NewMultiStakingHooks(hooks ...StakingHooks) MultiStakingHooks {
	return MultiStakingHooks(hooks)
}

func (h MultiStakingHooks) AfterValidatorCreated(ctx sdk.Context, valAddr []byte) {
	for _, hook := range h {
		hook.AfterValidatorCreated(ctx, valAddr)
	}
}

func (h MultiStakingHooks) AfterValidatorRemoved(ctx sdk.Context, valAddr []byte) {
	for _, hook := range h {
		hook.AfterValidatorRemoved(ctx, valAddr)
	}
}

func (h MultiStakingHooks) BeforeDelegationCreated(ctx sdk.Context, delAddr, valAddr []byte) {
	for _, hook := range h {
		hook.BeforeDelegationCreated(ctx, delAddr, valAddr)
	}
}

func (h MultiStakingHooks) BeforeDelegationSharesModified(ctx sdk.Context, delAddr, valAddr []byte) {
	for _, hook := range h {
		hook.BeforeDelegationSharesModified(ctx, delAddr, valAddr)
	}
}

func (h MultiStakingHooks) AfterDelegationModified(ctx sdk.Context, delAddr, valAddr []byte) {
	for _, hook := range h {
		hook.AfterDelegationModified(ctx, delAddr, valAddr)
	}
}

func (h MultiStakingHooks) BeforeValidatorSlashed(ctx sdk.Context, valAddr []byte, slashFactor sdk.Dec) {
	for _, hook := range h {
		hook.BeforeValidatorSlashed(ctx, valAddr, slashFactor)
	}
}
