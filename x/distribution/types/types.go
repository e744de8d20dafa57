package types

import (
	sdk "github.com/chainkit/corechain/types"
)

// FeePool holds rewards not yet attributable to any validator: the
// community pool, fed by the community tax and by every truncation
// remainder reward withdrawal leaves behind.
type FeePool struct {
	CommunityPool sdk.DecCoins
}

// ValidatorHistoricalRewards is the closed record of one reward period:
// the cumulative per-share reward ratio up to the period's end, plus a
// reference count of the delegations and slash events still pointing at
// it so fully-dereferenced periods can be pruned.
type ValidatorHistoricalRewards struct {
	CumulativeRewardRatio sdk.DecCoins
	ReferenceCount        uint32
}

// ValidatorCurrentRewards accumulates rewards credited since the last
// period close, under the period index that will be assigned when the
// next stake-changing action closes it.
type ValidatorCurrentRewards struct {
	Rewards sdk.DecCoins
	Period  uint64
}

// DelegatorStartingInfo pins the period a delegation's reward accrual
// starts after, the stake it held at that point, and the height it was
// created at - the three values CalculateDelegationRewards brackets
// over slash events with.
type DelegatorStartingInfo struct {
	PreviousPeriod uint64
	Stake          sdk.Dec
	Height         uint64
}

// ValidatorSlashEvent records one slash as the period closed just before
// it and the fraction applied, letting reward calculation scale a
// delegation's stake down across each slash bracket it spans.
type ValidatorSlashEvent struct {
	ValidatorPeriod uint64
	Fraction        sdk.Dec
}

// Params are the module-wide distribution parameters.
type Params struct {
	CommunityTax sdk.Dec `json:"community_tax"`
}

func DefaultParams() Params {
	return Params{CommunityTax: sdk.NewDecWithPrec(2, 2)}
}
