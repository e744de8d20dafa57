package types

import (
	"time"

	sdk "github.com/chainkit/corechain/types"
)

// Delegation is a delegator's current bond to a validator, denominated
// in shares rather than tokens so a slash can devalue every delegator's
// stake uniformly by moving the validator's exchange rate.
type Delegation struct {
	DelegatorAddress []byte
	ValidatorAddress []byte
	Shares           sdk.Dec
}

// UnbondingDelegationEntry is one in-flight undelegation, tracked
// separately from the delegation record so multiple undelegations with
// different maturation times can be outstanding at once, up to
// Params.MaxEntries.
type UnbondingDelegationEntry struct {
	CreationHeight int64
	CompletionTime time.Time
	InitialBalance sdk.Int
	Balance        sdk.Int
}

func (e UnbondingDelegationEntry) IsMature(t time.Time) bool {
	return !e.CompletionTime.After(t)
}

type UnbondingDelegation struct {
	DelegatorAddress []byte
	ValidatorAddress []byte
	Entries          []UnbondingDelegationEntry
}

func (ubd *UnbondingDelegation) AddEntry(creationHeight int64, completionTime time.Time, balance sdk.Int) {
	ubd.Entries = append(ubd.Entries, UnbondingDelegationEntry{
		CreationHeight: creationHeight,
		CompletionTime: completionTime,
		InitialBalance: balance,
		Balance:        balance,
	})
}

// RemoveMatureEntries drops every entry matured by t and returns the sum
// of tokens they released back to the delegator.
func (ubd *UnbondingDelegation) RemoveMatureEntries(t time.Time) sdk.Int {
	released := sdk.ZeroInt()
	kept := ubd.Entries[:0]
	for _, e := range ubd.Entries {
		if e.IsMature(t) {
			released = released.Add(e.Balance)
		} else {
			kept = append(kept, e)
		}
	}
	ubd.Entries = kept
	return released
}

// RedelegationEntry is one in-flight redelegation leg, grounded the same
// way as UnbondingDelegationEntry but additionally tracking the shares
// minted at the destination validator. A later slash of the source
// validator compares its infraction height with CreationHeight to claw
// back the redelegated stake when the infraction predates this entry.
type RedelegationEntry struct {
	CreationHeight int64
	CompletionTime time.Time
	InitialBalance sdk.Int
	SharesDst      sdk.Dec
}

func (e RedelegationEntry) IsMature(t time.Time) bool {
	return !e.CompletionTime.After(t)
}

type Redelegation struct {
	DelegatorAddress    []byte
	ValidatorSrcAddress []byte
	ValidatorDstAddress []byte
	Entries             []RedelegationEntry
}

func (red *Redelegation) AddEntry(creationHeight int64, completionTime time.Time, balance sdk.Int, sharesDst sdk.Dec) {
	red.Entries = append(red.Entries, RedelegationEntry{
		CreationHeight: creationHeight,
		CompletionTime: completionTime,
		InitialBalance: balance,
		SharesDst:      sharesDst,
	})
}

func (red *Redelegation) RemoveMatureEntries(t time.Time) {
	kept := red.Entries[:0]
	for _, e := range red.Entries {
		if !e.IsMature(t) {
			kept = append(kept, e)
		}
	}
	red.Entries = kept
}
