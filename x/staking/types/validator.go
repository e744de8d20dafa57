// Package types holds x/staking's persisted shapes: validators,
// delegations, unbonding/redelegation entries, and module parameters.
package types

import (
	"time"

	sdk "github.com/chainkit/corechain/types"
)

// BondStatus is a validator's place in its lifecycle.
type BondStatus int32

const (
	Unbonded BondStatus = iota
	Unbonding
	Bonded
)

func (s BondStatus) String() string {
	switch s {
	case Unbonded:
		return "Unbonded"
	case Unbonding:
		return "Unbonding"
	case Bonded:
		return "Bonded"
	default:
		return "Unknown"
	}
}

// Commission tracks a validator's self-set commission rate and the
// governance bounds on how it may change.
type Commission struct {
	Rate          sdk.Dec
	MaxRate       sdk.Dec
	MaxChangeRate sdk.Dec
	UpdateTime    time.Time
}

// Description is off-chain validator metadata, carried through unused by
// any core algorithm.
type Description struct {
	Moniker  string
	Identity string
	Website  string
	Details  string
}

// Validator is the full persisted record. Tokens and
// DelegatorShares are tracked separately so slashing can reduce Tokens
// while leaving every delegation's Shares untouched - the mechanism by
// which the exchange rate (Tokens / DelegatorShares) drops for everyone
// simultaneously.
type Validator struct {
	OperatorAddress   []byte
	ConsensusPubKey   []byte
	Jailed            bool
	Status            BondStatus
	Tokens            sdk.Int
	DelegatorShares   sdk.Dec
	Description       Description
	UnbondingHeight   int64
	UnbondingTime     time.Time
	Commission        Commission
	MinSelfDelegation sdk.Int
}

// NewValidator constructs a freshly created, Unbonded, zero-token
// validator - tokens and shares are added by the first self-delegation
// the create_validator message performs.
func NewValidator(operator, pubKey []byte, desc Description, commission Commission, minSelfDelegation sdk.Int) Validator {
	return Validator{
		OperatorAddress:   operator,
		ConsensusPubKey:   pubKey,
		Status:            Unbonded,
		Tokens:            sdk.ZeroInt(),
		DelegatorShares:   sdk.ZeroDec(),
		Description:       desc,
		Commission:        commission,
		MinSelfDelegation: minSelfDelegation,
	}
}

// ExchangeRate is Tokens / DelegatorShares. A validator with no shares yet
// (freshly created) exchanges at 1:1.
func (v Validator) ExchangeRate() sdk.Dec {
	if v.DelegatorShares.IsZero() {
		return sdk.OneDec()
	}
	return sdk.NewDecFromInt(v.Tokens).Quo(v.DelegatorShares)
}

// SharesFromTokens converts a token amount into the shares it is worth at
// the validator's current exchange rate.
func (v Validator) SharesFromTokens(amt sdk.Int) sdk.Dec {
	return sdk.NewDecFromInt(amt).Quo(v.ExchangeRate())
}

// TokensFromShares converts shares back into tokens, truncating, so a
// round trip through shares never mints value:
// TokensFromShares(SharesFromTokens(x)) <= x.
func (v Validator) TokensFromShares(shares sdk.Dec) sdk.Int {
	return shares.Mul(v.ExchangeRate()).TruncateInt()
}

// TokensFromSharesDec is the untruncated token value of shares, used by
// distribution's stake bracketing where per-withdrawal truncation would
// leak reward dust.
func (v Validator) TokensFromSharesDec(shares sdk.Dec) sdk.Dec {
	if v.DelegatorShares.IsZero() {
		return sdk.ZeroDec()
	}
	return shares.Mul(sdk.NewDecFromInt(v.Tokens)).Quo(v.DelegatorShares)
}

// AddTokensFromDelegation mints shares for amt tokens at the current
// exchange rate, updates Tokens/DelegatorShares, and returns the minted
// share amount.
func (v *Validator) AddTokensFromDelegation(amt sdk.Int) sdk.Dec {
	issuedShares := v.SharesFromTokens(amt)
	v.Tokens = v.Tokens.Add(amt)
	v.DelegatorShares = v.DelegatorShares.Add(issuedShares)
	return issuedShares
}

// RemoveDelShares burns shares at the current exchange rate, returning the
// token amount they were worth.
func (v *Validator) RemoveDelShares(shares sdk.Dec) sdk.Int {
	remainingShares := v.DelegatorShares.Sub(shares)
	var issuedTokens sdk.Int
	if remainingShares.IsZero() {
		// the last delegator redeems the validator's full remaining token
		// balance exactly, avoiding a truncation remainder nobody can claim.
		issuedTokens = v.Tokens
		v.Tokens = sdk.ZeroInt()
	} else {
		issuedTokens = v.TokensFromShares(shares)
		v.Tokens = v.Tokens.Sub(issuedTokens)
	}
	v.DelegatorShares = remainingShares
	return issuedTokens
}

// ConsensusPower is Tokens scaled by the chain's power-reduction constant
// and truncated - the quantity the validator power index and the
// top-max_validators selection in end-of-block recomputation both sort by.
const PowerReduction = 1_000_000

func (v Validator) ConsensusPower() int64 {
	return v.Tokens.Quo(sdk.NewInt(PowerReduction)).Int64()
}

func (v Validator) IsBonded() bool    { return v.Status == Bonded }
func (v Validator) IsUnbonded() bool  { return v.Status == Unbonded }
func (v Validator) IsUnbonding() bool { return v.Status == Unbonding }

// UpdateStatus transitions the validator's bond status; callers are
// responsible for the accompanying token-pool transfer.
func (v *Validator) UpdateStatus(status BondStatus) { v.Status = status }
