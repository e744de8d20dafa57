package types

import "time"

// Params are the module-wide staking parameters. They live
// in the x/params subspace keyed by ParamsKey, the same pattern
// x/auth's Params uses.
type Params struct {
	UnbondingTime     time.Duration `json:"unbonding_time"`
	MaxValidators     uint32        `json:"max_validators"`
	MaxEntries        uint32        `json:"max_entries"`
	HistoricalEntries uint32        `json:"historical_entries"`
	BondDenom         string        `json:"bond_denom"`
}

func DefaultParams() Params {
	return Params{
		UnbondingTime:     21 * 24 * time.Hour,
		MaxValidators:     100,
		MaxEntries:        7,
		HistoricalEntries: 10000,
		BondDenom:         "stake",
	}
}
