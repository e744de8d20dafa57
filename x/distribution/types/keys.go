// Package types holds x/distribution's persisted shapes: the fee pool,
// per-validator reward periods, delegator starting info, and slash
// events.
package types

import "encoding/binary"

// ModuleName is the module's registration name, also the store key name
// and the module account rewards are escrowed in.
const ModuleName = "distribution"

// Key prefixes, one-byte tags partitioning the distribution store the
// same way x/staking and x/bank lay out theirs.
var (
	FeePoolKey = []byte{0x00}

	ValidatorOutstandingRewardsKey    = []byte{0x02} // + valAddr -> DecCoins
	DelegatorStartingInfoKey          = []byte{0x04} // + len(valAddr) + valAddr + delAddr -> DelegatorStartingInfo
	ValidatorHistoricalRewardsKey     = []byte{0x05} // + len(valAddr) + valAddr + period(8) -> ValidatorHistoricalRewards
	ValidatorCurrentRewardsKey        = []byte{0x06} // + valAddr -> ValidatorCurrentRewards
	ValidatorAccumulatedCommissionKey = []byte{0x07} // + valAddr -> DecCoins
	ValidatorSlashEventKey            = []byte{0x08} // + len(valAddr) + valAddr + height(8) -> ValidatorSlashEvent

	ParamsKey = "params"
)

func ValidatorOutstandingRewardsKeyFor(valAddr []byte) []byte {
	return append(append([]byte{}, ValidatorOutstandingRewardsKey...), valAddr...)
}

func DelegatorStartingInfoKeyFor(valAddr, delAddr []byte) []byte {
	key := append(append([]byte{}, DelegatorStartingInfoKey...), byte(len(valAddr)))
	key = append(key, valAddr...)
	return append(key, delAddr...)
}

func ValidatorHistoricalRewardsKeyFor(valAddr []byte, period uint64) []byte {
	key := append(append([]byte{}, ValidatorHistoricalRewardsKey...), byte(len(valAddr)))
	key = append(key, valAddr...)
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, period)
	return append(key, b...)
}

func ValidatorHistoricalRewardsPrefix(valAddr []byte) []byte {
	key := append(append([]byte{}, ValidatorHistoricalRewardsKey...), byte(len(valAddr)))
	return append(key, valAddr...)
}

func ValidatorCurrentRewardsKeyFor(valAddr []byte) []byte {
	return append(append([]byte{}, ValidatorCurrentRewardsKey...), valAddr...)
}

func ValidatorAccumulatedCommissionKeyFor(valAddr []byte) []byte {
	return append(append([]byte{}, ValidatorAccumulatedCommissionKey...), valAddr...)
}

// ValidatorSlashEventKeyFor encodes the height big-endian so slash events
// iterate in infraction order within a validator's prefix.
func ValidatorSlashEventKeyFor(valAddr []byte, height uint64) []byte {
	key := append(append([]byte{}, ValidatorSlashEventKey...), byte(len(valAddr)))
	key = append(key, valAddr...)
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return append(key, b...)
}

func ValidatorSlashEventPrefix(valAddr []byte) []byte {
	key := append(append([]byte{}, ValidatorSlashEventKey...), byte(len(valAddr)))
	return append(key, valAddr...)
}
