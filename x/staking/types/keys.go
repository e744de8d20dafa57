package types

import (
	"encoding/binary"
	"time"
)

// ModuleName is the module's registration name, also the store key name.
const ModuleName = "staking"

// Key prefixes lay out every staking record as a single-byte tag
// followed by a variable-length suffix, the same scheme x/bank uses -
// each prefix is its own contiguous range scan.
var (
	ValidatorsKey             = []byte{0x21} // ValidatorsKey + operatorAddr -> Validator
	ValidatorsByConsAddrKey   = []byte{0x22} // ValidatorsByConsAddrKey + consAddr -> operatorAddr
	ValidatorsByPowerIndexKey = []byte{0x23} // ValidatorsByPowerIndexKey + powerBytes + operatorAddr -> operatorAddr

	DelegationKey           = []byte{0x31} // DelegationKey + len(delAddr) + delAddr + valAddr -> Delegation
	UnbondingDelegationKey  = []byte{0x32} // UnbondingDelegationKey + len(delAddr) + delAddr + valAddr -> UnbondingDelegation
	UnbondingDelegationByValIndexKey = []byte{0x33}
	RedelegationKey         = []byte{0x34} // RedelegationKey + len(delAddr) + delAddr + len(valSrcAddr) + valSrcAddr + valDstAddr -> Redelegation
	RedelegationByValSrcIndexKey = []byte{0x35}
	RedelegationByValDstIndexKey = []byte{0x36}

	UnbondingQueueKey     = []byte{0x41} // UnbondingQueueKey + completionTime -> []DVPair
	RedelegationQueueKey  = []byte{0x42} // RedelegationQueueKey + completionTime -> []DVVTriplet
	ValidatorQueueKey     = []byte{0x43} // ValidatorQueueKey + completionTime -> []operatorAddr

	LastValidatorPowerKey = []byte{0x51} // LastValidatorPowerKey + operatorAddr -> power (int64)
	LastTotalPowerKey     = []byte{0x52}

	ParamsKey = "params"
)

func ValidatorKey(operatorAddr []byte) []byte {
	return append(append([]byte{}, ValidatorsKey...), operatorAddr...)
}

func ValidatorByConsAddrKey(consAddr []byte) []byte {
	return append(append([]byte{}, ValidatorsByConsAddrKey...), consAddr...)
}

// PowerBytes encodes consensus power big-endian so lexicographic byte
// order matches numeric order - the property the power-index range scan
// (highest power first, via ReverseIterator) relies on.
func PowerBytes(power int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(power))
	return b
}

func ValidatorsByPowerIndexKeyFor(power int64, operatorAddr []byte) []byte {
	key := append(append([]byte{}, ValidatorsByPowerIndexKey...), PowerBytes(power)...)
	return append(key, operatorAddr...)
}

func DelegationKeyFor(delAddr, valAddr []byte) []byte {
	key := append(append([]byte{}, DelegationKey...), byte(len(delAddr)))
	key = append(key, delAddr...)
	return append(key, valAddr...)
}

func DelegationsByDelegatorPrefix(delAddr []byte) []byte {
	key := append(append([]byte{}, DelegationKey...), byte(len(delAddr)))
	return append(key, delAddr...)
}

func UnbondingDelegationKeyFor(delAddr, valAddr []byte) []byte {
	key := append(append([]byte{}, UnbondingDelegationKey...), byte(len(delAddr)))
	key = append(key, delAddr...)
	return append(key, valAddr...)
}

func RedelegationKeyFor(delAddr, valSrcAddr, valDstAddr []byte) []byte {
	key := append(append([]byte{}, RedelegationKey...), byte(len(delAddr)))
	key = append(key, delAddr...)
	key = append(key, byte(len(valSrcAddr)))
	key = append(key, valSrcAddr...)
	return append(key, valDstAddr...)
}

// timeKey formats a maturation time so lexicographic byte order matches
// chronological order, letting the unbonding/redelegation/validator
// queues be drained with a single prefix-bounded range scan up to the
// current block time.
func timeKey(t time.Time) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t.UTC().UnixNano()))
	return b
}

func UnbondingQueueKeyFor(completionTime time.Time) []byte {
	return append(append([]byte{}, UnbondingQueueKey...), timeKey(completionTime)...)
}

func RedelegationQueueKeyFor(completionTime time.Time) []byte {
	return append(append([]byte{}, RedelegationQueueKey...), timeKey(completionTime)...)
}

func ValidatorQueueKeyFor(completionTime time.Time) []byte {
	return append(append([]byte{}, ValidatorQueueKey...), timeKey(completionTime)...)
}

func LastValidatorPowerKeyFor(operatorAddr []byte) []byte {
	return append(append([]byte{}, LastValidatorPowerKey...), operatorAddr...)
}
