// Package types holds x/bank's wire-level shapes: balance store-key
// layout, module account name derivation, and MsgSend.
package types

import "crypto/sha256"

// ModuleName is the module's registration name, also the store key name.
const ModuleName = "bank"

var balancePrefix = []byte{0x02}

// BalanceKey lays out balances/<addr>/<denom>, the same two-level prefix
// shape cosmos-sdk's x/bank uses so a single address's full balance set
// is a contiguous range scan.
func BalanceKey(addr []byte, denom string) []byte {
	key := append([]byte{}, balancePrefix...)
	key = append(key, byte(len(addr)))
	key = append(key, addr...)
	key = append(key, []byte(denom)...)
	return key
}

// BalancePrefix returns the range prefix covering every denom held by
// addr.
func BalancePrefix(addr []byte) []byte {
	key := append([]byte{}, balancePrefix...)
	key = append(key, byte(len(addr)))
	return append(key, addr...)
}

// NewModuleAddress derives a 20-byte module account address from its
// name - deterministic, public-key-less, matching cosmos-sdk's
// authtypes.NewModuleAddress convention (SHA-256 of the name, truncated
// to the common 20-byte address width used throughout this kernel).
func NewModuleAddress(name string) []byte {
	h := sha256.Sum256([]byte(name))
	return h[:20]
}

// Well-known module accounts referenced by the AnteHandler fee deduction
// stage and the staking bonded/not-bonded pool bookkeeping.
const (
	FeeCollectorName  = "fee_collector"
	BondedPoolName    = "bonded_tokens_pool"
	NotBondedPoolName = "not_bonded_tokens_pool"
	DistrModuleName   = "distribution"
)
