// Package types holds the account state x/auth keeps: a sequence number
// and cached public key per address, the same shape cosmos-sdk's
// BaseAccount carries.
package types

// Account is the persisted per-address authentication state: an
// assigned, never-reused account number, a monotonically increasing
// sequence (replay-protection nonce), and the public key last seen on a
// signed transaction from this address (nil until the first signed tx).
type Account struct {
	Address       []byte
	AccountNumber uint64
	Sequence      uint64
	PubKey        []byte
}
