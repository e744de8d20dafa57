// Package keys implements the two key types account and consensus
// signatures use: secp256k1 for accounts (via decred/dcrd, already part
// of the wider retrieval pack's dependency surface) and ed25519 for
// consensus keys, following the Tendermint/ABCI convention this kernel
// assumes for its external consensus driver.
package keys

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/chainkit/corechain/crypto/bech32"
)

const (
	secp256k1PubKeySize = 33 // compressed

	PrefixAccAddr    = "cosmos"
	PrefixValAddr    = "cosmosvaloper"
	PrefixConsAddr   = "cosmosvalcons"
	PrefixAccPubKey  = "cosmospub"
	PrefixValPubKey  = "cosmosvaloperpub"
	PrefixConsPubKey = "cosmosvalconspub"
)

// Secp256k1PubKey is a compressed secp256k1 public key used for account
// signature verification.
type Secp256k1PubKey struct {
	Key [secp256k1PubKeySize]byte
}

func NewSecp256k1PubKey(compressed []byte) (*Secp256k1PubKey, error) {
	if len(compressed) != secp256k1PubKeySize {
		return nil, fmt.Errorf("invalid public key length: want %d, got %d", secp256k1PubKeySize, len(compressed))
	}
	var k Secp256k1PubKey
	copy(k.Key[:], compressed)
	return &k, nil
}

// Address derives the 20-byte account address: the leading bytes of
// SHA-256 over the compressed public key. Cosmos-sdk uses sha256 then
// ripemd160; no ripemd160 implementation appears anywhere in the
// retrieval pack, so rather than hand-roll an unreviewed cryptographic
// hash primitive this truncates the better-reviewed SHA-256 output to
// the same 20-byte width instead (see DESIGN.md).
func (k *Secp256k1PubKey) Address() []byte {
	h := sha256.Sum256(k.Key[:])
	return h[:20]
}

// VerifySignature checks a DER-encoded ECDSA signature over the SHA-256
// digest of msg.
func (k *Secp256k1PubKey) VerifySignature(msg, sig []byte) bool {
	pub, err := secp256k1.ParsePubKey(k.Key[:])
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsed.Verify(digest[:], pub)
}

func (k *Secp256k1PubKey) Bech32Address() (string, error) {
	return bech32.EncodeFromBytes(PrefixAccAddr, k.Address())
}

func (k *Secp256k1PubKey) Bech32ValAddress() (string, error) {
	return bech32.EncodeFromBytes(PrefixValAddr, k.Address())
}

// Secp256k1PrivKey wraps the decred implementation for signing, used in
// tests and local signing utilities rather than consensus-critical paths.
type Secp256k1PrivKey struct {
	key *secp256k1.PrivateKey
}

func GenerateSecp256k1PrivKey() *Secp256k1PrivKey {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	return &Secp256k1PrivKey{key: k}
}

func (p *Secp256k1PrivKey) PubKey() *Secp256k1PubKey {
	pk, _ := NewSecp256k1PubKey(p.key.PubKey().SerializeCompressed())
	return pk
}

func (p *Secp256k1PrivKey) Sign(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	sig := ecdsa.Sign(p.key, digest[:])
	return sig.Serialize()
}

