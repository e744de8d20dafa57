package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/chainkit/corechain/crypto/bech32"
)

// Ed25519PubKey is a consensus public key, verified against vote
// extensions and used signatures the external consensus driver supplies -
// never used for account-level message signing.
type Ed25519PubKey struct {
	Key ed25519.PublicKey
}

func NewEd25519PubKey(raw []byte) (*Ed25519PubKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length: want %d, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Ed25519PubKey{Key: append(ed25519.PublicKey(nil), raw...)}, nil
}

func (k *Ed25519PubKey) Address() []byte {
	h := sha256.Sum256(k.Key)
	return h[:20]
}

func (k *Ed25519PubKey) VerifySignature(msg, sig []byte) bool {
	return ed25519.Verify(k.Key, msg, sig)
}

func (k *Ed25519PubKey) Bech32ConsAddress() (string, error) {
	return bech32.EncodeFromBytes(PrefixConsAddr, k.Address())
}

type Ed25519PrivKey struct {
	key ed25519.PrivateKey
}

func GenerateEd25519PrivKey() (*Ed25519PrivKey, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Ed25519PrivKey{key: priv}, nil
}

func (p *Ed25519PrivKey) PubKey() *Ed25519PubKey {
	return &Ed25519PubKey{Key: append(ed25519.PublicKey(nil), p.key.Public().(ed25519.PublicKey)...)}
}

func (p *Ed25519PrivKey) Sign(msg []byte) []byte {
	return ed25519.Sign(p.key, msg)
}
