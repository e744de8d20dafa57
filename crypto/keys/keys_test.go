package keys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainkit/corechain/crypto/bech32"
)

func TestSecp256k1SignAndVerify(t *testing.T) {
	priv := GenerateSecp256k1PrivKey()
	pub := priv.PubKey()

	msg := []byte("deliver_tx payload")
	sig := priv.Sign(msg)
	require.True(t, pub.VerifySignature(msg, sig))
	require.False(t, pub.VerifySignature([]byte("tampered"), sig))
}

func TestSecp256k1AddressIsStable(t *testing.T) {
	priv := GenerateSecp256k1PrivKey()
	pub := priv.PubKey()
	addr1 := pub.Address()
	addr2 := pub.Address()
	require.Equal(t, addr1, addr2)
	require.Len(t, addr1, 20)
}

func TestSecp256k1Bech32AddressRoundTrips(t *testing.T) {
	priv := GenerateSecp256k1PrivKey()
	pub := priv.PubKey()
	acc, err := pub.Bech32Address()
	require.NoError(t, err)
	require.Contains(t, acc, PrefixAccAddr+"1")

	hrp, raw, err := bech32.DecodeToBytes(acc)
	require.NoError(t, err)
	require.Equal(t, PrefixAccAddr, hrp)
	require.Equal(t, pub.Address(), raw)

	val, err := pub.Bech32ValAddress()
	require.NoError(t, err)
	require.NotEqual(t, acc, val)
}

func TestEd25519SignAndVerify(t *testing.T) {
	priv, err := GenerateEd25519PrivKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	msg := []byte("vote extension")
	sig := priv.Sign(msg)
	require.True(t, pub.VerifySignature(msg, sig))
	require.False(t, pub.VerifySignature([]byte("other"), sig))
}
