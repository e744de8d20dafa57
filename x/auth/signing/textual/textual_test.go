package textual

import (
	"bytes"
	"testing"

	sdk "github.com/chainkit/corechain/types"
	"github.com/stretchr/testify/require"
)

// vectorInput is the canonical single-MsgSend example: account 1,
// sequence 2, one message, a fee, a gas limit, no memo, no tip.
func vectorInput() SignDocInput {
	return SignDocInput{
		ChainID:       "my-chain",
		AccountNumber: 1,
		Sequence:      2,
		Signer:        "cosmos1ulav3hsenupswqfkw2y3sup5kgtqwnvqa8eyhs",
		PublicKey:     bytes.Repeat([]byte{0x02}, 33),
		Messages: []MessageRender{{
			Type:    "/bank.MsgSend",
			Summary: "Send 10000000uatom to cosmos1ejrf4cur2wy6kfurg9f2jppp2h3afe5h6pkh5t",
			Detail: []Screen{
				{Title: "Amount", Content: "10000000uatom"},
				{Title: "To", Content: "cosmos1ejrf4cur2wy6kfurg9f2jppp2h3afe5h6pkh5t"},
			},
		}},
		Fee:          []sdk.Coin{sdk.NewCoin("uatom", sdk.NewInt(2000))},
		GasLimit:     100000,
		RawBytesHash: bytes.Repeat([]byte{0xab}, 32),
	}
}

func screenTitles(screens []Screen) []string {
	out := make([]string, 0, len(screens))
	for _, s := range screens {
		out = append(out, s.Title)
	}
	return out
}

func TestRenderEmitsEnumeratedScreensInOrder(t *testing.T) {
	screens := Render(vectorInput())
	require.Equal(t, []string{
		"Chain id",
		"Account number",
		"Sequence",
		"Address",
		"Public key",
		"Message count",
		"Message",
		"", // indented message summary
		"Amount",
		"To",
		"Fees",
		"Gas limit",
		"Hash of raw bytes",
	}, screenTitles(screens))

	// per-message detail nests one level under the message screen.
	require.Equal(t, uint64(1), screens[7].Indent)
	require.Equal(t, uint64(1), screens[8].Indent)
	require.Equal(t, uint64(1), screens[9].Indent)
	require.Equal(t, "1", screens[5].Content)
}

func TestRenderGatesOptionalScreens(t *testing.T) {
	// zero account number, zero sequence, no fee, no gas, no timeout:
	// none of those screens appear; the hash screen always closes.
	screens := Render(SignDocInput{
		ChainID:      "c",
		Signer:       "addr",
		PublicKey:    []byte{0x01},
		RawBytesHash: bytes.Repeat([]byte{0x00}, 32),
	})
	require.Equal(t, []string{
		"Chain id",
		"Address",
		"Public key",
		"Message count",
		"Hash of raw bytes",
	}, screenTitles(screens))
}

func TestRenderIncludesPayerGranterTipAndTimeoutWhenSet(t *testing.T) {
	in := vectorInput()
	in.FeePayer = "cosmos1payer"
	in.FeeGranter = "cosmos1granter"
	in.Tip = []sdk.Coin{sdk.NewCoin("uatom", sdk.NewInt(7))}
	in.Tipper = "cosmos1tipper"
	in.TimeoutHeight = 99
	titles := screenTitles(Render(in))

	for _, want := range []string{"Fee payer", "Fee granter", "Tip", "Tipper", "Timeout height"} {
		require.Contains(t, titles, want)
	}
	// enumerated order: payer/granter after fees, tip after granter, gas
	// and timeout before the closing hash screen.
	require.Equal(t, "Hash of raw bytes", titles[len(titles)-1])
}

func TestEncodeEnvelopeStartsWithMapAndArrayHeaders(t *testing.T) {
	screens := Render(vectorInput())
	// the vector layout produces exactly these thirteen screens; the
	// envelope header must encode that count, not echo whatever Render
	// returned.
	require.Len(t, screens, 13)
	encoded := EncodeEnvelope(screens)

	// Envelope is always {1: [screens...]} - map(1 pair), key 1, array head.
	require.Equal(t, byte(0xa1), encoded[0])
	require.Equal(t, byte(0x01), encoded[1])
	require.Equal(t, byte(0x80|13), encoded[2])

	// First screen is always the chain-id screen: map(2), key 1 (title),
	// text(8) "Chain id".
	require.Equal(t, byte(0xa2), encoded[3])
	require.Equal(t, byte(0x01), encoded[4])
	require.Equal(t, byte(0x68), encoded[5])
	require.Equal(t, "Chain id", string(encoded[6:14]))
}

func TestEncodeEnvelopeIsDeterministic(t *testing.T) {
	screens := Render(vectorInput())
	require.Equal(t, EncodeEnvelope(screens), EncodeEnvelope(screens))
}

func TestRenderOmitsMemoScreenWhenEmpty(t *testing.T) {
	for _, s := range Render(vectorInput()) {
		require.NotEqual(t, "Memo", s.Title)
	}
}

func TestRenderIncludesMemoScreenWhenSet(t *testing.T) {
	in := vectorInput()
	in.Memo = "hi"
	found := false
	for _, s := range Render(in) {
		if s.Title == "Memo" && s.Content == "hi" {
			found = true
		}
	}
	require.True(t, found)
}
