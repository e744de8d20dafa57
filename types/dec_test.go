package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecStringRoundTrip(t *testing.T) {
	tests := []Dec{
		ZeroDec(),
		OneDec(),
		NewDec(42),
		NewDecWithPrec(5, 2),      // 0.05
		NewDecWithPrec(-125, 3),   // -0.125
		NewDec(1_000_000_000_000), // large whole
	}
	for _, d := range tests {
		t.Run(d.String(), func(t *testing.T) {
			parsed, ok := NewDecFromString(d.String())
			require.True(t, ok)
			require.True(t, parsed.Equal(d))
		})
	}
}

func TestDecWireStringRoundTrip(t *testing.T) {
	d := NewDecWithPrec(5, 2)
	// the wire form carries the raw scaled integer, no decimal point.
	require.Equal(t, "50000000000000000", d.WireString())
	back, ok := NewDecFromWireString(d.WireString())
	require.True(t, ok)
	require.True(t, back.Equal(d))
}

func TestDecJSONRoundTrip(t *testing.T) {
	d := NewDecWithPrec(125, 3)
	bz, err := json.Marshal(d)
	require.NoError(t, err)

	var back Dec
	require.NoError(t, json.Unmarshal(bz, &back))
	require.True(t, back.Equal(d))
}

func TestDecTruncateInt(t *testing.T) {
	d := NewDecWithPrec(199, 2) // 1.99
	require.True(t, d.TruncateInt().Equal(NewInt(1)))
	require.True(t, NewDec(-1).TruncateInt().Equal(NewInt(-1)))
}

func TestDecMulQuo(t *testing.T) {
	half := NewDecWithPrec(5, 1)
	require.True(t, NewDec(10).Mul(half).Equal(NewDec(5)))
	require.True(t, NewDec(10).Quo(NewDec(4)).Equal(NewDecWithPrec(25, 1)))
}

func TestDecCoinsArithmetic(t *testing.T) {
	a := DecCoins{NewDecCoin("uatom", NewDec(10))}
	b := a.Add(DecCoins{NewDecCoin("uatom", NewDec(5)), NewDecCoin("stake", NewDec(1))})
	require.True(t, b.AmountOf("uatom").Equal(NewDec(15)))
	require.True(t, b.AmountOf("stake").Equal(NewDec(1)))

	c := b.MulDec(NewDecWithPrec(5, 1))
	require.True(t, c.AmountOf("uatom").Equal(NewDecWithPrec(75, 1)))

	require.Panics(t, func() { a.Sub(DecCoins{NewDecCoin("uatom", NewDec(11))}) })
}

func TestDecCoinsTruncateDecimal(t *testing.T) {
	d := DecCoins{NewDecCoin("uatom", NewDecWithPrec(6666, 2))} // 66.66
	coins, change := d.TruncateDecimal()
	require.True(t, coins.AmountOf("uatom").Equal(NewInt(66)))
	require.True(t, change.AmountOf("uatom").Equal(NewDecWithPrec(66, 2)))
}

func TestIntJSONRoundTrip(t *testing.T) {
	i := NewInt(123456789)
	bz, err := json.Marshal(i)
	require.NoError(t, err)
	var back Int
	require.NoError(t, json.Unmarshal(bz, &back))
	require.True(t, back.Equal(i))
}
