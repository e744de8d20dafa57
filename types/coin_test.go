package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCoin(t *testing.T) {
	tests := []struct {
		in      string
		denom   string
		amount  int64
		wantErr bool
	}{
		{in: "34uatom", denom: "uatom", amount: 34},
		{in: "0stake", denom: "stake", amount: 0},
		{in: "1000000ibc/ABC123", denom: "ibc/ABC123", amount: 1000000},
		{in: "uatom", wantErr: true},
		{in: "12", wantErr: true},
		{in: "12u", wantErr: true}, // denom below minimum length
		{in: "-5uatom", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCoin(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.denom, c.Denom)
			require.True(t, c.Amount.Equal(NewInt(tt.amount)))
		})
	}
}

func TestParseCoinsSortsByDenom(t *testing.T) {
	coins, err := ParseCoins("5uatom,3stake")
	require.NoError(t, err)
	require.Len(t, coins, 2)
	// canonical order is by denom.
	require.Equal(t, "stake", coins[0].Denom)
	require.Equal(t, "uatom", coins[1].Denom)
}

func TestNewCoinsStripsZeroAmounts(t *testing.T) {
	coins := NewCoins(
		Coin{Denom: "uatom", Amount: NewInt(5)},
		Coin{Denom: "stake", Amount: ZeroInt()},
	)
	require.Len(t, coins, 1)
	require.Equal(t, "uatom", coins[0].Denom)
}

func TestCoinsAddSub(t *testing.T) {
	a := NewCoins(Coin{Denom: "uatom", Amount: NewInt(10)})
	b := a.Add(Coin{Denom: "uatom", Amount: NewInt(5)}, Coin{Denom: "stake", Amount: NewInt(1)})
	require.True(t, b.AmountOf("uatom").Equal(NewInt(15)))
	require.True(t, b.AmountOf("stake").Equal(NewInt(1)))

	c := b.Sub(Coin{Denom: "stake", Amount: NewInt(1)})
	require.True(t, c.AmountOf("stake").IsZero())

	require.Panics(t, func() { c.Sub(Coin{Denom: "uatom", Amount: NewInt(16)}) })
}

func TestGasMeterLimits(t *testing.T) {
	gm := NewGasMeter(100)
	require.NoError(t, gm.ConsumeGas(60, "first"))
	require.NoError(t, gm.ConsumeGas(40, "second"))
	require.Equal(t, uint64(100), gm.GasConsumed())

	err := gm.ConsumeGas(1, "over")
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of gas")
}

func TestInfiniteGasMeterNeverTrips(t *testing.T) {
	gm := NewInfiniteGasMeter()
	require.NoError(t, gm.ConsumeGas(1<<40, "lots"))
	require.NoError(t, gm.ConsumeGas(1<<40, "more"))
}
