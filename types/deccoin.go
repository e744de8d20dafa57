package types

import (
	"fmt"
	"sort"
	"strings"
)

// DecCoin is a denomination with a fractional amount - the shape
// distribution's reward accounting accrues in, since per-share reward
// ratios are sub-integer long before they are truncated into payable
// Coins.
type DecCoin struct {
	Denom  string
	Amount Dec
}

func NewDecCoin(denom string, amount Dec) DecCoin {
	return DecCoin{Denom: denom, Amount: amount}
}

func NewDecCoinFromCoin(c Coin) DecCoin {
	return DecCoin{Denom: c.Denom, Amount: NewDecFromInt(c.Amount)}
}

func (c DecCoin) IsZero() bool { return c.Amount.IsZero() }

func (c DecCoin) String() string { return c.Amount.String() + c.Denom }

// DecCoins is ordered by denom with no duplicates, the same canonical
// form Coins keeps; unlike Coins it may carry zero entries transiently
// during arithmetic but never negatives.
type DecCoins []DecCoin

// NewDecCoinsFromCoins lifts whole-token Coins into DecCoins.
func NewDecCoinsFromCoins(coins Coins) DecCoins {
	out := make(DecCoins, 0, len(coins))
	for _, c := range coins {
		out = append(out, NewDecCoinFromCoin(c))
	}
	return out
}

// Add merges two canonical DecCoins denom-wise.
func (d DecCoins) Add(other DecCoins) DecCoins {
	sums := map[string]Dec{}
	for _, c := range d {
		sums[c.Denom] = c.Amount
	}
	for _, c := range other {
		if cur, ok := sums[c.Denom]; ok {
			sums[c.Denom] = cur.Add(c.Amount)
		} else {
			sums[c.Denom] = c.Amount
		}
	}
	return decCoinsFromMap(sums)
}

// Sub subtracts other denom-wise, panicking if any denom would go
// negative - reward accounting never legitimately over-subtracts.
func (d DecCoins) Sub(other DecCoins) DecCoins {
	sums := map[string]Dec{}
	for _, c := range d {
		sums[c.Denom] = c.Amount
	}
	for _, c := range other {
		cur, ok := sums[c.Denom]
		if !ok {
			cur = ZeroDec()
		}
		next := cur.Sub(c.Amount)
		if next.IsNegative() {
			panic(fmt.Sprintf("negative dec coin amount for denom %s", c.Denom))
		}
		sums[c.Denom] = next
	}
	return decCoinsFromMap(sums)
}

// MulDec scales every amount by f.
func (d DecCoins) MulDec(f Dec) DecCoins {
	out := make(DecCoins, 0, len(d))
	for _, c := range d {
		amt := c.Amount.Mul(f)
		if amt.IsZero() {
			continue
		}
		out = append(out, DecCoin{Denom: c.Denom, Amount: amt})
	}
	return out
}

// QuoDec divides every amount by f.
func (d DecCoins) QuoDec(f Dec) DecCoins {
	out := make(DecCoins, 0, len(d))
	for _, c := range d {
		amt := c.Amount.Quo(f)
		if amt.IsZero() {
			continue
		}
		out = append(out, DecCoin{Denom: c.Denom, Amount: amt})
	}
	return out
}

// TruncateDecimal splits into the whole-token Coins that can actually be
// paid out and the fractional DecCoins remainder left behind - the
// remainder distribution returns to the community pool on withdrawal.
func (d DecCoins) TruncateDecimal() (Coins, DecCoins) {
	coins := make([]Coin, 0, len(d))
	change := make(DecCoins, 0, len(d))
	for _, c := range d {
		whole := c.Amount.TruncateInt()
		if !whole.IsZero() {
			coins = append(coins, Coin{Denom: c.Denom, Amount: whole})
		}
		rem := c.Amount.Sub(NewDecFromInt(whole))
		if !rem.IsZero() {
			change = append(change, DecCoin{Denom: c.Denom, Amount: rem})
		}
	}
	return NewCoins(coins...), change
}

func (d DecCoins) AmountOf(denom string) Dec {
	for _, c := range d {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return ZeroDec()
}

func (d DecCoins) IsZero() bool {
	for _, c := range d {
		if !c.Amount.IsZero() {
			return false
		}
	}
	return true
}

func (d DecCoins) String() string {
	if len(d) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d))
	for _, c := range d {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

func decCoinsFromMap(sums map[string]Dec) DecCoins {
	denoms := make([]string, 0, len(sums))
	for denom := range sums {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)
	out := make(DecCoins, 0, len(denoms))
	for _, denom := range denoms {
		if sums[denom].IsZero() {
			continue
		}
		out = append(out, DecCoin{Denom: denom, Amount: sums[denom]})
	}
	return out
}
