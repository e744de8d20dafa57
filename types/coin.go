package types

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var reDenom = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/]{2,127}$`)

// Coin is a denomination and a non-negative integer amount, held as an
// arbitrary-precision Int so large balances never overflow a machine word.
type Coin struct {
	Denom  string
	Amount Int
}

// NewCoin builds a Coin, panicking on an invalid denom or a negative amount -
// the same contract cosmos-sdk's sdk.NewCoin enforces, since a Coin is meant
// to be constructed once validation has already happened upstream.
func NewCoin(denom string, amount Int) Coin {
	c := Coin{Denom: denom, Amount: amount}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether the coin's denom matches the expected wire
// format and the amount is non-negative.
func (c Coin) Validate() error {
	if !reDenom.MatchString(c.Denom) {
		return errors.Wrapf(ErrInvalidCoins, "invalid denom: %s", c.Denom)
	}
	if c.Amount.IsNegative() {
		return errors.Wrapf(ErrInvalidCoins, "negative coin amount: %s", c.Amount)
	}
	return nil
}

func (c Coin) IsZero() bool { return c.Amount.IsZero() }

func (c Coin) String() string { return fmt.Sprintf("%s%s", c.Amount.String(), c.Denom) }

func (c Coin) Add(o Coin) Coin {
	if c.Denom != o.Denom {
		panic(fmt.Sprintf("mismatched denoms: %s vs %s", c.Denom, o.Denom))
	}
	return Coin{Denom: c.Denom, Amount: c.Amount.Add(o.Amount)}
}

func (c Coin) SubAmount(amt Int) Coin {
	res := Coin{Denom: c.Denom, Amount: c.Amount.Sub(amt)}
	if res.Amount.IsNegative() {
		panic(fmt.Sprintf("negative coin amount for denom %s", c.Denom))
	}
	return res
}

func (c Coin) IsLT(o Coin) bool {
	if c.Denom != o.Denom {
		panic(fmt.Sprintf("mismatched denoms: %s vs %s", c.Denom, o.Denom))
	}
	return c.Amount.LT(o.Amount)
}

// Coins is an ordered-by-denom list with no duplicates and all-positive
// amounts.
type Coins []Coin

// NewCoins sorts, validates, and strips zero entries, the way cosmos-sdk's
// sdk.NewCoins constructor does, so every Coins value in the system is
// already in canonical form by construction.
func NewCoins(coins ...Coin) Coins {
	out := make(Coins, 0, len(coins))
	for _, c := range coins {
		if c.IsZero() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	for i := 1; i < len(out); i++ {
		if out[i].Denom == out[i-1].Denom {
			panic(fmt.Sprintf("duplicate denom %s", out[i].Denom))
		}
	}
	return out
}

func (cs Coins) AmountOf(denom string) Int {
	for _, c := range cs {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return ZeroInt()
}

func (cs Coins) IsZero() bool {
	for _, c := range cs {
		if !c.IsZero() {
			return false
		}
	}
	return true
}

// Add merges two canonical Coins lists, denom-wise.
func (cs Coins) Add(other ...Coin) Coins {
	merged := map[string]Int{}
	for _, c := range cs {
		merged[c.Denom] = c.Amount
	}
	for _, c := range other {
		if v, ok := merged[c.Denom]; ok {
			merged[c.Denom] = v.Add(c.Amount)
		} else {
			merged[c.Denom] = c.Amount
		}
	}
	result := make([]Coin, 0, len(merged))
	for denom, amt := range merged {
		result = append(result, Coin{Denom: denom, Amount: amt})
	}
	return NewCoins(result...)
}

// Sub subtracts other from cs, panicking if the result would go negative in
// any denom - callers that want a checked version use IsAllGTE first.
func (cs Coins) Sub(other ...Coin) Coins {
	negated := make([]Coin, len(other))
	for i, c := range other {
		negated[i] = Coin{Denom: c.Denom, Amount: c.Amount.Neg()}
	}
	result := cs.Add(negated...)
	for _, c := range result {
		if c.Amount.IsNegative() {
			panic(fmt.Sprintf("negative coin amount resulted for denom %s", c.Denom))
		}
	}
	return result
}

// IsAllGTE reports whether cs has, in every denom of other, an amount at
// least as large as other's.
func (cs Coins) IsAllGTE(other Coins) bool {
	for _, c := range other {
		if cs.AmountOf(c.Denom).LT(c.Amount) {
			return false
		}
	}
	return true
}

func (cs Coins) String() string {
	if len(cs) == 0 {
		return ""
	}
	out := cs[0].String()
	for _, c := range cs[1:] {
		out += "," + c.String()
	}
	return out
}

// ParseCoin parses the "<amount><denom>" wire form: a non-negative
// decimal integer immediately followed by a denom.
func ParseCoin(s string) (Coin, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return Coin{}, errors.Wrapf(ErrInvalidCoins, "missing amount in coin %q", s)
	}
	amt, ok := NewIntFromString(s[:i])
	if !ok {
		return Coin{}, errors.Wrapf(ErrInvalidCoins, "invalid amount in coin %q", s)
	}
	c := Coin{Denom: s[i:], Amount: amt}
	if err := c.Validate(); err != nil {
		return Coin{}, err
	}
	return c, nil
}

// ParseCoins parses a comma-separated coin list.
func ParseCoins(s string) (Coins, error) {
	if s == "" {
		return nil, nil
	}
	var coins []Coin
	for _, part := range strings.Split(s, ",") {
		c, err := ParseCoin(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return NewCoins(coins...), nil
}
