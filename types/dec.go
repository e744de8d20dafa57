package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// DecPrecision is the number of fractional digits the Cosmos decimal
// convention fixes: a Dec's wire representation is the decimal
// string of its value * 10^18, with no decimal point.
const DecPrecision = 18

var precisionReuse = new(big.Int).Exp(big.NewInt(10), big.NewInt(DecPrecision), nil)

// Dec is a fixed-point decimal with 18 fractional digits, used for
// delegator shares, exchange rates, commission rates, and distribution
// reward ratios - everywhere fractional accounting is needed
// over integer token amounts.
type Dec struct {
	i *big.Int // value * 10^18
}

func NewDecFromInt(i Int) Dec {
	return Dec{new(big.Int).Mul(i.BigInt(), precisionReuse)}
}

func NewDec(n int64) Dec { return NewDecFromInt(NewInt(n)) }

func ZeroDec() Dec { return NewDec(0) }

func OneDec() Dec { return NewDec(1) }

// NewDecFromString parses the human form String produces ("1.05", "42"),
// the inverse used by every store-level round trip.
func NewDecFromString(s string) (Dec, bool) {
	d, err := parseDecString(s)
	if err != nil {
		return Dec{}, false
	}
	return d, true
}

// WireString is the Cosmos wire convention for decimals: the raw
// integer of value * 10^18, no decimal point.
func (d Dec) WireString() string { return d.i.String() }

// NewDecFromWireString parses WireString's raw-integer form.
func NewDecFromWireString(s string) (Dec, bool) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Dec{}, false
	}
	return Dec{b}, true
}

// NewDecWithPrec builds whole + frac/10^prec as a Dec, for human-entered
// values like "0.05" (rate=5, prec=2).
func NewDecWithPrec(value int64, prec int64) Dec {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(DecPrecision-prec), nil)
	return Dec{new(big.Int).Mul(big.NewInt(value), scale)}
}

func (d Dec) IsNil() bool  { return d.i == nil }
func (d Dec) IsZero() bool { return d.i.Sign() == 0 }
func (d Dec) IsNegative() bool { return d.i.Sign() < 0 }

func (d Dec) Add(o Dec) Dec { return Dec{new(big.Int).Add(d.i, o.i)} }
func (d Dec) Sub(o Dec) Dec { return Dec{new(big.Int).Sub(d.i, o.i)} }

// Mul multiplies two Decs, rescaling by 10^18 to keep fixed precision.
func (d Dec) Mul(o Dec) Dec {
	mul := new(big.Int).Mul(d.i, o.i)
	return Dec{mul.Quo(mul, precisionReuse)}
}

// Quo divides two Decs, rescaling by 10^18 before dividing so the result
// keeps full fixed precision.
func (d Dec) Quo(o Dec) Dec {
	scaled := new(big.Int).Mul(d.i, precisionReuse)
	return Dec{scaled.Quo(scaled, o.i)}
}

func (d Dec) Equal(o Dec) bool { return d.i.Cmp(o.i) == 0 }
func (d Dec) LT(o Dec) bool    { return d.i.Cmp(o.i) < 0 }
func (d Dec) LTE(o Dec) bool   { return d.i.Cmp(o.i) <= 0 }
func (d Dec) GT(o Dec) bool    { return d.i.Cmp(o.i) > 0 }
func (d Dec) GTE(o Dec) bool   { return d.i.Cmp(o.i) >= 0 }

// MulInt multiplies by a whole Int without rescaling (Int has no implied
// fractional digits).
func (d Dec) MulInt(i Int) Dec { return Dec{new(big.Int).Mul(d.i, i.BigInt())} }

// QuoInt64 divides by a plain integer scalar.
func (d Dec) QuoInt64(n int64) Dec { return Dec{new(big.Int).Quo(d.i, big.NewInt(n))} }

// TruncateInt drops the fractional part, rounding toward zero - the
// truncation applied when converting accrued rewards or
// shares back into whole token amounts.
func (d Dec) TruncateInt() Int {
	return NewIntFromBigInt(new(big.Int).Quo(d.i, precisionReuse))
}

// TruncateDecAndRemainder returns the Dec with its fractional part zeroed,
// and the remainder that was dropped.
func (d Dec) TruncateDecAndRemainder() (Dec, Dec) {
	whole := new(big.Int).Quo(d.i, precisionReuse)
	wholeScaled := new(big.Int).Mul(whole, precisionReuse)
	rem := new(big.Int).Sub(d.i, wholeScaled)
	return Dec{wholeScaled}, Dec{rem}
}

func (d Dec) String() string {
	if d.i == nil {
		return "<nil>"
	}
	neg := d.i.Sign() < 0
	abs := new(big.Int).Abs(d.i)
	s := abs.String()
	for len(s) <= DecPrecision {
		s = "0" + s
	}
	whole := s[:len(s)-DecPrecision]
	frac := s[len(s)-DecPrecision:]
	out := whole + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func (d Dec) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON parses the quoted human form "whole.frac" MarshalJSON
// produces, so Dec-bearing records survive the JSON round trip the param
// subspace and module keepers use.
func (d *Dec) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, err := parseDecString(s)
	if err != nil {
		return err
	}
	d.i = parsed.i
	return nil
}

// parseDecString accepts "123", "-0.5", "1.000000000000000000".
func parseDecString(s string) (Dec, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if len(frac) > DecPrecision {
		return Dec{}, fmt.Errorf("too many fractional digits in decimal %q", s)
	}
	for len(frac) < DecPrecision {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	b, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return Dec{}, fmt.Errorf("invalid decimal %q", s)
	}
	if neg {
		b.Neg(b)
	}
	return Dec{b}, nil
}
