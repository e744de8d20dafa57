package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Int wraps math/big.Int to give Coin amounts value semantics without the
// silent overflow a fixed-width integer would risk in gas/fee math.
type Int struct {
	i *big.Int
}

func NewInt(n int64) Int { return Int{big.NewInt(n)} }

func NewIntFromBigInt(b *big.Int) Int { return Int{new(big.Int).Set(b)} }

func ZeroInt() Int { return NewInt(0) }

// NewIntFromString parses a decimal string, rejecting anything that is not
// a valid base-10 integer.
func NewIntFromString(s string) (Int, bool) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, false
	}
	return Int{b}, true
}

func (i Int) BigInt() *big.Int { return new(big.Int).Set(i.i) }

func (i Int) IsNil() bool { return i.i == nil }

func (i Int) IsZero() bool { return i.i.Sign() == 0 }

func (i Int) IsNegative() bool { return i.i.Sign() < 0 }

func (i Int) Equal(o Int) bool { return i.i.Cmp(o.i) == 0 }

func (i Int) LT(o Int) bool { return i.i.Cmp(o.i) < 0 }

func (i Int) GT(o Int) bool { return i.i.Cmp(o.i) > 0 }

func (i Int) GTE(o Int) bool { return i.i.Cmp(o.i) >= 0 }

func (i Int) Add(o Int) Int { return Int{new(big.Int).Add(i.i, o.i)} }

func (i Int) Sub(o Int) Int { return Int{new(big.Int).Sub(i.i, o.i)} }

func (i Int) Neg() Int { return Int{new(big.Int).Neg(i.i)} }

func (i Int) Mul(o Int) Int { return Int{new(big.Int).Mul(i.i, o.i)} }

func (i Int) Quo(o Int) Int { return Int{new(big.Int).Quo(i.i, o.i)} }

func (i Int) Int64() int64 { return i.i.Int64() }

func (i Int) Uint64() uint64 { return i.i.Uint64() }

func (i Int) String() string {
	if i.i == nil {
		return "<nil>"
	}
	return i.i.String()
}

func (i Int) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", i.String())), nil
}

func (i *Int) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, ok := NewIntFromString(s)
	if !ok {
		return fmt.Errorf("invalid integer %q", s)
	}
	i.i = parsed.i
	return nil
}
