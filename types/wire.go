package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Coin's wire shape (denom, amount-as-decimal-string) is the same
// two-field message x/auth/tx's Fee and Tip amounts use; every module
// message codec (MsgSend, MsgDelegate, ...) embeds it the same way, so it
// lives here once rather than once per module.
const (
	wireFieldCoinDenom  = 1
	wireFieldCoinAmount = 2
)

// MarshalCoin encodes c as a length-delimited protobuf message.
func MarshalCoin(c Coin) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, wireFieldCoinDenom, protowire.BytesType)
	buf = protowire.AppendString(buf, c.Denom)
	buf = protowire.AppendTag(buf, wireFieldCoinAmount, protowire.BytesType)
	buf = protowire.AppendString(buf, c.Amount.String())
	return buf
}

// DecodeCoin parses a Coin from its length-delimited protobuf encoding.
func DecodeCoin(data []byte) (Coin, error) {
	var denom, amount string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Coin{}, fmt.Errorf("corrupt coin: bad tag")
		}
		data = data[n:]
		switch num {
		case wireFieldCoinDenom:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Coin{}, fmt.Errorf("corrupt coin: denom")
			}
			denom = string(v)
			data = data[n:]
		case wireFieldCoinAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Coin{}, fmt.Errorf("corrupt coin: amount")
			}
			amount = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Coin{}, fmt.Errorf("corrupt coin: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	amt, ok := NewIntFromString(amount)
	if !ok {
		return Coin{}, fmt.Errorf("corrupt coin: invalid amount %q", amount)
	}
	return Coin{Denom: denom, Amount: amt}, nil
}
