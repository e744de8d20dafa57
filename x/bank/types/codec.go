package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	sdk "github.com/chainkit/corechain/types"
)

const (
	fieldMsgSendFromAddress = 1
	fieldMsgSendToAddress   = 2
	fieldMsgSendAmount      = 3
)

// MarshalMsgSend encodes m as the bytes BaseApp wraps in an Any.Value
// payload, the same protowire tag-per-field style x/auth/tx uses for its
// own message shapes.
func MarshalMsgSend(m MsgSend) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldMsgSendFromAddress, protowire.BytesType)
	buf = protowire.AppendString(buf, m.FromAddress)
	buf = protowire.AppendTag(buf, fieldMsgSendToAddress, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ToAddress)
	for _, c := range m.Amount {
		buf = protowire.AppendTag(buf, fieldMsgSendAmount, protowire.BytesType)
		buf = protowire.AppendBytes(buf, sdk.MarshalCoin(c))
	}
	return buf
}

// DecodeMsgSend parses an Any.Value payload into MsgSend, the decode half
// BaseApp's message router uses once it has matched a TypeURL.
func DecodeMsgSend(data []byte) (MsgSend, error) {
	var m MsgSend
	var coins []sdk.Coin
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgSend{}, fmt.Errorf("corrupt MsgSend: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldMsgSendFromAddress:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgSend{}, fmt.Errorf("corrupt MsgSend: from_address")
			}
			m.FromAddress = string(v)
			data = data[n:]
		case fieldMsgSendToAddress:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgSend{}, fmt.Errorf("corrupt MsgSend: to_address")
			}
			m.ToAddress = string(v)
			data = data[n:]
		case fieldMsgSendAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgSend{}, fmt.Errorf("corrupt MsgSend: amount")
			}
			c, err := sdk.DecodeCoin(v)
			if err != nil {
				return MsgSend{}, err
			}
			coins = append(coins, c)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgSend{}, fmt.Errorf("corrupt MsgSend: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	m.Amount = sdk.NewCoins(coins...)
	return m, nil
}
