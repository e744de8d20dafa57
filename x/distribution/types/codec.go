package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldWithdrawDelegatorAddress = 1
	fieldWithdrawValidatorAddress = 2
)

func MarshalMsgWithdrawDelegatorReward(m MsgWithdrawDelegatorReward) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldWithdrawDelegatorAddress, protowire.BytesType)
	buf = protowire.AppendString(buf, m.DelegatorAddress)
	buf = protowire.AppendTag(buf, fieldWithdrawValidatorAddress, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorAddress)
	return buf
}

func DecodeMsgWithdrawDelegatorReward(data []byte) (MsgWithdrawDelegatorReward, error) {
	var m MsgWithdrawDelegatorReward
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgWithdrawDelegatorReward{}, fmt.Errorf("corrupt MsgWithdrawDelegatorReward: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldWithdrawDelegatorAddress:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgWithdrawDelegatorReward{}, fmt.Errorf("corrupt MsgWithdrawDelegatorReward: delegator_address")
			}
			m.DelegatorAddress = string(v)
			data = data[n:]
		case fieldWithdrawValidatorAddress:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgWithdrawDelegatorReward{}, fmt.Errorf("corrupt MsgWithdrawDelegatorReward: validator_address")
			}
			m.ValidatorAddress = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgWithdrawDelegatorReward{}, fmt.Errorf("corrupt MsgWithdrawDelegatorReward: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return m, nil
}

func MarshalMsgWithdrawValidatorCommission(m MsgWithdrawValidatorCommission) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldWithdrawValidatorAddress, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorAddress)
	return buf
}

func DecodeMsgWithdrawValidatorCommission(data []byte) (MsgWithdrawValidatorCommission, error) {
	var m MsgWithdrawValidatorCommission
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgWithdrawValidatorCommission{}, fmt.Errorf("corrupt MsgWithdrawValidatorCommission: bad tag")
		}
		data = data[n:]
		if num == fieldWithdrawValidatorAddress {
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgWithdrawValidatorCommission{}, fmt.Errorf("corrupt MsgWithdrawValidatorCommission: validator_address")
			}
			m.ValidatorAddress = string(v)
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return MsgWithdrawValidatorCommission{}, fmt.Errorf("corrupt MsgWithdrawValidatorCommission: unknown field %d", num)
		}
		data = data[n:]
	}
	return m, nil
}
