package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	sdk "github.com/chainkit/corechain/types"
)

// Field numbers below mirror cosmos-sdk's staking.proto message layouts;
// there is no .proto pipeline here so they are declared directly as the
// protowire tags each Marshal/Decode pair agrees on.

const (
	fieldDescriptionMoniker  = 1
	fieldDescriptionIdentity = 2
	fieldDescriptionWebsite  = 3
	fieldDescriptionDetails  = 4
)

func marshalDescription(d Description) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldDescriptionMoniker, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Moniker)
	buf = protowire.AppendTag(buf, fieldDescriptionIdentity, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Identity)
	buf = protowire.AppendTag(buf, fieldDescriptionWebsite, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Website)
	buf = protowire.AppendTag(buf, fieldDescriptionDetails, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Details)
	return buf
}

func decodeDescription(data []byte) (Description, error) {
	var d Description
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Description{}, fmt.Errorf("corrupt Description: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldDescriptionMoniker:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Description{}, fmt.Errorf("corrupt Description: moniker")
			}
			d.Moniker = string(v)
			data = data[n:]
		case fieldDescriptionIdentity:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Description{}, fmt.Errorf("corrupt Description: identity")
			}
			d.Identity = string(v)
			data = data[n:]
		case fieldDescriptionWebsite:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Description{}, fmt.Errorf("corrupt Description: website")
			}
			d.Website = string(v)
			data = data[n:]
		case fieldDescriptionDetails:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Description{}, fmt.Errorf("corrupt Description: details")
			}
			d.Details = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Description{}, fmt.Errorf("corrupt Description: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return d, nil
}

const (
	fieldCommissionRate          = 1
	fieldCommissionMaxRate       = 2
	fieldCommissionMaxChangeRate = 3
)

func marshalCommission(c Commission) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldCommissionRate, protowire.BytesType)
	buf = protowire.AppendString(buf, c.Rate.WireString())
	buf = protowire.AppendTag(buf, fieldCommissionMaxRate, protowire.BytesType)
	buf = protowire.AppendString(buf, c.MaxRate.WireString())
	buf = protowire.AppendTag(buf, fieldCommissionMaxChangeRate, protowire.BytesType)
	buf = protowire.AppendString(buf, c.MaxChangeRate.WireString())
	return buf
}

func decodeCommission(data []byte) (Commission, error) {
	var rate, maxRate, maxChangeRate string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Commission{}, fmt.Errorf("corrupt Commission: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldCommissionRate:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Commission{}, fmt.Errorf("corrupt Commission: rate")
			}
			rate = string(v)
			data = data[n:]
		case fieldCommissionMaxRate:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Commission{}, fmt.Errorf("corrupt Commission: max_rate")
			}
			maxRate = string(v)
			data = data[n:]
		case fieldCommissionMaxChangeRate:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Commission{}, fmt.Errorf("corrupt Commission: max_change_rate")
			}
			maxChangeRate = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Commission{}, fmt.Errorf("corrupt Commission: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	r, ok := sdk.NewDecFromWireString(rate)
	if !ok {
		return Commission{}, fmt.Errorf("corrupt Commission: invalid rate %q", rate)
	}
	mr, ok := sdk.NewDecFromWireString(maxRate)
	if !ok {
		return Commission{}, fmt.Errorf("corrupt Commission: invalid max_rate %q", maxRate)
	}
	mcr, ok := sdk.NewDecFromWireString(maxChangeRate)
	if !ok {
		return Commission{}, fmt.Errorf("corrupt Commission: invalid max_change_rate %q", maxChangeRate)
	}
	return Commission{Rate: r, MaxRate: mr, MaxChangeRate: mcr}, nil
}

const (
	fieldCreateValDescription     = 1
	fieldCreateValCommission      = 2
	fieldCreateValMinSelfDelegate = 3
	fieldCreateValDelegatorAddr   = 4
	fieldCreateValValidatorAddr   = 5
	fieldCreateValConsPubKey      = 6
	fieldCreateValValue           = 7
)

// MarshalMsgCreateValidator encodes m for BaseApp's Any.Value payload.
func MarshalMsgCreateValidator(m MsgCreateValidator) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldCreateValDescription, protowire.BytesType)
	buf = protowire.AppendBytes(buf, marshalDescription(m.Description))
	buf = protowire.AppendTag(buf, fieldCreateValCommission, protowire.BytesType)
	buf = protowire.AppendBytes(buf, marshalCommission(m.Commission))
	buf = protowire.AppendTag(buf, fieldCreateValMinSelfDelegate, protowire.BytesType)
	buf = protowire.AppendString(buf, m.MinSelfDelegation.String())
	buf = protowire.AppendTag(buf, fieldCreateValDelegatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.DelegatorAddress)
	buf = protowire.AppendTag(buf, fieldCreateValValidatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorAddress)
	buf = protowire.AppendTag(buf, fieldCreateValConsPubKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, m.ConsensusPubKey)
	buf = protowire.AppendTag(buf, fieldCreateValValue, protowire.BytesType)
	buf = protowire.AppendBytes(buf, sdk.MarshalCoin(m.Value))
	return buf
}

// DecodeMsgCreateValidator is MarshalMsgCreateValidator's inverse.
func DecodeMsgCreateValidator(data []byte) (MsgCreateValidator, error) {
	var m MsgCreateValidator
	var minSelfDelegation string
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldCreateValDescription:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: description")
			}
			d, err := decodeDescription(v)
			if err != nil {
				return MsgCreateValidator{}, err
			}
			m.Description = d
			data = data[n:]
		case fieldCreateValCommission:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: commission")
			}
			c, err := decodeCommission(v)
			if err != nil {
				return MsgCreateValidator{}, err
			}
			m.Commission = c
			data = data[n:]
		case fieldCreateValMinSelfDelegate:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: min_self_delegation")
			}
			minSelfDelegation = string(v)
			data = data[n:]
		case fieldCreateValDelegatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: delegator_address")
			}
			m.DelegatorAddress = string(v)
			data = data[n:]
		case fieldCreateValValidatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: validator_address")
			}
			m.ValidatorAddress = string(v)
			data = data[n:]
		case fieldCreateValConsPubKey:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: consensus_pubkey")
			}
			m.ConsensusPubKey = append([]byte(nil), v...)
			data = data[n:]
		case fieldCreateValValue:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: value")
			}
			c, err := sdk.DecodeCoin(v)
			if err != nil {
				return MsgCreateValidator{}, err
			}
			m.Value = c
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	amt, ok := sdk.NewIntFromString(minSelfDelegation)
	if !ok {
		return MsgCreateValidator{}, fmt.Errorf("corrupt MsgCreateValidator: invalid min_self_delegation %q", minSelfDelegation)
	}
	m.MinSelfDelegation = amt
	return m, nil
}

const (
	fieldDelegateDelegatorAddr = 1
	fieldDelegateValidatorAddr = 2
	fieldDelegateAmount        = 3
)

// MarshalMsgDelegate encodes m for BaseApp's Any.Value payload.
func MarshalMsgDelegate(m MsgDelegate) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldDelegateDelegatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.DelegatorAddress)
	buf = protowire.AppendTag(buf, fieldDelegateValidatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorAddress)
	buf = protowire.AppendTag(buf, fieldDelegateAmount, protowire.BytesType)
	buf = protowire.AppendBytes(buf, sdk.MarshalCoin(m.Amount))
	return buf
}

// DecodeMsgDelegate is MarshalMsgDelegate's inverse.
func DecodeMsgDelegate(data []byte) (MsgDelegate, error) {
	var m MsgDelegate
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgDelegate{}, fmt.Errorf("corrupt MsgDelegate: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldDelegateDelegatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgDelegate{}, fmt.Errorf("corrupt MsgDelegate: delegator_address")
			}
			m.DelegatorAddress = string(v)
			data = data[n:]
		case fieldDelegateValidatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgDelegate{}, fmt.Errorf("corrupt MsgDelegate: validator_address")
			}
			m.ValidatorAddress = string(v)
			data = data[n:]
		case fieldDelegateAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgDelegate{}, fmt.Errorf("corrupt MsgDelegate: amount")
			}
			c, err := sdk.DecodeCoin(v)
			if err != nil {
				return MsgDelegate{}, err
			}
			m.Amount = c
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgDelegate{}, fmt.Errorf("corrupt MsgDelegate: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return m, nil
}

// MarshalMsgUndelegate encodes m for BaseApp's Any.Value payload. Field
// numbers match MsgDelegate's since the two messages share the same shape.
func MarshalMsgUndelegate(m MsgUndelegate) []byte {
	return MarshalMsgDelegate(MsgDelegate(m))
}

// DecodeMsgUndelegate is MarshalMsgUndelegate's inverse.
func DecodeMsgUndelegate(data []byte) (MsgUndelegate, error) {
	m, err := DecodeMsgDelegate(data)
	if err != nil {
		return MsgUndelegate{}, err
	}
	return MsgUndelegate(m), nil
}

const (
	fieldRedelegateDelegatorAddr = 1
	fieldRedelegateSrcAddr       = 2
	fieldRedelegateDstAddr       = 3
	fieldRedelegateAmount        = 4
)

// MarshalMsgBeginRedelegate encodes m for BaseApp's Any.Value payload.
func MarshalMsgBeginRedelegate(m MsgBeginRedelegate) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldRedelegateDelegatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.DelegatorAddress)
	buf = protowire.AppendTag(buf, fieldRedelegateSrcAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorSrcAddress)
	buf = protowire.AppendTag(buf, fieldRedelegateDstAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorDstAddress)
	buf = protowire.AppendTag(buf, fieldRedelegateAmount, protowire.BytesType)
	buf = protowire.AppendBytes(buf, sdk.MarshalCoin(m.Amount))
	return buf
}

// DecodeMsgBeginRedelegate is MarshalMsgBeginRedelegate's inverse.
func DecodeMsgBeginRedelegate(data []byte) (MsgBeginRedelegate, error) {
	var m MsgBeginRedelegate
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldRedelegateDelegatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: delegator_address")
			}
			m.DelegatorAddress = string(v)
			data = data[n:]
		case fieldRedelegateSrcAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: validator_src_address")
			}
			m.ValidatorSrcAddress = string(v)
			data = data[n:]
		case fieldRedelegateDstAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: validator_dst_address")
			}
			m.ValidatorDstAddress = string(v)
			data = data[n:]
		case fieldRedelegateAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: amount")
			}
			c, err := sdk.DecodeCoin(v)
			if err != nil {
				return MsgBeginRedelegate{}, err
			}
			m.Amount = c
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgBeginRedelegate{}, fmt.Errorf("corrupt MsgBeginRedelegate: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return m, nil
}

const (
	fieldEditValDescription     = 1
	fieldEditValValidatorAddr   = 2
	fieldEditValCommissionRate  = 3
	fieldEditValHasCommission   = 4
)

// MarshalMsgEditValidator encodes m for BaseApp's Any.Value payload.
// CommissionRate is only present on the wire when non-nil; field 4 carries
// a single presence byte so the decoder can distinguish "no change
// requested" from a rate of exactly zero.
func MarshalMsgEditValidator(m MsgEditValidator) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldEditValDescription, protowire.BytesType)
	buf = protowire.AppendBytes(buf, marshalDescription(m.Description))
	buf = protowire.AppendTag(buf, fieldEditValValidatorAddr, protowire.BytesType)
	buf = protowire.AppendString(buf, m.ValidatorAddress)
	if m.CommissionRate != nil {
		buf = protowire.AppendTag(buf, fieldEditValHasCommission, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
		buf = protowire.AppendTag(buf, fieldEditValCommissionRate, protowire.BytesType)
		buf = protowire.AppendString(buf, m.CommissionRate.WireString())
	}
	return buf
}

// DecodeMsgEditValidator is MarshalMsgEditValidator's inverse.
func DecodeMsgEditValidator(data []byte) (MsgEditValidator, error) {
	var m MsgEditValidator
	var rate string
	var hasRate bool
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldEditValDescription:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: description")
			}
			d, err := decodeDescription(v)
			if err != nil {
				return MsgEditValidator{}, err
			}
			m.Description = d
			data = data[n:]
		case fieldEditValValidatorAddr:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: validator_address")
			}
			m.ValidatorAddress = string(v)
			data = data[n:]
		case fieldEditValHasCommission:
			_, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: has_commission_rate")
			}
			hasRate = true
			data = data[n:]
		case fieldEditValCommissionRate:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: commission_rate")
			}
			rate = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	if hasRate {
		r, ok := sdk.NewDecFromWireString(rate)
		if !ok {
			return MsgEditValidator{}, fmt.Errorf("corrupt MsgEditValidator: invalid commission_rate %q", rate)
		}
		m.CommissionRate = &r
	}
	return m, nil
}
