// Package tx implements the three wire messages the kernel signs and
// verifies against: Tx, TxRaw, and SignDoc. Encoding uses
// google.golang.org/protobuf's low-level protowire package directly -
// varint and length-delimited field primitives - rather than a full
// generated-code/.proto pipeline, since these message shapes are
// fixed and small.
package tx

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Any is the minimal (type_url, value) pair messages are wrapped in,
// mirroring google.protobuf.Any's wire shape without pulling in the full
// well-known-types registry.
type Any struct {
	TypeURL string
	Value   []byte
}

type ModeInfo struct {
	SignMode int32
}

type SignerInfo struct {
	PublicKey []byte // compressed secp256k1 or raw ed25519
	ModeInfo  ModeInfo
	Sequence  uint64
}

type Fee struct {
	Amount   []CoinWire
	GasLimit uint64
	Payer    string
	Granter  string
}

// CoinWire avoids importing the types package (which would create an
// import cycle with x/auth importing types.Context) while still carrying
// the two fields a Coin needs on the wire.
type CoinWire struct {
	Denom  string
	Amount string
}

type Tip struct {
	Amount []CoinWire
	Tipper string
}

type TxBody struct {
	Messages       []Any
	Memo           string
	TimeoutHeight  uint64
	ExtensionCount int // count only; BaseApp's runTx rejects a tx with a non-zero count right after decoding
}

type AuthInfo struct {
	SignerInfos []SignerInfo
	Fee         Fee
	Tip         *Tip
}

type Tx struct {
	Body       TxBody
	AuthInfo   AuthInfo
	Signatures [][]byte
}

type TxRaw struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

type SignDoc struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

// field numbers, matching cosmos-sdk's tx.proto layout.
const (
	fieldTxBody       = 1
	fieldTxAuthInfo   = 2
	fieldTxSignatures = 3

	fieldBodyMessages      = 1
	fieldBodyMemo          = 2
	fieldBodyTimeoutHeight = 3
	fieldBodyExtensions    = 1023

	fieldAuthInfoSignerInfos = 1
	fieldAuthInfoFee         = 2
	fieldAuthInfoTip         = 3

	fieldSignerInfoPublicKey = 1
	fieldSignerInfoModeInfo  = 2
	fieldSignerInfoSequence  = 3

	fieldFeeAmount   = 1
	fieldFeeGasLimit = 2
	fieldFeePayer    = 3
	fieldFeeGranter  = 4

	fieldTipAmount = 1
	fieldTipTipper = 2

	fieldCoinDenom  = 1
	fieldCoinAmount = 2

	fieldAnyTypeURL = 1
	fieldAnyValue   = 2

	fieldModeInfoSignMode = 1

	fieldTxRawBody       = 1
	fieldTxRawAuthInfo   = 2
	fieldTxRawSignatures = 3

	fieldSignDocBody          = 1
	fieldSignDocAuthInfo      = 2
	fieldSignDocChainID       = 3
	fieldSignDocAccountNumber = 4
)

func marshalCoins(coins []CoinWire) []byte {
	var out []byte
	for _, c := range coins {
		var buf []byte
		buf = protowire.AppendTag(buf, fieldCoinDenom, protowire.BytesType)
		buf = protowire.AppendString(buf, c.Denom)
		buf = protowire.AppendTag(buf, fieldCoinAmount, protowire.BytesType)
		buf = protowire.AppendString(buf, c.Amount)
		out = protowire.AppendTag(out, fieldFeeAmount, protowire.BytesType)
		out = protowire.AppendBytes(out, buf)
	}
	return out
}

func marshalAny(a Any) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldAnyTypeURL, protowire.BytesType)
	buf = protowire.AppendString(buf, a.TypeURL)
	buf = protowire.AppendTag(buf, fieldAnyValue, protowire.BytesType)
	buf = protowire.AppendBytes(buf, a.Value)
	return buf
}

// MarshalBody encodes TxBody to its canonical bytes, used both for
// transmission and, unmodified, as the body_bytes signed over.
func MarshalBody(b TxBody) []byte {
	var buf []byte
	for _, m := range b.Messages {
		buf = protowire.AppendTag(buf, fieldBodyMessages, protowire.BytesType)
		buf = protowire.AppendBytes(buf, marshalAny(m))
	}
	if b.Memo != "" {
		buf = protowire.AppendTag(buf, fieldBodyMemo, protowire.BytesType)
		buf = protowire.AppendString(buf, b.Memo)
	}
	if b.TimeoutHeight != 0 {
		buf = protowire.AppendTag(buf, fieldBodyTimeoutHeight, protowire.VarintType)
		buf = protowire.AppendVarint(buf, b.TimeoutHeight)
	}
	return buf
}

func marshalSignerInfo(s SignerInfo) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldSignerInfoPublicKey, protowire.BytesType)
	buf = protowire.AppendBytes(buf, s.PublicKey)

	var modeBuf []byte
	modeBuf = protowire.AppendTag(modeBuf, fieldModeInfoSignMode, protowire.VarintType)
	modeBuf = protowire.AppendVarint(modeBuf, uint64(s.ModeInfo.SignMode))
	buf = protowire.AppendTag(buf, fieldSignerInfoModeInfo, protowire.BytesType)
	buf = protowire.AppendBytes(buf, modeBuf)

	buf = protowire.AppendTag(buf, fieldSignerInfoSequence, protowire.VarintType)
	buf = protowire.AppendVarint(buf, s.Sequence)
	return buf
}

func marshalFee(f Fee) []byte {
	var buf []byte
	buf = append(buf, marshalCoins(f.Amount)...)
	buf = protowire.AppendTag(buf, fieldFeeGasLimit, protowire.VarintType)
	buf = protowire.AppendVarint(buf, f.GasLimit)
	if f.Payer != "" {
		buf = protowire.AppendTag(buf, fieldFeePayer, protowire.BytesType)
		buf = protowire.AppendString(buf, f.Payer)
	}
	if f.Granter != "" {
		buf = protowire.AppendTag(buf, fieldFeeGranter, protowire.BytesType)
		buf = protowire.AppendString(buf, f.Granter)
	}
	return buf
}

// MarshalAuthInfo encodes AuthInfo to its canonical bytes.
func MarshalAuthInfo(a AuthInfo) []byte {
	var buf []byte
	for _, si := range a.SignerInfos {
		buf = protowire.AppendTag(buf, fieldAuthInfoSignerInfos, protowire.BytesType)
		buf = protowire.AppendBytes(buf, marshalSignerInfo(si))
	}
	buf = protowire.AppendTag(buf, fieldAuthInfoFee, protowire.BytesType)
	buf = protowire.AppendBytes(buf, marshalFee(a.Fee))
	if a.Tip != nil {
		var tipBuf []byte
		tipBuf = append(tipBuf, marshalCoins(a.Tip.Amount)...)
		tipBuf = protowire.AppendTag(tipBuf, fieldTipTipper, protowire.BytesType)
		tipBuf = protowire.AppendString(tipBuf, a.Tip.Tipper)
		buf = protowire.AppendTag(buf, fieldAuthInfoTip, protowire.BytesType)
		buf = protowire.AppendBytes(buf, tipBuf)
	}
	return buf
}

// MarshalTxRaw encodes TxRaw, the stable-bytes form used to obtain
// sign-bytes independent of the in-memory Tx struct's field order.
func MarshalTxRaw(r TxRaw) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldTxRawBody, protowire.BytesType)
	buf = protowire.AppendBytes(buf, r.BodyBytes)
	buf = protowire.AppendTag(buf, fieldTxRawAuthInfo, protowire.BytesType)
	buf = protowire.AppendBytes(buf, r.AuthInfoBytes)
	for _, sig := range r.Signatures {
		buf = protowire.AppendTag(buf, fieldTxRawSignatures, protowire.BytesType)
		buf = protowire.AppendBytes(buf, sig)
	}
	return buf
}

// MarshalSignDoc encodes the SignDoc used for SignMode_DIRECT sign bytes.
func MarshalSignDoc(d SignDoc) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldSignDocBody, protowire.BytesType)
	buf = protowire.AppendBytes(buf, d.BodyBytes)
	buf = protowire.AppendTag(buf, fieldSignDocAuthInfo, protowire.BytesType)
	buf = protowire.AppendBytes(buf, d.AuthInfoBytes)
	buf = protowire.AppendTag(buf, fieldSignDocChainID, protowire.BytesType)
	buf = protowire.AppendString(buf, d.ChainID)
	buf = protowire.AppendTag(buf, fieldSignDocAccountNumber, protowire.VarintType)
	buf = protowire.AppendVarint(buf, d.AccountNumber)
	return buf
}

// DecodeTx parses raw tx bytes all the way down to structured Body and
// AuthInfo, returning the intermediate TxRaw too since its body_bytes and
// auth_info_bytes are what SignDoc signs over.
func DecodeTx(data []byte) (Tx, TxRaw, error) {
	raw, err := DecodeTxRaw(data)
	if err != nil {
		return Tx{}, TxRaw{}, err
	}
	body, err := DecodeBody(raw.BodyBytes)
	if err != nil {
		return Tx{}, TxRaw{}, err
	}
	authInfo, err := DecodeAuthInfo(raw.AuthInfoBytes)
	if err != nil {
		return Tx{}, TxRaw{}, err
	}
	return Tx{Body: body, AuthInfo: authInfo, Signatures: raw.Signatures}, raw, nil
}

// DecodeTxRaw parses the outermost Tx envelope: body bytes, auth-info
// bytes (both kept raw for downstream re-parsing and for sign-byte
// reconstruction), and the signature list.
func DecodeTxRaw(data []byte) (TxRaw, error) {
	var raw TxRaw
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return TxRaw{}, fmt.Errorf("corrupt tx envelope: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldTxRawBody:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return TxRaw{}, fmt.Errorf("corrupt tx envelope: body")
			}
			raw.BodyBytes = append([]byte(nil), v...)
			data = data[n:]
		case fieldTxRawAuthInfo:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return TxRaw{}, fmt.Errorf("corrupt tx envelope: auth_info")
			}
			raw.AuthInfoBytes = append([]byte(nil), v...)
			data = data[n:]
		case fieldTxRawSignatures:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return TxRaw{}, fmt.Errorf("corrupt tx envelope: signature")
			}
			raw.Signatures = append(raw.Signatures, append([]byte(nil), v...))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return TxRaw{}, fmt.Errorf("corrupt tx envelope: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return raw, nil
}

// DecodeBody parses a TxBody. extension_options fields (tag 1023) are
// counted in ExtensionCount, not rejected here; BaseApp's runTx rejects a
// tx whose count is non-zero.
func DecodeBody(data []byte) (TxBody, error) {
	var b TxBody
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return TxBody{}, fmt.Errorf("corrupt tx body: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldBodyMessages:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return TxBody{}, fmt.Errorf("corrupt tx body: message")
			}
			any, err := decodeAny(v)
			if err != nil {
				return TxBody{}, err
			}
			b.Messages = append(b.Messages, any)
			data = data[n:]
		case fieldBodyMemo:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return TxBody{}, fmt.Errorf("corrupt tx body: memo")
			}
			b.Memo = string(v)
			data = data[n:]
		case fieldBodyTimeoutHeight:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return TxBody{}, fmt.Errorf("corrupt tx body: timeout_height")
			}
			b.TimeoutHeight = v
			data = data[n:]
		case fieldBodyExtensions:
			b.ExtensionCount++
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return TxBody{}, fmt.Errorf("corrupt tx body: extension_options")
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return TxBody{}, fmt.Errorf("corrupt tx body: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return b, nil
}

func decodeAny(data []byte) (Any, error) {
	var a Any
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Any{}, fmt.Errorf("corrupt Any: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldAnyTypeURL:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Any{}, fmt.Errorf("corrupt Any: type_url")
			}
			a.TypeURL = string(v)
			data = data[n:]
		case fieldAnyValue:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Any{}, fmt.Errorf("corrupt Any: value")
			}
			a.Value = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Any{}, fmt.Errorf("corrupt Any: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return a, nil
}

// DecodeAuthInfo parses an AuthInfo.
func DecodeAuthInfo(data []byte) (AuthInfo, error) {
	var a AuthInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return AuthInfo{}, fmt.Errorf("corrupt auth_info: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldAuthInfoSignerInfos:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return AuthInfo{}, fmt.Errorf("corrupt auth_info: signer_info")
			}
			si, err := decodeSignerInfo(v)
			if err != nil {
				return AuthInfo{}, err
			}
			a.SignerInfos = append(a.SignerInfos, si)
			data = data[n:]
		case fieldAuthInfoFee:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return AuthInfo{}, fmt.Errorf("corrupt auth_info: fee")
			}
			fee, err := decodeFee(v)
			if err != nil {
				return AuthInfo{}, err
			}
			a.Fee = fee
			data = data[n:]
		case fieldAuthInfoTip:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return AuthInfo{}, fmt.Errorf("corrupt auth_info: tip")
			}
			tip, err := decodeTip(v)
			if err != nil {
				return AuthInfo{}, err
			}
			a.Tip = &tip
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return AuthInfo{}, fmt.Errorf("corrupt auth_info: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return a, nil
}

func decodeSignerInfo(data []byte) (SignerInfo, error) {
	var s SignerInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return SignerInfo{}, fmt.Errorf("corrupt signer_info: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldSignerInfoPublicKey:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return SignerInfo{}, fmt.Errorf("corrupt signer_info: public_key")
			}
			s.PublicKey = append([]byte(nil), v...)
			data = data[n:]
		case fieldSignerInfoModeInfo:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return SignerInfo{}, fmt.Errorf("corrupt signer_info: mode_info")
			}
			mode, err := decodeModeInfo(v)
			if err != nil {
				return SignerInfo{}, err
			}
			s.ModeInfo = mode
			data = data[n:]
		case fieldSignerInfoSequence:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return SignerInfo{}, fmt.Errorf("corrupt signer_info: sequence")
			}
			s.Sequence = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return SignerInfo{}, fmt.Errorf("corrupt signer_info: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return s, nil
}

func decodeModeInfo(data []byte) (ModeInfo, error) {
	var m ModeInfo
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ModeInfo{}, fmt.Errorf("corrupt mode_info: bad tag")
		}
		data = data[n:]
		if num == fieldModeInfoSignMode {
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return ModeInfo{}, fmt.Errorf("corrupt mode_info: sign_mode")
			}
			m.SignMode = int32(v)
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return ModeInfo{}, fmt.Errorf("corrupt mode_info: unknown field %d", num)
		}
		data = data[n:]
	}
	return m, nil
}

func decodeFee(data []byte) (Fee, error) {
	var f Fee
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Fee{}, fmt.Errorf("corrupt fee: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldFeeAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Fee{}, fmt.Errorf("corrupt fee: amount")
			}
			c, err := decodeCoin(v)
			if err != nil {
				return Fee{}, err
			}
			f.Amount = append(f.Amount, c)
			data = data[n:]
		case fieldFeeGasLimit:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Fee{}, fmt.Errorf("corrupt fee: gas_limit")
			}
			f.GasLimit = v
			data = data[n:]
		case fieldFeePayer:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Fee{}, fmt.Errorf("corrupt fee: payer")
			}
			f.Payer = string(v)
			data = data[n:]
		case fieldFeeGranter:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Fee{}, fmt.Errorf("corrupt fee: granter")
			}
			f.Granter = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Fee{}, fmt.Errorf("corrupt fee: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return f, nil
}

func decodeTip(data []byte) (Tip, error) {
	var t Tip
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Tip{}, fmt.Errorf("corrupt tip: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldTipAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Tip{}, fmt.Errorf("corrupt tip: amount")
			}
			c, err := decodeCoin(v)
			if err != nil {
				return Tip{}, err
			}
			t.Amount = append(t.Amount, c)
			data = data[n:]
		case fieldTipTipper:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Tip{}, fmt.Errorf("corrupt tip: tipper")
			}
			t.Tipper = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Tip{}, fmt.Errorf("corrupt tip: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return t, nil
}

func decodeCoin(data []byte) (CoinWire, error) {
	var c CoinWire
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return CoinWire{}, fmt.Errorf("corrupt coin: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldCoinDenom:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return CoinWire{}, fmt.Errorf("corrupt coin: denom")
			}
			c.Denom = string(v)
			data = data[n:]
		case fieldCoinAmount:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return CoinWire{}, fmt.Errorf("corrupt coin: amount")
			}
			c.Amount = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return CoinWire{}, fmt.Errorf("corrupt coin: unknown field %d", num)
			}
			data = data[n:]
		}
	}
	return c, nil
}
