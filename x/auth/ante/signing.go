package ante

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chainkit/corechain/crypto/bech32"
	"github.com/chainkit/corechain/crypto/keys"
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/auth/signing/textual"
	txtypes "github.com/chainkit/corechain/x/auth/tx"
)

// SignMode enumerates the sign-mode values carried in ModeInfo.SignMode,
// matching cosmos-sdk's SignMode enum ordinals.
const (
	SignModeDirect         int32 = 1
	SignModeTextual        int32 = 2
	SignModeLegacyAminoJSON int32 = 127
)

// MsgDecoder resolves one wire message into its typed form - the same
// shape the BaseApp router's Decode has, so the app wiring passes it
// straight through. The textual mode needs it because only the owning
// module can render a message's screens.
type MsgDecoder func(typeURL string, value []byte) (sdk.Msg, error)

// textualRenderer is implemented by every module message that can
// describe itself for a hardware-signer review.
type textualRenderer interface {
	Render() textual.MessageRender
}

// SignBytes computes the bytes a signer must have signed for the given
// mode: Direct signs the protobuf SignDoc, LegacyAminoJson signs a
// canonical legacy JSON document, and Textual signs the CBOR screen
// envelope rendered from the decoded transaction.
func SignBytes(mode int32, tx txtypes.Tx, raw txtypes.TxRaw, chainID string, accountNumber uint64, signer txtypes.SignerInfo, decoder MsgDecoder) ([]byte, error) {
	switch mode {
	case SignModeDirect:
		doc := txtypes.SignDoc{
			BodyBytes:     raw.BodyBytes,
			AuthInfoBytes: raw.AuthInfoBytes,
			ChainID:       chainID,
			AccountNumber: accountNumber,
		}
		return txtypes.MarshalSignDoc(doc), nil
	case SignModeLegacyAminoJSON:
		return legacyAminoSignBytes(tx, chainID, accountNumber)
	case SignModeTextual:
		return textualSignBytes(tx, raw, chainID, accountNumber, signer, decoder)
	default:
		return nil, fmt.Errorf("unsupported sign mode: %d", mode)
	}
}

// textualSignBytes renders the transaction into the ordered screen list
// and CBOR-encodes the envelope; the envelope bytes ARE the signed bytes.
func textualSignBytes(tx txtypes.Tx, raw txtypes.TxRaw, chainID string, accountNumber uint64, signer txtypes.SignerInfo, decoder MsgDecoder) ([]byte, error) {
	if decoder == nil {
		return nil, fmt.Errorf("textual sign mode requires a message decoder")
	}
	renders := make([]textual.MessageRender, 0, len(tx.Body.Messages))
	for _, any := range tx.Body.Messages {
		msg, err := decoder(any.TypeURL, any.Value)
		if err != nil {
			return nil, err
		}
		r, ok := msg.(textualRenderer)
		if !ok {
			return nil, fmt.Errorf("message %s has no textual rendering", any.TypeURL)
		}
		renders = append(renders, r.Render())
	}

	signerBech, err := bech32.EncodeFromBytes(keys.PrefixAccAddr, addressFromPubKeyBytes(signer.PublicKey))
	if err != nil {
		return nil, err
	}

	in := textual.SignDocInput{
		ChainID:       chainID,
		AccountNumber: accountNumber,
		Sequence:      signer.Sequence,
		Signer:        signerBech,
		PublicKey:     signer.PublicKey,
		Messages:      renders,
		Memo:          tx.Body.Memo,
		Fee:           decodeFee(tx.AuthInfo.Fee.Amount),
		FeePayer:      tx.AuthInfo.Fee.Payer,
		FeeGranter:    tx.AuthInfo.Fee.Granter,
		GasLimit:      tx.AuthInfo.Fee.GasLimit,
		TimeoutHeight: tx.Body.TimeoutHeight,
		RawBytesHash:  rawBytesHash(raw),
	}
	if tx.AuthInfo.Tip != nil {
		in.Tip = decodeFee(tx.AuthInfo.Tip.Amount)
		in.Tipper = tx.AuthInfo.Tip.Tipper
	}
	return textual.EncodeEnvelope(textual.Render(in)), nil
}

// rawBytesHash digests the signed-over portion of the raw transaction
// (body and auth-info bytes; signatures cannot be included since the
// envelope is itself what gets signed).
func rawBytesHash(raw txtypes.TxRaw) []byte {
	buf := make([]byte, 0, len(raw.BodyBytes)+len(raw.AuthInfoBytes))
	buf = append(buf, raw.BodyBytes...)
	buf = append(buf, raw.AuthInfoBytes...)
	h := sha256.Sum256(buf)
	return h[:]
}

// legacyAminoSignBytes builds the canonical legacy-amino-JSON document:
// field-sorted JSON over {account_number, chain_id, fee, memo, msgs,
// sequence}, matching cosmos-sdk's StdSignDoc ordering.
func legacyAminoSignBytes(tx txtypes.Tx, chainID string, accountNumber uint64) ([]byte, error) {
	type stdFee struct {
		Amount []txtypes.CoinWire `json:"amount"`
		Gas    string             `json:"gas"`
	}
	doc := map[string]interface{}{
		"account_number": fmt.Sprintf("%d", accountNumber),
		"chain_id":       chainID,
		"fee": stdFee{
			Amount: tx.AuthInfo.Fee.Amount,
			Gas:    fmt.Sprintf("%d", tx.AuthInfo.Fee.GasLimit),
		},
		"memo": tx.Body.Memo,
		"msgs": tx.Body.Messages,
	}
	if len(tx.AuthInfo.SignerInfos) > 0 {
		doc["sequence"] = fmt.Sprintf("%d", tx.AuthInfo.SignerInfos[0].Sequence)
	}
	return canonicalJSON(doc)
}

// canonicalJSON marshals v with object keys sorted, the way amino's
// legacy JSON signer requires for deterministic sign bytes.
func canonicalJSON(v interface{}) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(bz, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, _ := json.Marshal(k)
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		return append(out, '}'), nil
	case []interface{}:
		out := []byte{'['}
		for i, e := range val {
			if i > 0 {
				out = append(out, ',')
			}
			eb, err := marshalSorted(e)
			if err != nil {
				return nil, err
			}
			out = append(out, eb...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(val)
	}
}

