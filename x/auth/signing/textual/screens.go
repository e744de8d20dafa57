package textual

import (
	"encoding/hex"
	"strconv"
	"strings"

	sdk "github.com/chainkit/corechain/types"
)

// Screen is one line of a textual rendering: a title/content pair a
// hardware signer can print verbatim, optionally indented under a parent
// screen (for repeated or nested fields, e.g. per-message or per-coin
// detail) and optionally marked expert-only (hidden unless the signer has
// opted into verbose review).
type Screen struct {
	Title  string
	Content string
	Indent  uint64
	Expert  bool
}

// field numbers within one encoded screen map - only non-default fields
// are emitted, matching the envelope's preference for compactness.
const (
	screenFieldTitle   = 1
	screenFieldContent = 2
	screenFieldIndent  = 3
	screenFieldExpert  = 4
)

func encodeScreen(buf []byte, s Screen) []byte {
	n := 0
	if s.Title != "" {
		n++
	}
	if s.Content != "" {
		n++
	}
	if s.Indent != 0 {
		n++
	}
	if s.Expert {
		n++
	}
	buf = EncodeMapHeader(buf, n)
	if s.Title != "" {
		buf = EncodeUint(buf, screenFieldTitle)
		buf = EncodeTextString(buf, s.Title)
	}
	if s.Content != "" {
		buf = EncodeUint(buf, screenFieldContent)
		buf = EncodeTextString(buf, s.Content)
	}
	if s.Indent != 0 {
		buf = EncodeUint(buf, screenFieldIndent)
		buf = EncodeUint(buf, s.Indent)
	}
	if s.Expert {
		buf = EncodeUint(buf, screenFieldExpert)
		buf = EncodeBool(buf, true)
	}
	return buf
}

// envelopeFieldScreens is the single field the top-level CBOR envelope
// carries: an ordered array of rendered screens.
const envelopeFieldScreens = 1

// EncodeEnvelope wraps a screen list in the one-field top-level map the
// signer expects: {1: [screens...]}.
func EncodeEnvelope(screens []Screen) []byte {
	buf := EncodeMapHeader(nil, 1)
	buf = EncodeUint(buf, envelopeFieldScreens)
	buf = EncodeArrayHeader(buf, len(screens))
	for _, s := range screens {
		buf = encodeScreen(buf, s)
	}
	return buf
}

// SignDocInput is the decoded information the renderer needs; it mirrors
// the SignDoc plus account metadata the signer is shown out of band (the
// account number isn't carried on the wire in Direct mode but is needed
// here since Textual screens always state it explicitly).
type SignDocInput struct {
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
	Signer        string
	PublicKey     []byte
	Messages      []MessageRender
	Memo          string
	Fee           []sdk.Coin
	FeePayer      string
	FeeGranter    string
	Tip           []sdk.Coin
	Tipper        string
	GasLimit      uint64
	TimeoutHeight uint64
	RawBytesHash  []byte
}

// MessageRender is the minimal per-message detail the renderer needs; the
// AnteHandler's signing step supplies one of these per sdk.Msg by asking
// the module that owns the message type to describe itself.
type MessageRender struct {
	Type    string
	Summary string
	Detail  []Screen
}

// Render produces the ordered screen list for a transaction: chain-id,
// account number (if non-zero), sequence (if non-zero), address, public
// key, message count, each message's type-url and rendered content, memo
// (if non-empty), fees (if any), fee payer/granter (if set), tip (if set), gas
// limit (if non-zero), timeout height (if non-zero), and the hash of the
// raw bytes - the order a hardware-signer review walks top to bottom.
func Render(in SignDocInput) []Screen {
	screens := []Screen{{Title: "Chain id", Content: in.ChainID}}
	if in.AccountNumber != 0 {
		screens = append(screens, Screen{Title: "Account number", Content: strconv.FormatUint(in.AccountNumber, 10)})
	}
	if in.Sequence != 0 {
		screens = append(screens, Screen{Title: "Sequence", Content: strconv.FormatUint(in.Sequence, 10)})
	}
	screens = append(screens,
		Screen{Title: "Address", Content: in.Signer},
		Screen{Title: "Public key", Content: hex.EncodeToString(in.PublicKey), Expert: true},
		Screen{Title: "Message count", Content: strconv.Itoa(len(in.Messages))},
	)
	for i, msg := range in.Messages {
		screens = append(screens, Screen{Title: msgTitle(i, len(in.Messages)), Content: msg.Type})
		if msg.Summary != "" {
			screens = append(screens, Screen{Content: msg.Summary, Indent: 1})
		}
		for _, d := range msg.Detail {
			d.Indent++
			screens = append(screens, d)
		}
	}
	if in.Memo != "" {
		screens = append(screens, Screen{Title: "Memo", Content: in.Memo})
	}
	if len(in.Fee) > 0 {
		screens = append(screens, Screen{Title: "Fees", Content: coinsString(in.Fee)})
	}
	if in.FeePayer != "" {
		screens = append(screens, Screen{Title: "Fee payer", Content: in.FeePayer, Expert: true})
	}
	if in.FeeGranter != "" {
		screens = append(screens, Screen{Title: "Fee granter", Content: in.FeeGranter, Expert: true})
	}
	if len(in.Tip) > 0 {
		screens = append(screens, Screen{Title: "Tip", Content: coinsString(in.Tip)})
		if in.Tipper != "" {
			screens = append(screens, Screen{Title: "Tipper", Content: in.Tipper})
		}
	}
	if in.GasLimit != 0 {
		screens = append(screens, Screen{Title: "Gas limit", Content: strconv.FormatUint(in.GasLimit, 10), Expert: true})
	}
	if in.TimeoutHeight != 0 {
		screens = append(screens, Screen{Title: "Timeout height", Content: strconv.FormatUint(in.TimeoutHeight, 10), Expert: true})
	}
	screens = append(screens, Screen{Title: "Hash of raw bytes", Content: hex.EncodeToString(in.RawBytesHash), Expert: true})
	return screens
}

func coinsString(coins []sdk.Coin) string {
	parts := make([]string, 0, len(coins))
	for _, c := range coins {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

func msgTitle(i, n int) string {
	if n == 1 {
		return "Message"
	}
	return "Message (" + strconv.Itoa(i+1) + "/" + strconv.Itoa(n) + ")"
}
