package types

import (
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/auth/signing/textual"
)

// MsgSend moves Amount from FromAddress to ToAddress - the one message
// type the AnteHandler fee-deduct stage and the transfer flow exercise
// directly.
type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      sdk.Coins
}

const TypeURLMsgSend = "/bank.MsgSend"

func (m MsgSend) TypeURL() string { return TypeURLMsgSend }

// ValidateBasic performs stateless checks only - existence of the
// accounts and sufficiency of funds are left to the handler, which has
// state access.
func (m MsgSend) ValidateBasic() error {
	if m.FromAddress == "" || m.ToAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing send address")
	}
	if len(m.Amount) == 0 || m.Amount.IsZero() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, "send amount must be positive")
	}
	for _, c := range m.Amount {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m MsgSend) GetSigners() []string { return []string{m.FromAddress} }

// Render describes the message for the textual sign-mode renderer:
// one summary line plus a per-coin detail screen.
func (m MsgSend) Render() textual.MessageRender {
	detail := make([]textual.Screen, 0, len(m.Amount))
	for _, c := range m.Amount {
		detail = append(detail, textual.Screen{Title: "Amount", Content: c.String()})
	}
	detail = append(detail, textual.Screen{Title: "To", Content: m.ToAddress})
	return textual.MessageRender{
		Type:    TypeURLMsgSend,
		Summary: "Send " + m.Amount.String() + " to " + m.ToAddress,
		Detail:  detail,
	}
}
