package types

import (
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/auth/signing/textual"
)

// MsgCreateValidator registers a new validator backed by an initial
// self-delegation, the entry point into the bond-status lifecycle.
type MsgCreateValidator struct {
	Description       Description
	Commission        Commission
	MinSelfDelegation sdk.Int
	DelegatorAddress  string
	ValidatorAddress  string
	ConsensusPubKey   []byte
	Value             sdk.Coin
}

const TypeURLMsgCreateValidator = "/staking.MsgCreateValidator"

func (m MsgCreateValidator) TypeURL() string { return TypeURLMsgCreateValidator }

func (m MsgCreateValidator) ValidateBasic() error {
	if m.DelegatorAddress == "" || m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing address")
	}
	if len(m.ConsensusPubKey) == 0 {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidPublicKey, "missing consensus public key")
	}
	if m.Value.Amount.IsZero() || m.Value.Amount.IsNegative() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, "self-delegation must be positive")
	}
	if m.Commission.Rate.GT(m.Commission.MaxRate) {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "commission rate cannot exceed max rate")
	}
	return nil
}

func (m MsgCreateValidator) GetSigners() []string { return []string{m.DelegatorAddress} }

func (m MsgCreateValidator) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgCreateValidator,
		Summary: "Create validator " + m.ValidatorAddress + " with self-delegation " + m.Value.String(),
		Detail: []textual.Screen{
			{Title: "Moniker", Content: m.Description.Moniker},
			{Title: "Commission rate", Content: m.Commission.Rate.String()},
		},
	}
}

// MsgDelegate bonds Amount from DelegatorAddress to ValidatorAddress.
type MsgDelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           sdk.Coin
}

const TypeURLMsgDelegate = "/staking.MsgDelegate"

func (m MsgDelegate) TypeURL() string { return TypeURLMsgDelegate }

func (m MsgDelegate) ValidateBasic() error {
	if m.DelegatorAddress == "" || m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing address")
	}
	if m.Amount.Amount.IsZero() || m.Amount.Amount.IsNegative() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, "delegation amount must be positive")
	}
	return nil
}

func (m MsgDelegate) GetSigners() []string { return []string{m.DelegatorAddress} }

func (m MsgDelegate) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgDelegate,
		Summary: "Delegate " + m.Amount.String() + " to " + m.ValidatorAddress,
	}
}

// MsgUndelegate begins unbonding Amount of DelegatorAddress's stake with
// ValidatorAddress.
type MsgUndelegate struct {
	DelegatorAddress string
	ValidatorAddress string
	Amount           sdk.Coin
}

const TypeURLMsgUndelegate = "/staking.MsgUndelegate"

func (m MsgUndelegate) TypeURL() string { return TypeURLMsgUndelegate }

func (m MsgUndelegate) ValidateBasic() error {
	if m.DelegatorAddress == "" || m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing address")
	}
	if m.Amount.Amount.IsZero() || m.Amount.Amount.IsNegative() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, "undelegate amount must be positive")
	}
	return nil
}

func (m MsgUndelegate) GetSigners() []string { return []string{m.DelegatorAddress} }

func (m MsgUndelegate) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgUndelegate,
		Summary: "Undelegate " + m.Amount.String() + " from " + m.ValidatorAddress,
	}
}

// MsgEditValidator updates a validator's description and, at most once
// per CommissionUpdatePeriod, its commission rate.
type MsgEditValidator struct {
	Description      Description
	ValidatorAddress string
	CommissionRate   *sdk.Dec
}

const TypeURLMsgEditValidator = "/staking.MsgEditValidator"

func (m MsgEditValidator) TypeURL() string { return TypeURLMsgEditValidator }

func (m MsgEditValidator) ValidateBasic() error {
	if m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing validator address")
	}
	if m.CommissionRate != nil {
		if m.CommissionRate.IsNegative() || m.CommissionRate.GT(sdk.OneDec()) {
			return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "commission rate must be between 0 and 1")
		}
	}
	return nil
}

func (m MsgEditValidator) GetSigners() []string { return []string{m.ValidatorAddress} }

func (m MsgEditValidator) Render() textual.MessageRender {
	summary := "Edit validator " + m.ValidatorAddress
	return textual.MessageRender{
		Type:    TypeURLMsgEditValidator,
		Summary: summary,
		Detail: []textual.Screen{
			{Title: "Moniker", Content: m.Description.Moniker},
		},
	}
}

// MsgBeginRedelegate moves Amount of stake from ValidatorSrcAddress to
// ValidatorDstAddress without releasing liquidity through the unbonding
// queue.
type MsgBeginRedelegate struct {
	DelegatorAddress    string
	ValidatorSrcAddress string
	ValidatorDstAddress string
	Amount              sdk.Coin
}

const TypeURLMsgBeginRedelegate = "/staking.MsgBeginRedelegate"

func (m MsgBeginRedelegate) TypeURL() string { return TypeURLMsgBeginRedelegate }

func (m MsgBeginRedelegate) ValidateBasic() error {
	if m.DelegatorAddress == "" || m.ValidatorSrcAddress == "" || m.ValidatorDstAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing address")
	}
	if m.ValidatorSrcAddress == m.ValidatorDstAddress {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "source and destination validators must differ")
	}
	if m.Amount.Amount.IsZero() || m.Amount.Amount.IsNegative() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, "redelegation amount must be positive")
	}
	return nil
}

func (m MsgBeginRedelegate) GetSigners() []string { return []string{m.DelegatorAddress} }

func (m MsgBeginRedelegate) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgBeginRedelegate,
		Summary: "Redelegate " + m.Amount.String() + " from " + m.ValidatorSrcAddress + " to " + m.ValidatorDstAddress,
	}
}
