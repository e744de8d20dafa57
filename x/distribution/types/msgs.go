package types

import (
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/auth/signing/textual"
)

// MsgWithdrawDelegatorReward claims every reward accrued by one
// (delegator, validator) pair since the delegation's starting period.
type MsgWithdrawDelegatorReward struct {
	DelegatorAddress string
	ValidatorAddress string
}

const TypeURLMsgWithdrawDelegatorReward = "/distribution.MsgWithdrawDelegatorReward"

func (m MsgWithdrawDelegatorReward) TypeURL() string { return TypeURLMsgWithdrawDelegatorReward }

func (m MsgWithdrawDelegatorReward) ValidateBasic() error {
	if m.DelegatorAddress == "" || m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing address")
	}
	return nil
}

func (m MsgWithdrawDelegatorReward) GetSigners() []string { return []string{m.DelegatorAddress} }

func (m MsgWithdrawDelegatorReward) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgWithdrawDelegatorReward,
		Summary: "Withdraw rewards from " + m.ValidatorAddress,
	}
}

// MsgWithdrawValidatorCommission claims the commission a validator
// operator has accumulated from its delegators' rewards.
type MsgWithdrawValidatorCommission struct {
	ValidatorAddress string
}

const TypeURLMsgWithdrawValidatorCommission = "/distribution.MsgWithdrawValidatorCommission"

func (m MsgWithdrawValidatorCommission) TypeURL() string {
	return TypeURLMsgWithdrawValidatorCommission
}

func (m MsgWithdrawValidatorCommission) ValidateBasic() error {
	if m.ValidatorAddress == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "missing validator address")
	}
	return nil
}

func (m MsgWithdrawValidatorCommission) GetSigners() []string { return []string{m.ValidatorAddress} }

func (m MsgWithdrawValidatorCommission) Render() textual.MessageRender {
	return textual.MessageRender{
		Type:    TypeURLMsgWithdrawValidatorCommission,
		Summary: "Withdraw commission for " + m.ValidatorAddress,
	}
}
