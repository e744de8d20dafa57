// Package errors implements a small registry of coded errors, the
// Go-native analog of cosmos-sdk's types/errors package: every ABCI error
// response carries a stable codespace+code pair alongside its message.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a registered error kind: a stable ABCI numeric code plus a
// human-readable description. Two Errors are the same kind iff they share
// a Codespace+Code pair, not a pointer identity, so errors.Is/As work across
// process boundaries (e.g. after a round trip through an ABCI response).
type Error struct {
	Codespace string
	Code      uint32
	Desc      string
}

func (e *Error) Error() string { return e.Desc }

func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Codespace == other.Codespace && e.Code == other.Code
}

// Register defines a new error kind. Codes are only required to be unique
// within a codespace.
func Register(codespace string, code uint32, desc string) *Error {
	return &Error{Codespace: codespace, Code: code, Desc: desc}
}

const rootCodespace = "corechain"

// The error kinds reported back to the consensus engine and to clients.
var (
	ErrInvalidRequest    = Register(rootCodespace, 1, "invalid request")
	ErrTxParseError      = Register(rootCodespace, 2, "tx parse error")
	ErrTxValidation      = Register(rootCodespace, 3, "tx failed basic validation")
	ErrAccountNotFound   = Register(rootCodespace, 4, "account not found")
	ErrInsufficientFunds = Register(rootCodespace, 5, "insufficient funds")
	ErrSendDisabled      = Register(rootCodespace, 6, "send transactions are disabled")
	ErrInvalidPublicKey  = Register(rootCodespace, 7, "invalid public key")
	ErrTimeout           = Register(rootCodespace, 8, "tx timeout height exceeded")
	ErrMemoTooLong       = Register(rootCodespace, 9, "memo too long")
	ErrOutOfGas          = Register(rootCodespace, 10, "out of gas")
	ErrOverflow          = Register(rootCodespace, 11, "overflow")
	ErrOverwrite         = Register(rootCodespace, 12, "cannot overwrite existing version with a different hash")
	ErrNodeDeserialize   = Register(rootCodespace, 13, "node deserialize error")
	ErrRotateError       = Register(rootCodespace, 14, "rotate error")
	ErrAnteHandler       = Register(rootCodespace, 15, "ante handler error")
	ErrInvalidCoins      = Register(rootCodespace, 16, "invalid coins")
	ErrUnknownRequest    = Register(rootCodespace, 17, "unknown request")
	ErrUnauthorized      = Register(rootCodespace, 18, "unauthorized")
	ErrWrongSequence     = Register(rootCodespace, 19, "incorrect account sequence")
	ErrInvalidSignature  = Register(rootCodespace, 20, "invalid signature")

	ErrCustom = Register(rootCodespace, 99, "custom error")
)

// Wrap attaches additional context to a registered error, preserving it for
// errors.Is/As while using pkg/errors to keep a stack-trace-capable cause
// chain.
func Wrap(err *Error, msg string) error {
	return errors.Wrap(err, msg)
}

func Wrapf(err *Error, format string, args ...interface{}) error {
	return errors.Wrap(err, fmt.Sprintf(format, args...))
}

// Code extracts the ABCI numeric code from an error produced by Wrap/Wrapf,
// defaulting to the generic "custom" code for errors this registry didn't
// produce (e.g. a panic recovered as a plain error).
func Code(err error) uint32 {
	type causer interface{ Cause() error }
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return ErrCustom.Code
}
