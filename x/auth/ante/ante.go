// Package ante implements the AnteHandler pipeline: an
// ordered chain of decorators, each wrapping the next, exactly the shape
// cosmos-sdk's x/auth/ante package uses (NewAnteHandler composing
// NewMempoolFeeDecorator, NewValidateBasicDecorator, ... into one
// sdk.AnteHandler via ChainAnteDecorators). Any stage's failure aborts the
// chain and the error propagates to BaseApp's RunTx, which discards the
// tx cache.
package ante

import (
	"fmt"
	"math"

	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	authkeeper "github.com/chainkit/corechain/x/auth/keeper"
	txtypes "github.com/chainkit/corechain/x/auth/tx"
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	"github.com/chainkit/corechain/crypto/bech32"
	"github.com/chainkit/corechain/crypto/keys"

	log "github.com/sirupsen/logrus"
)

// AnteHandler runs the full pipeline over a decoded transaction, in
// either check or deliver mode, and returns the context carrying any gas
// consumed by the pipeline - message handlers continue consuming from the
// same meter.
type AnteHandler func(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool) (sdk.Context, error)

// AnteDecorator is one pipeline stage. next is called to continue the
// chain; a decorator that wants to abort returns an error without calling
// next.
type AnteDecorator interface {
	AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error)
}

// HandlerOptions bundles the collaborators every decorator needs.
// MsgDecoder is required only for textual-mode signature verification
// (the router's Decode is what the app passes); Direct and
// LegacyAminoJson verify without it.
type HandlerOptions struct {
	AccountKeeper    authkeeper.Keeper
	BankKeeper       bankkeeper.Keeper
	FeeCollectorName string
	MsgDecoder       MsgDecoder
}

// NewAnteHandler composes the ten pipeline stages, in
// order, via ChainAnteDecorators - the same composition pattern
// cosmos-sdk's ante.NewAnteHandler uses.
func NewAnteHandler(opts HandlerOptions) AnteHandler {
	if opts.FeeCollectorName == "" {
		opts.FeeCollectorName = banktypes.FeeCollectorName
	}
	decorators := []AnteDecorator{
		MempoolFeeDecorator{},
		ValidateBasicDecorator{},
		TxTimeoutHeightDecorator{},
		ValidateMemoDecorator{ak: opts.AccountKeeper},
		ConsumeTxSizeGasDecorator{ak: opts.AccountKeeper},
		DeductFeeDecorator{ak: opts.AccountKeeper, bk: opts.BankKeeper, feeCollector: opts.FeeCollectorName},
		SetPubKeyDecorator{ak: opts.AccountKeeper},
		SigGasConsumeDecorator{ak: opts.AccountKeeper},
		SigVerificationDecorator{ak: opts.AccountKeeper, decoder: opts.MsgDecoder},
		IncrementSequenceDecorator{ak: opts.AccountKeeper},
	}
	return ChainAnteDecorators(decorators...)
}

// ChainAnteDecorators folds a decorator slice into a single AnteHandler,
// each decorator's next argument bound to the handler built from the
// remaining tail.
func ChainAnteDecorators(chain ...AnteDecorator) AnteHandler {
	if len(chain) == 0 {
		return func(ctx sdk.Context, _ txtypes.Tx, _ txtypes.TxRaw, _ bool) (sdk.Context, error) { return ctx, nil }
	}
	return func(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool) (sdk.Context, error) {
		return chainRun(chain, 0, ctx, tx, raw, simulate)
	}
}

func chainRun(chain []AnteDecorator, i int, ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool) (sdk.Context, error) {
	if i == len(chain) {
		return ctx, nil
	}
	next := func(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool) (sdk.Context, error) {
		return chainRun(chain, i+1, ctx, tx, raw, simulate)
	}
	return chain[i].AnteHandle(ctx, tx, raw, simulate, next)
}

// --- Stage 1: mempool fee check (check-mode only) ---

type MempoolFeeDecorator struct{}

func (MempoolFeeDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	if !ctx.IsCheckTx() {
		return next(ctx, tx, raw, simulate)
	}
	minPrices := ctx.MinGasPrices()
	if len(minPrices) == 0 || minPrices.IsZero() {
		return next(ctx, tx, raw, simulate)
	}
	gasLimit := int64(tx.AuthInfo.Fee.GasLimit)
	fee := decodeFee(tx.AuthInfo.Fee.Amount)
	satisfied := false
	for _, gp := range minPrices {
		// gas price is already an integer-amount-per-gas rate in this
		// kernel (Coins carries no fractional amounts), so min_gas_price *
		// gas_limit is already a whole-number minimum fee.
		required := gp.Amount.Mul(sdk.NewInt(gasLimit))
		if fee.AmountOf(gp.Denom).GTE(required) {
			satisfied = true
			break
		}
	}
	if !satisfied {
		return ctx, sdkerrors.Wrapf(sdkerrors.ErrInsufficientFunds, "insufficient fees; got: %s required at least one of: %s", fee, minPrices)
	}
	return next(ctx, tx, raw, simulate)
}

func decodeFee(wire []txtypes.CoinWire) sdk.Coins {
	coins := make([]sdk.Coin, 0, len(wire))
	for _, c := range wire {
		amt, ok := sdk.NewIntFromString(c.Amount)
		if !ok {
			continue
		}
		coins = append(coins, sdk.Coin{Denom: c.Denom, Amount: amt})
	}
	return sdk.NewCoins(coins...)
}

// --- Stage 2: basic validation ---

type ValidateBasicDecorator struct{}

func (ValidateBasicDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	if len(tx.Signatures) == 0 {
		return ctx, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "tx must have at least one signature")
	}
	if len(tx.Signatures) != len(tx.AuthInfo.SignerInfos) {
		return ctx, sdkerrors.Wrapf(sdkerrors.ErrTxValidation, "signature count (%d) does not match signer count (%d)", len(tx.Signatures), len(tx.AuthInfo.SignerInfos))
	}
	if tx.AuthInfo.Fee.GasLimit > math.MaxInt64 {
		return ctx, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "gas limit exceeds maximum")
	}
	return next(ctx, tx, raw, simulate)
}

// --- Stage 3: timeout height ---

type TxTimeoutHeightDecorator struct{}

func (TxTimeoutHeightDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	timeout := tx.Body.TimeoutHeight
	if timeout > 0 && uint64(ctx.BlockHeight()) > timeout {
		return ctx, sdkerrors.Wrapf(sdkerrors.ErrTimeout, "block height: %d, timeout height: %d", ctx.BlockHeight(), timeout)
	}
	return next(ctx, tx, raw, simulate)
}

// --- Stage 4: memo length ---

type ValidateMemoDecorator struct{ ak authkeeper.Keeper }

func (d ValidateMemoDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	params := d.ak.GetParams(ctx)
	if uint64(len(tx.Body.Memo)) > params.MaxMemoCharacters {
		return ctx, sdkerrors.Wrapf(sdkerrors.ErrTxValidation, "memo too large; got %d, max %d", len(tx.Body.Memo), params.MaxMemoCharacters)
	}
	return next(ctx, tx, raw, simulate)
}

// --- Stage 5: tx-size gas ---

type ConsumeTxSizeGasDecorator struct{ ak authkeeper.Keeper }

func (d ConsumeTxSizeGasDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	txLen := len(raw.BodyBytes) + len(raw.AuthInfoBytes)
	for _, sig := range tx.Signatures {
		txLen += len(sig)
	}
	params := d.ak.GetParams(ctx)
	if err := ctx.GasMeter().ConsumeGas(uint64(txLen)*params.TxSizeCostPerByte, "txSize"); err != nil {
		return ctx, err
	}
	return next(ctx, tx, raw, simulate)
}

// --- Stage 6: deduct fee ---

type DeductFeeDecorator struct {
	ak           authkeeper.Keeper
	bk           bankkeeper.Keeper
	feeCollector string
}

func (d DeductFeeDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	fee := decodeFee(tx.AuthInfo.Fee.Amount)
	var payerAddr []byte
	if tx.AuthInfo.Fee.Payer != "" {
		addr, err := bech32AddressBytes(tx.AuthInfo.Fee.Payer)
		if err != nil {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid fee payer address: %s", err)
		}
		payerAddr = addr
	} else {
		if len(tx.AuthInfo.SignerInfos) == 0 {
			return ctx, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "no signers to default fee payer to")
		}
		payerAddr = addressFromPubKeyBytes(tx.AuthInfo.SignerInfos[0].PublicKey)
	}
	if _, ok := d.ak.GetAccount(ctx, payerAddr); !ok {
		return ctx, sdkerrors.Wrapf(sdkerrors.ErrAccountNotFound, "fee payer account %x does not exist", payerAddr)
	}
	if len(fee) > 0 && !fee.IsZero() {
		if err := d.bk.SendCoinsFromAccountToModule(ctx, payerAddr, d.feeCollector, fee); err != nil {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrInsufficientFunds, "%s", err)
		}
	}
	log.WithFields(log.Fields{"payer": fmt.Sprintf("%x", payerAddr), "fee": fee.String()}).Debug("ante: fee deducted")
	return next(ctx, tx, raw, simulate)
}

func bech32AddressBytes(addr string) ([]byte, error) {
	_, raw, err := bech32.DecodeToBytes(addr)
	return raw, err
}

// --- Stage 7: set public keys ---

type SetPubKeyDecorator struct{ ak authkeeper.Keeper }

func (d SetPubKeyDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	for _, si := range tx.AuthInfo.SignerInfos {
		addr := addressFromPubKeyBytes(si.PublicKey)
		acc, ok := d.ak.GetAccount(ctx, addr)
		if !ok {
			acc = d.ak.GetOrCreateAccount(ctx, addr)
		}
		if len(acc.PubKey) == 0 {
			acc.PubKey = si.PublicKey
			d.ak.SetAccount(ctx, acc)
		} else if string(acc.PubKey) != string(si.PublicKey) {
			return ctx, sdkerrors.Wrap(sdkerrors.ErrInvalidPublicKey, "signer pubkey does not match address")
		}
	}
	return next(ctx, tx, raw, simulate)
}

// addressFromPubKeyBytes derives the signer's address from the wire
// public-key bytes, dispatching on width: 33 bytes is a compressed
// secp256k1 account key, 32 bytes an ed25519 consensus key.
func addressFromPubKeyBytes(pk []byte) []byte {
	switch len(pk) {
	case 33:
		key, err := keys.NewSecp256k1PubKey(pk)
		if err != nil {
			return nil
		}
		return key.Address()
	case 32:
		key, err := keys.NewEd25519PubKey(pk)
		if err != nil {
			return nil
		}
		return key.Address()
	default:
		return pk
	}
}

// --- Stage 8: signature gas ---

type SigGasConsumeDecorator struct{ ak authkeeper.Keeper }

func (d SigGasConsumeDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	params := d.ak.GetParams(ctx)
	for _, si := range tx.AuthInfo.SignerInfos {
		cost := params.SigVerifyCostSecp256k1
		if len(si.PublicKey) == 32 {
			cost = params.SigVerifyCostEd25519
		}
		if err := ctx.GasMeter().ConsumeGas(cost, "ed25519/secp256k1 sig verification"); err != nil {
			return ctx, err
		}
	}
	return next(ctx, tx, raw, simulate)
}

// --- Stage 9: signature verification ---

type SigVerificationDecorator struct {
	ak      authkeeper.Keeper
	decoder MsgDecoder
}

func (d SigVerificationDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	for i, si := range tx.AuthInfo.SignerInfos {
		addr := addressFromPubKeyBytes(si.PublicKey)
		acc, ok := d.ak.GetAccount(ctx, addr)
		if !ok {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrAccountNotFound, "signer account %x does not exist", addr)
		}
		if acc.Sequence != si.Sequence {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrWrongSequence, "account sequence mismatch, expected %d, got %d", acc.Sequence, si.Sequence)
		}
		signBytes, err := SignBytes(si.ModeInfo.SignMode, tx, raw, ctx.ChainID(), acc.AccountNumber, si, d.decoder)
		if err != nil {
			return ctx, err
		}
		if i >= len(tx.Signatures) {
			return ctx, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "missing signature")
		}
		if !verifySignature(si.PublicKey, signBytes, tx.Signatures[i]) {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrInvalidSignature, "signature verification failed for signer %x", addr)
		}
	}
	return next(ctx, tx, raw, simulate)
}

func verifySignature(pubKey, signBytes, sig []byte) bool {
	switch len(pubKey) {
	case 33:
		key, err := keys.NewSecp256k1PubKey(pubKey)
		if err != nil {
			return false
		}
		return key.VerifySignature(signBytes, sig)
	case 32:
		key, err := keys.NewEd25519PubKey(pubKey)
		if err != nil {
			return false
		}
		return key.VerifySignature(signBytes, sig)
	default:
		return false
	}
}

// --- Stage 10: increment sequence ---

type IncrementSequenceDecorator struct{ ak authkeeper.Keeper }

func (d IncrementSequenceDecorator) AnteHandle(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool, next AnteHandler) (sdk.Context, error) {
	for _, si := range tx.AuthInfo.SignerInfos {
		addr := addressFromPubKeyBytes(si.PublicKey)
		acc, ok := d.ak.GetAccount(ctx, addr)
		if !ok {
			return ctx, sdkerrors.Wrapf(sdkerrors.ErrAccountNotFound, "signer account %x does not exist", addr)
		}
		acc.Sequence++
		d.ak.SetAccount(ctx, acc)
	}
	return next(ctx, tx, raw, simulate)
}
