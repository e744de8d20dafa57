package ante

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/crypto/keys"
	"github.com/chainkit/corechain/store/rootmulti"
	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	authkeeper "github.com/chainkit/corechain/x/auth/keeper"
	authtypes "github.com/chainkit/corechain/x/auth/types"
	txtypes "github.com/chainkit/corechain/x/auth/tx"
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
)

const testChainID = "test-chain"

type fixture struct {
	ctx     sdk.Context
	handler AnteHandler
	ak      authkeeper.Keeper
	bk      bankkeeper.Keeper
	decoder MsgDecoder
	priv    *keys.Secp256k1PrivKey
	addr    []byte
	accNum  uint64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storeKeys := map[string]st.StoreKey{
		"auth":   st.NewKVStoreKey("auth"),
		"bank":   st.NewKVStoreKey("bank"),
		"params": st.NewKVStoreKey("params"),
	}
	cms, err := rootmulti.NewStore(db, storeKeys)
	require.NoError(t, err)

	pk := paramskeeper.NewKeeper(storeKeys["params"])
	ak := authkeeper.NewKeeper(storeKeys["auth"], pk.Subspace(authtypes.ModuleName))
	bk := bankkeeper.NewKeeper(storeKeys["bank"])

	ctx := sdk.NewContext(cms, sdk.Header{ChainID: testChainID, Height: 5, Time: time.Unix(1700000000, 0).UTC()}, false)
	ak.SetParams(ctx, authtypes.DefaultParams())

	priv := keys.GenerateSecp256k1PrivKey()
	addr := priv.PubKey().Address()
	acc := ak.GetOrCreateAccount(ctx, addr)
	bk.AddCoins(ctx, addr, sdk.NewCoins(sdk.NewCoin("uatom", sdk.NewInt(10_000))))

	decoder := func(typeURL string, value []byte) (sdk.Msg, error) {
		if typeURL != banktypes.TypeURLMsgSend {
			return nil, fmt.Errorf("no decoder for %s", typeURL)
		}
		return banktypes.DecodeMsgSend(value)
	}
	handler := NewAnteHandler(HandlerOptions{AccountKeeper: ak, BankKeeper: bk, MsgDecoder: decoder})
	return &fixture{ctx: ctx, handler: handler, ak: ak, bk: bk, decoder: decoder, priv: priv, addr: addr, accNum: acc.AccountNumber}
}

type txParams struct {
	seq           uint64
	gasLimit      uint64
	feeAmount     string
	memo          string
	timeoutHeight uint64
	signMode      int32 // zero value means SignModeDirect
	badSigner     *keys.Secp256k1PrivKey
}

func (f *fixture) buildTx(t *testing.T, p txParams) (txtypes.Tx, txtypes.TxRaw) {
	t.Helper()
	msgValue := banktypes.MarshalMsgSend(banktypes.MsgSend{
		FromAddress: "cosmos1sender",
		ToAddress:   "cosmos1recipient",
		Amount:      sdk.NewCoins(sdk.NewCoin("uatom", sdk.NewInt(1))),
	})
	body := txtypes.TxBody{
		Messages:      []txtypes.Any{{TypeURL: banktypes.TypeURLMsgSend, Value: msgValue}},
		Memo:          p.memo,
		TimeoutHeight: p.timeoutHeight,
	}
	bodyBytes := txtypes.MarshalBody(body)

	mode := p.signMode
	if mode == 0 {
		mode = SignModeDirect
	}
	var fee txtypes.Fee
	fee.GasLimit = p.gasLimit
	if p.feeAmount != "" {
		fee.Amount = []txtypes.CoinWire{{Denom: "uatom", Amount: p.feeAmount}}
	}
	authInfo := txtypes.AuthInfo{
		SignerInfos: []txtypes.SignerInfo{{
			PublicKey: f.priv.PubKey().Key[:],
			ModeInfo:  txtypes.ModeInfo{SignMode: mode},
			Sequence:  p.seq,
		}},
		Fee: fee,
	}
	authInfoBytes := txtypes.MarshalAuthInfo(authInfo)

	tx := txtypes.Tx{Body: body, AuthInfo: authInfo}
	raw := txtypes.TxRaw{BodyBytes: bodyBytes, AuthInfoBytes: authInfoBytes}
	signBytes, err := SignBytes(mode, tx, raw, testChainID, f.accNum, authInfo.SignerInfos[0], f.decoder)
	require.NoError(t, err)

	signer := f.priv
	if p.badSigner != nil {
		signer = p.badSigner
	}
	sig := signer.Sign(signBytes)
	raw.Signatures = [][]byte{sig}
	tx.Signatures = raw.Signatures
	return tx, raw
}

func (f *fixture) run(t *testing.T, p txParams) error {
	t.Helper()
	tx, raw := f.buildTx(t, p)
	ctx := f.ctx.WithGasMeter(sdk.NewGasMeter(p.gasLimit)).WithTxBytes(txtypes.MarshalTxRaw(raw))
	_, err := f.handler(ctx, tx, raw, false)
	return err
}

func TestAnteSuccessIncrementsSequenceAndDeductsFee(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.run(t, txParams{seq: 0, gasLimit: 200_000, feeAmount: "100"}))

	acc, _ := f.ak.GetAccount(f.ctx, f.addr)
	require.Equal(t, uint64(1), acc.Sequence)
	require.Equal(t, f.priv.PubKey().Key[:], acc.PubKey)

	feeAddr := banktypes.NewModuleAddress(banktypes.FeeCollectorName)
	require.True(t, f.bk.GetBalance(f.ctx, feeAddr, "uatom").Amount.Equal(sdk.NewInt(100)))
	require.True(t, f.bk.GetBalance(f.ctx, f.addr, "uatom").Amount.Equal(sdk.NewInt(9_900)))
}

func TestAnteStaleSequenceFails(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.run(t, txParams{seq: 0, gasLimit: 200_000}))
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000})
	require.Error(t, err)
	require.Contains(t, err.Error(), "account sequence mismatch")
}

func TestAnteFutureSequenceFails(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 3, gasLimit: 200_000})
	require.Error(t, err)
	require.Contains(t, err.Error(), "account sequence mismatch")
}

func TestAnteTextualModeVerifies(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.run(t, txParams{seq: 0, gasLimit: 200_000, signMode: SignModeTextual}))

	acc, _ := f.ak.GetAccount(f.ctx, f.addr)
	require.Equal(t, uint64(1), acc.Sequence)
}

func TestAnteTextualModeWrongSignerFails(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000, signMode: SignModeTextual, badSigner: keys.GenerateSecp256k1PrivKey()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature verification failed")
}

func TestAnteTextualModeSignatureBindsContents(t *testing.T) {
	f := setup(t)
	tx, raw := f.buildTx(t, txParams{seq: 0, gasLimit: 200_000, signMode: SignModeTextual})

	// tampering with the memo after signing changes the rendered envelope,
	// so the original signature no longer verifies.
	tx.Body.Memo = "tampered"
	ctx := f.ctx.WithGasMeter(sdk.NewGasMeter(200_000))
	_, err := f.handler(ctx, tx, raw, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature verification failed")
}

func TestAnteWrongSignerFails(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000, badSigner: keys.GenerateSecp256k1PrivKey()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature verification failed")
}

func TestAnteMemoTooLongFails(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000, memo: strings.Repeat("m", 257)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "memo too large")
}

func TestAnteTimeoutHeightExceededFails(t *testing.T) {
	f := setup(t)
	// ctx height is 5.
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000, timeoutHeight: 4})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timeout height")

	require.NoError(t, f.run(t, txParams{seq: 0, gasLimit: 200_000, timeoutHeight: 6}))
}

func TestAnteOutOfGasOnTinyLimit(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 0, gasLimit: 10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of gas")
}

func TestAnteInsufficientFeeBalanceFails(t *testing.T) {
	f := setup(t)
	err := f.run(t, txParams{seq: 0, gasLimit: 200_000, feeAmount: "999999"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient")
}

func TestAnteNoSignaturesRejected(t *testing.T) {
	f := setup(t)
	tx, raw := f.buildTx(t, txParams{seq: 0, gasLimit: 200_000})
	tx.Signatures = nil
	raw.Signatures = nil
	ctx := f.ctx.WithGasMeter(sdk.NewGasMeter(200_000))
	_, err := f.handler(ctx, tx, raw, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one signature")
}

func TestMempoolFeeEnforcedInCheckMode(t *testing.T) {
	f := setup(t)
	minPrices := sdk.NewCoins(sdk.NewCoin("uatom", sdk.NewInt(1)))

	tx, raw := f.buildTx(t, txParams{seq: 0, gasLimit: 1_000, feeAmount: "10"})
	checkCtx := f.ctx.WithIsCheckTx(true).WithMinGasPrices(minPrices).WithGasMeter(sdk.NewGasMeter(1_000))
	_, err := f.handler(checkCtx, tx, raw, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient fees")

	// deliver mode ignores the mempool floor.
	deliverCtx := f.ctx.WithMinGasPrices(minPrices).WithGasMeter(sdk.NewGasMeter(200_000))
	tx2, raw2 := f.buildTx(t, txParams{seq: 0, gasLimit: 200_000, feeAmount: "10"})
	_, err = f.handler(deliverCtx, tx2, raw2, false)
	require.NoError(t, err)
}
