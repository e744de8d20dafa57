package app

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/baseapp"
	"github.com/chainkit/corechain/crypto/keys"
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/auth/ante"
	txtypes "github.com/chainkit/corechain/x/auth/tx"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	stakingtypes "github.com/chainkit/corechain/x/staking/types"
)

const (
	testChainID   = "test-chain"
	unbondingTime = time.Minute
)

var genesisTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type account struct {
	priv   *keys.Secp256k1PrivKey
	addr   []byte
	bech   string
	valBech string
	accNum uint64
	seq    uint64
}

func newAccount(t *testing.T) *account {
	t.Helper()
	priv := keys.GenerateSecp256k1PrivKey()
	bech, err := priv.PubKey().Bech32Address()
	require.NoError(t, err)
	valBech, err := priv.PubKey().Bech32ValAddress()
	require.NoError(t, err)
	return &account{priv: priv, addr: priv.PubKey().Address(), bech: bech, valBech: valBech}
}

type harness struct {
	t      *testing.T
	app    *App
	height int64
	now    time.Time
}

func newHarness(t *testing.T, accounts []*account, balances map[string]int64) *harness {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "app.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	application, err := NewApp(db)
	require.NoError(t, err)

	stakingParams := stakingtypes.DefaultParams()
	stakingParams.BondDenom = "uatom"
	stakingParams.UnbondingTime = unbondingTime

	accs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		accs = append(accs, a.bech)
	}
	type genBalance struct {
		Address string `json:"address"`
		Coins   []struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"coins"`
	}
	genBalances := make([]genBalance, 0, len(balances))
	for bech, amt := range balances {
		b := genBalance{Address: bech}
		b.Coins = append(b.Coins, struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		}{Denom: "uatom", Amount: sdk.NewInt(amt).String()})
		genBalances = append(genBalances, b)
	}

	appState := map[string]interface{}{
		"auth":    map[string]interface{}{"accounts": accs},
		"bank":    map[string]interface{}{"balances": genBalances},
		"staking": map[string]interface{}{"params": stakingParams},
	}
	stateBytes, err := json.Marshal(appState)
	require.NoError(t, err)

	application.InitChain(baseapp.RequestInitChain{
		ChainID:       testChainID,
		Time:          genesisTime,
		InitialHeight: 1,
		AppStateBytes: stateBytes,
	})

	// account numbers are assigned in genesis slice order.
	for i, a := range accounts {
		a.accNum = uint64(i)
	}
	return &harness{t: t, app: application, height: 0, now: genesisTime}
}

func (h *harness) beginBlock() {
	h.height++
	h.app.BeginBlock(baseapp.RequestBeginBlock{Header: sdk.Header{
		ChainID: testChainID,
		Height:  h.height,
		Time:    h.now,
	}})
}

func (h *harness) endBlockAndCommit() ([]baseapp.ValidatorUpdate, []byte) {
	end := h.app.EndBlock(baseapp.RequestEndBlock{Height: h.height})
	commit := h.app.Commit()
	return end.ValidatorUpdates, commit.Data
}

// runBlock executes one full block around the given raw transactions.
func (h *harness) runBlock(txs ...[]byte) ([]baseapp.ResponseDeliverTx, []baseapp.ValidatorUpdate) {
	h.beginBlock()
	responses := make([]baseapp.ResponseDeliverTx, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, h.app.DeliverTx(baseapp.RequestDeliverTx{Tx: tx}))
	}
	updates, _ := h.endBlockAndCommit()
	return responses, updates
}

func (h *harness) signTx(a *account, msgs []txtypes.Any, gas uint64) []byte {
	h.t.Helper()
	body := txtypes.TxBody{Messages: msgs}
	bodyBytes := txtypes.MarshalBody(body)
	authInfo := txtypes.AuthInfo{
		SignerInfos: []txtypes.SignerInfo{{
			PublicKey: a.priv.PubKey().Key[:],
			ModeInfo:  txtypes.ModeInfo{SignMode: ante.SignModeDirect},
			Sequence:  a.seq,
		}},
		Fee: txtypes.Fee{GasLimit: gas},
	}
	authInfoBytes := txtypes.MarshalAuthInfo(authInfo)
	signBytes := txtypes.MarshalSignDoc(txtypes.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainID:       testChainID,
		AccountNumber: a.accNum,
	})
	sig := a.priv.Sign(signBytes)
	a.seq++
	return txtypes.MarshalTxRaw(txtypes.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{sig},
	})
}

func (h *harness) queryBalance(bech string) string {
	h.t.Helper()
	resp := h.app.Query(baseapp.RequestQuery{Path: "/bank/balances", Data: []byte(bech)})
	require.Zero(h.t, resp.Code, resp.Log)
	var s string
	require.NoError(h.t, json.Unmarshal(resp.Value, &s))
	return s
}

func (h *harness) queryValidator(valBech string) (status, tokens string, found bool) {
	h.t.Helper()
	resp := h.app.Query(baseapp.RequestQuery{Path: "/staking/validator", Data: []byte(valBech)})
	if resp.Code != 0 {
		return "", "", false
	}
	var out map[string]string
	require.NoError(h.t, json.Unmarshal(resp.Value, &out))
	return out["status"], out["tokens"], true
}

func sendMsg(from, to string, amt int64) txtypes.Any {
	msg := banktypes.MsgSend{
		FromAddress: from,
		ToAddress:   to,
		Amount:      sdk.NewCoins(sdk.NewCoin("uatom", sdk.NewInt(amt))),
	}
	return txtypes.Any{TypeURL: banktypes.TypeURLMsgSend, Value: banktypes.MarshalMsgSend(msg)}
}

func createValidatorMsg(t *testing.T, a *account, selfDelegation int64) txtypes.Any {
	t.Helper()
	consPriv, err := keys.GenerateEd25519PrivKey()
	require.NoError(t, err)
	msg := stakingtypes.MsgCreateValidator{
		Description: stakingtypes.Description{Moniker: "test-validator"},
		Commission: stakingtypes.Commission{
			Rate:          sdk.ZeroDec(),
			MaxRate:       sdk.NewDecWithPrec(20, 2),
			MaxChangeRate: sdk.NewDecWithPrec(1, 2),
		},
		MinSelfDelegation: sdk.NewInt(1),
		DelegatorAddress:  a.bech,
		ValidatorAddress:  a.valBech,
		ConsensusPubKey:   consPriv.PubKey().Key,
		Value:             sdk.NewCoin("uatom", sdk.NewInt(selfDelegation)),
	}
	return txtypes.Any{TypeURL: stakingtypes.TypeURLMsgCreateValidator, Value: stakingtypes.MarshalMsgCreateValidator(msg)}
}

func TestSendFullBalanceScenario(t *testing.T) {
	sender := newAccount(t)
	recipient := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 34})

	responses, _ := h.runBlock(h.signTx(sender, []txtypes.Any{sendMsg(sender.bech, recipient.bech, 34)}, 200_000))
	require.Zero(t, responses[0].Code, responses[0].Log)

	require.Equal(t, "", h.queryBalance(sender.bech))
	require.Equal(t, "34uatom", h.queryBalance(recipient.bech))
}

func TestCreateValidatorAndDelegateScenario(t *testing.T) {
	operator := newAccount(t)
	h := newHarness(t, []*account{operator}, map[string]int64{operator.bech: 300_000_000})

	responses, updates := h.runBlock(h.signTx(operator, []txtypes.Any{createValidatorMsg(t, operator, 100_000_000)}, 400_000))
	require.Zero(t, responses[0].Code, responses[0].Log)
	require.Len(t, updates, 1)
	require.Equal(t, int64(100), updates[0].Power)

	delegate := stakingtypes.MsgDelegate{
		DelegatorAddress: operator.bech,
		ValidatorAddress: operator.valBech,
		Amount:           sdk.NewCoin("uatom", sdk.NewInt(10_000_000)),
	}
	responses, updates = h.runBlock(h.signTx(operator, []txtypes.Any{
		{TypeURL: stakingtypes.TypeURLMsgDelegate, Value: stakingtypes.MarshalMsgDelegate(delegate)},
	}, 400_000))
	require.Zero(t, responses[0].Code, responses[0].Log)

	// power derived from 110 tokens' worth of stake.
	require.Len(t, updates, 1)
	require.Equal(t, int64(110), updates[0].Power)

	status, tokens, found := h.queryValidator(operator.valBech)
	require.True(t, found)
	require.Equal(t, "Bonded", status)
	require.Equal(t, "110000000", tokens)
}

func TestUndelegateMaturationScenario(t *testing.T) {
	operator := newAccount(t)
	h := newHarness(t, []*account{operator}, map[string]int64{operator.bech: 110_000_000})

	responses, _ := h.runBlock(h.signTx(operator, []txtypes.Any{createValidatorMsg(t, operator, 110_000_000)}, 400_000))
	require.Zero(t, responses[0].Code, responses[0].Log)
	require.Equal(t, "", h.queryBalance(operator.bech))

	undelegate := stakingtypes.MsgUndelegate{
		DelegatorAddress: operator.bech,
		ValidatorAddress: operator.valBech,
		Amount:           sdk.NewCoin("uatom", sdk.NewInt(10_000_000)),
	}
	responses, _ = h.runBlock(h.signTx(operator, []txtypes.Any{
		{TypeURL: stakingtypes.TypeURLMsgUndelegate, Value: stakingtypes.MarshalMsgUndelegate(undelegate)},
	}, 400_000))
	require.Zero(t, responses[0].Code, responses[0].Log)

	// before the unbonding period elapses, nothing is returned.
	h.runBlock()
	require.Equal(t, "", h.queryBalance(operator.bech))

	// a block whose time passes the completion time releases the entry.
	h.now = h.now.Add(unbondingTime + time.Second)
	h.runBlock()
	require.Equal(t, "10000000uatom", h.queryBalance(operator.bech))

	// maturation happens exactly once.
	h.runBlock()
	require.Equal(t, "10000000uatom", h.queryBalance(operator.bech))
}

func TestRedelegateExcessAmountScenario(t *testing.T) {
	op1 := newAccount(t)
	op2 := newAccount(t)
	h := newHarness(t, []*account{op1, op2}, map[string]int64{
		op1.bech: 10_000_000,
		op2.bech: 100_000_000,
	})
	responses, _ := h.runBlock(
		h.signTx(op1, []txtypes.Any{createValidatorMsg(t, op1, 10_000_000)}, 400_000),
		h.signTx(op2, []txtypes.Any{createValidatorMsg(t, op2, 100_000_000)}, 400_000),
	)
	require.Zero(t, responses[0].Code, responses[0].Log)
	require.Zero(t, responses[1].Code, responses[1].Log)

	_, tokensBefore, _ := h.queryValidator(op1.valBech)

	redelegate := stakingtypes.MsgBeginRedelegate{
		DelegatorAddress:    op1.bech,
		ValidatorSrcAddress: op1.valBech,
		ValidatorDstAddress: op2.valBech,
		Amount:              sdk.NewCoin("uatom", sdk.NewInt(11_000_000)),
	}
	responses, _ = h.runBlock(h.signTx(op1, []txtypes.Any{
		{TypeURL: stakingtypes.TypeURLMsgBeginRedelegate, Value: stakingtypes.MarshalMsgBeginRedelegate(redelegate)},
	}, 400_000))
	require.NotZero(t, responses[0].Code)
	require.Contains(t, responses[0].Log, "invalid shares amount")

	// state is unchanged by the failed message.
	_, tokensAfter, _ := h.queryValidator(op1.valBech)
	require.Equal(t, tokensBefore, tokensAfter)
}

func TestFailedMessageLeavesStateUntouched(t *testing.T) {
	sender := newAccount(t)
	recipient := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 34})

	// first block commits a baseline.
	h.runBlock()
	_, baselineHash := func() ([]baseapp.ValidatorUpdate, []byte) {
		h.beginBlock()
		return h.endBlockAndCommit()
	}()

	// over-spend fails; committing afterwards must reproduce the same
	// app-hash as an empty block.
	h.beginBlock()
	resp := h.app.DeliverTx(baseapp.RequestDeliverTx{
		Tx: h.signTx(sender, []txtypes.Any{sendMsg(sender.bech, recipient.bech, 35)}, 200_000),
	})
	require.NotZero(t, resp.Code)
	_, failedHash := h.endBlockAndCommit()

	require.Equal(t, baselineHash, failedHash)
	require.Equal(t, "34uatom", h.queryBalance(sender.bech))
}

func TestStaleSequenceRejected(t *testing.T) {
	sender := newAccount(t)
	recipient := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 100})

	tx := h.signTx(sender, []txtypes.Any{sendMsg(sender.bech, recipient.bech, 10)}, 200_000)
	responses, _ := h.runBlock(tx)
	require.Zero(t, responses[0].Code, responses[0].Log)

	// replaying the identical bytes fails on the stale sequence.
	responses, _ = h.runBlock(tx)
	require.NotZero(t, responses[0].Code)
	require.Contains(t, responses[0].Log, "sequence mismatch")
}

func TestCheckTxAdmitsAndTracksSequence(t *testing.T) {
	sender := newAccount(t)
	recipient := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 100})
	h.runBlock()

	tx := h.signTx(sender, []txtypes.Any{sendMsg(sender.bech, recipient.bech, 10)}, 200_000)
	resp := h.app.CheckTx(baseapp.RequestCheckTx{Tx: tx})
	require.Zero(t, resp.Code, resp.Log)

	// the same bytes fail re-admission: the admission cache advanced the
	// sequence.
	resp = h.app.CheckTx(baseapp.RequestCheckTx{Tx: tx})
	require.NotZero(t, resp.Code)

	// committed state is untouched by CheckTx.
	require.Equal(t, "100uatom", h.queryBalance(sender.bech))
}

func TestInfoReportsCommittedHeightAndHash(t *testing.T) {
	sender := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 100})

	info := h.app.Info(baseapp.RequestInfo{})
	require.Equal(t, AppName, info.Data)
	require.Zero(t, info.LastBlockHeight)

	_, hash := func() ([]baseapp.ValidatorUpdate, []byte) {
		h.beginBlock()
		return h.endBlockAndCommit()
	}()

	info = h.app.Info(baseapp.RequestInfo{})
	require.Equal(t, int64(1), info.LastBlockHeight)
	require.Equal(t, hash, info.LastBlockAppHash)
}

func TestUnknownMessageTypeRejected(t *testing.T) {
	sender := newAccount(t)
	h := newHarness(t, []*account{sender}, map[string]int64{sender.bech: 100})

	tx := h.signTx(sender, []txtypes.Any{{TypeURL: "/unknown.MsgBogus", Value: []byte{}}}, 200_000)
	responses, _ := h.runBlock(tx)
	require.NotZero(t, responses[0].Code)
	require.Contains(t, responses[0].Log, "no decoder for message type")
}
