package baseapp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chainkit/corechain/store/rootmulti"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	txtypes "github.com/chainkit/corechain/x/auth/tx"
)

// AnteHandler matches x/auth/ante's composed pipeline signature, kept as
// a local type so this package never imports the module implementing it.
type AnteHandler func(ctx sdk.Context, tx txtypes.Tx, raw txtypes.TxRaw, simulate bool) (sdk.Context, error)

// execMode selects the run_tx variant: check stops after the
// AnteHandler and persists only into the admission cache, deliver runs
// the full pipeline against block state, simulate runs everything and
// persists nothing.
type execMode int

const (
	execModeCheck execMode = iota
	execModeDeliver
	execModeSimulate
)

// initialAppHash is the app-hash placeholder InitChain reports. The
// post-genesis multi-store has not been committed yet at that point, so
// no real root exists; existing chains recorded this literal in their
// genesis block and replacing it would fork them on replay.
var initialAppHash = []byte("hash_goes_here")

// BaseApp is the ABCI application kernel: one instance per process,
// holding the multi-store, the message router, the ante pipeline, and
// the registered modules behind a single read-write lock.
type BaseApp struct {
	mtx sync.RWMutex

	name    string
	version string
	runID   string

	cms    *rootmulti.Store
	router *Router
	ante   AnteHandler
	mm     *ModuleManager

	header       sdk.Header
	minGasPrices sdk.Coins
	maxBlockGas  int64

	blockGasMeter sdk.BlockGasMeter

	// checkState is the admission cache CheckTx sequences accumulate in
	// between commits; it is rebuilt from the committed state on every
	// Commit. Guarded by checkMtx since CheckTx may run concurrently with
	// itself under the shared read lock.
	checkState *rootmulti.TxStores
	checkMtx   sync.Mutex

	chainID       string
	initialHeight int64

	log *log.Entry
}

// Option configures a BaseApp at construction.
type Option func(*BaseApp)

func WithMinGasPrices(prices sdk.Coins) Option {
	return func(b *BaseApp) { b.minGasPrices = prices }
}

func WithVersion(version string) Option {
	return func(b *BaseApp) { b.version = version }
}

// NewBaseApp wires the kernel together. The router and module manager
// are fully populated by the caller before the first ABCI request
// arrives; registration is not concurrency-safe afterwards.
func NewBaseApp(name string, cms *rootmulti.Store, router *Router, ante AnteHandler, mm *ModuleManager, opts ...Option) *BaseApp {
	b := &BaseApp{
		name:          name,
		version:       "0.1.0",
		runID:         uuid.New().String(),
		cms:           cms,
		router:        router,
		ante:          ante,
		mm:            mm,
		blockGasMeter: sdk.NewBlockGasMeter(^uint64(0)),
		checkState:    cms.CacheMultiStore(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = log.WithFields(log.Fields{"prefix": "baseapp", "run": b.runID})
	return b
}

var _ Application = (*BaseApp)(nil)

func (b *BaseApp) Echo(msg string) string { return msg }

func (b *BaseApp) Flush() {}

// Info reports the last committed height and app-hash, the driver's
// handshake for replay detection.
func (b *BaseApp) Info(RequestInfo) ResponseInfo {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	height, appHash := b.cms.LastCommitInfo()
	return ResponseInfo{
		Data:             b.name,
		Version:          b.version,
		LastBlockHeight:  height,
		LastBlockAppHash: appHash,
	}
}

// genesisDoc is the app_state slice of the genesis document: module name
// to module-specific payload (chain_id and
// initial_height ride in the request itself).
type genesisDoc map[string]json.RawMessage

// InitChain runs every module's init_genesis against a write-capable
// context at height 0. Failure is fatal: a half-initialized genesis
// state must never serve consensus.
func (b *BaseApp) InitChain(req RequestInitChain) ResponseInitChain {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.chainID = req.ChainID
	b.initialHeight = req.InitialHeight
	if req.ConsensusParams.BlockMaxGas > 0 {
		b.maxBlockGas = req.ConsensusParams.BlockMaxGas
	}

	var appState genesisDoc
	if len(req.AppStateBytes) > 0 {
		if err := json.Unmarshal(req.AppStateBytes, &appState); err != nil {
			b.log.WithError(err).Fatal("init_chain: cannot decode genesis app state")
		}
	}

	if req.InitialHeight > 1 {
		if err := b.cms.SetInitialVersion(req.InitialHeight); err != nil {
			b.log.WithError(err).Fatal("init_chain: cannot set initial version")
		}
	}

	header := sdk.Header{ChainID: req.ChainID, Height: 0, Time: req.Time}
	b.header = header
	ctx := sdk.NewContext(b.cms, header, false)
	if err := b.mm.InitGenesis(ctx, appState); err != nil {
		b.log.WithError(err).Fatal("init_chain: module genesis failed")
	}

	b.log.WithFields(log.Fields{"chainID": req.ChainID, "modules": len(appState)}).Info("chain initialized")
	return ResponseInitChain{AppHash: initialAppHash}
}

// BeginBlock records the incoming header and fires each module's
// begin-block hook.
func (b *BaseApp) BeginBlock(req RequestBeginBlock) ResponseBeginBlock {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.header = req.Header
	if b.header.ChainID == "" {
		b.header.ChainID = b.chainID
	}
	maxGas := ^uint64(0)
	if b.maxBlockGas > 0 {
		maxGas = uint64(b.maxBlockGas)
	}
	b.blockGasMeter = sdk.NewBlockGasMeter(maxGas)

	ctx := sdk.NewContext(b.cms, b.header, false).WithBlockGasMeter(b.blockGasMeter)
	b.mm.BeginBlock(ctx)
	return ResponseBeginBlock{Events: ctx.EventManager().Events()}
}

// EndBlock fires each module's end-block hook and surfaces the staking
// module's validator-set diff.
func (b *BaseApp) EndBlock(RequestEndBlock) ResponseEndBlock {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	ctx := sdk.NewContext(b.cms, b.header, false).WithBlockGasMeter(b.blockGasMeter)
	updates := b.mm.EndBlock(ctx)
	return ResponseEndBlock{ValidatorUpdates: updates, Events: ctx.EventManager().Events()}
}

// Commit finalizes the block: every store's block cache writes through
// to its tree, each tree versions, and the resulting app-hash goes back
// to the driver. The check-mode admission cache is rebuilt over the new
// committed state.
func (b *BaseApp) Commit() ResponseCommit {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	appHash, height, err := b.cms.Commit()
	if err != nil {
		b.log.WithError(err).Fatal("commit failed")
	}

	b.checkMtx.Lock()
	b.checkState = b.cms.CacheMultiStore()
	b.checkMtx.Unlock()

	blocksCommitted.Inc()
	committedHeight.Set(float64(height))
	blockGasUsed.Set(float64(b.blockGasMeter.GasConsumed()))
	b.log.WithFields(log.Fields{"height": height, "appHash": fmt.Sprintf("%x", appHash)}).Info("block committed")
	return ResponseCommit{Data: appHash}
}

// CheckTx runs the AnteHandler in check mode for mempool admission. It
// holds only the read lock: committed state is not mutated, and the
// admission cache has its own mutex.
func (b *BaseApp) CheckTx(req RequestCheckTx) ResponseCheckTx {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	gasWanted, gasUsed, _, err := b.runTx(execModeCheck, req.Tx)
	if err != nil {
		mempoolRejects.Inc()
		return ResponseCheckTx{
			Code:      sdkerrors.Code(err),
			Log:       err.Error(),
			GasWanted: gasWanted,
			GasUsed:   gasUsed,
		}
	}
	return ResponseCheckTx{GasWanted: gasWanted, GasUsed: gasUsed}
}

// DeliverTx executes one transaction against block state. A
// failing or panicking tx leaves committed state untouched: all its
// writes lived in tx caches that are discarded on any exit but success.
func (b *BaseApp) DeliverTx(req RequestDeliverTx) ResponseDeliverTx {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	txsDelivered.Inc()
	gasWanted, gasUsed, events, err := b.runTx(execModeDeliver, req.Tx)
	if err != nil {
		txsFailed.Inc()
		return ResponseDeliverTx{
			Code:      sdkerrors.Code(err),
			Log:       err.Error(),
			GasWanted: gasWanted,
			GasUsed:   gasUsed,
		}
	}
	return ResponseDeliverTx{GasWanted: gasWanted, GasUsed: gasUsed, Events: events}
}

// Simulate estimates a transaction's gas by running the full pipeline
// against a throwaway overlay.
func (b *BaseApp) Simulate(txBytes []byte) (gasWanted, gasUsed int64, err error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	gasWanted, gasUsed, _, err = b.runTx(execModeSimulate, txBytes)
	return gasWanted, gasUsed, err
}

// runTx is the shared transaction lifecycle: decode,
// validate-basic, ante, route, write-through.
func (b *BaseApp) runTx(mode execMode, txBytes []byte) (gasWanted, gasUsed int64, events []sdk.Event, err error) {
	tx, raw, decodeErr := txtypes.DecodeTx(txBytes)
	if decodeErr != nil {
		return 0, 0, nil, sdkerrors.Wrapf(sdkerrors.ErrTxParseError, "%s", decodeErr)
	}

	if tx.Body.ExtensionCount > 0 {
		return 0, 0, nil, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "unknown extension options")
	}
	if len(tx.Signatures) != len(tx.AuthInfo.SignerInfos) {
		return 0, 0, nil, sdkerrors.Wrapf(sdkerrors.ErrTxValidation, "signature count (%d) does not match signer count (%d)", len(tx.Signatures), len(tx.AuthInfo.SignerInfos))
	}
	if tx.AuthInfo.Fee.GasLimit > math.MaxInt64 {
		return 0, 0, nil, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "gas limit exceeds maximum")
	}
	gasWanted = int64(tx.AuthInfo.Fee.GasLimit)

	if len(tx.Body.Messages) == 0 {
		return gasWanted, 0, nil, sdkerrors.Wrap(sdkerrors.ErrTxValidation, "tx has no messages")
	}
	msgs := make([]sdk.Msg, 0, len(tx.Body.Messages))
	for _, any := range tx.Body.Messages {
		msg, decErr := b.router.Decode(any.TypeURL, any.Value)
		if decErr != nil {
			return gasWanted, 0, nil, decErr
		}
		if vbErr := msg.ValidateBasic(); vbErr != nil {
			return gasWanted, 0, nil, vbErr
		}
		msgs = append(msgs, msg)
	}

	gasMeter := sdk.NewGasMeter(tx.AuthInfo.Fee.GasLimit)
	defer func() {
		gasUsed = int64(gasMeter.GasConsumed())
		if r := recover(); r != nil {
			b.log.WithField("panic", r).Error("recovered panic in tx execution")
			err = sdkerrors.Wrapf(sdkerrors.ErrCustom, "panic in tx execution: %v", r)
			events = nil
		}
	}()

	if mode == execModeCheck {
		b.checkMtx.Lock()
		defer b.checkMtx.Unlock()
	}

	anteStores := b.txOverlay(mode)
	anteCtx := sdk.NewContext(anteStores, b.header, mode == execModeCheck).
		WithTxBytes(txBytes).
		WithGasMeter(gasMeter).
		WithMinGasPrices(b.minGasPrices)

	if b.ante != nil {
		if _, anteErr := b.ante(anteCtx, tx, raw, mode == execModeSimulate); anteErr != nil {
			anteStores.Discard()
			return gasWanted, gasUsed, nil, anteErr
		}
	}

	if mode == execModeCheck {
		// admission stops after the ante pipeline; sequence bumps persist
		// in the check cache so a second identical tx is rejected.
		anteStores.Write()
		return gasWanted, gasUsed, nil, nil
	}

	// messages run in a fresh overlay above the ante stage's writes;
	// neither layer touches block state until the whole batch succeeds,
	// so a failing message leaves committed state byte-identical.
	msgStores := anteStores.CacheWrap()

	msgCtx := sdk.NewContext(msgStores, b.header, false).
		WithTxBytes(txBytes).
		WithGasMeter(gasMeter).
		WithEventManager(anteCtx.EventManager())

	for i, msg := range msgs {
		handler, routeErr := b.router.Handler(msg.TypeURL())
		if routeErr != nil {
			msgStores.Discard()
			anteStores.Discard()
			return gasWanted, gasUsed, nil, routeErr
		}
		result, msgErr := handler(msgCtx, msg)
		if msgErr != nil {
			msgStores.Discard()
			anteStores.Discard()
			return gasWanted, gasUsed, nil, errors.Wrapf(msgErr, "message %d (%s)", i, msg.TypeURL())
		}
		if result.Log != "" {
			msgCtx.EventManager().EmitEvent(sdk.NewEvent("message",
				sdk.NewAttribute("action", msg.TypeURL()),
				sdk.NewAttribute("log", result.Log),
			))
		} else {
			msgCtx.EventManager().EmitEvent(sdk.NewEvent("message",
				sdk.NewAttribute("action", msg.TypeURL()),
			))
		}
	}

	if mode == execModeDeliver {
		if blockErr := b.blockGasMeter.ConsumeGas(gasMeter.GasConsumed(), "block gas"); blockErr != nil {
			msgStores.Discard()
			anteStores.Discard()
			return gasWanted, gasUsed, nil, blockErr
		}
		msgStores.Write()
		anteStores.Write()
	}

	return gasWanted, gasUsed, msgCtx.EventManager().Events(), nil
}

// txOverlay opens the per-transaction cache layer appropriate to mode.
func (b *BaseApp) txOverlay(mode execMode) *rootmulti.TxStores {
	if mode == execModeCheck {
		return b.checkState.CacheWrap()
	}
	return b.cms.CacheMultiStore()
}

// Query serves a read-only request against state pinned at the
// requested height (0 = latest committed). Concurrent with the mutating
// sequence under the read lock.
func (b *BaseApp) Query(req RequestQuery) ResponseQuery {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	height := req.Height
	lastHeight, _ := b.cms.LastCommitInfo()
	if height == 0 {
		height = lastHeight
	}
	handler, ok := b.router.Query(req.Path)
	if !ok {
		return ResponseQuery{Code: sdkerrors.ErrUnknownRequest.Code, Log: "unknown query path " + req.Path}
	}
	view, err := b.cms.CacheMultiStoreAt(height)
	if err != nil {
		return ResponseQuery{Code: sdkerrors.ErrInvalidRequest.Code, Log: "no committed state at height " + strconv.FormatInt(height, 10)}
	}
	ctx := sdk.NewContext(view, sdk.Header{ChainID: b.chainID, Height: height}, false)
	value, err := handler(ctx, req.Data)
	if err != nil {
		return ResponseQuery{Code: sdkerrors.Code(err), Log: err.Error(), Height: height}
	}
	return ResponseQuery{Value: value, Height: height}
}

// Snapshot operations are unimplemented in scope.

func (b *BaseApp) ListSnapshots(RequestListSnapshots) ResponseListSnapshots {
	return ResponseListSnapshots{}
}

func (b *BaseApp) OfferSnapshot(RequestOfferSnapshot) ResponseOfferSnapshot {
	return ResponseOfferSnapshot{Accepted: false}
}

func (b *BaseApp) LoadSnapshotChunk(RequestLoadSnapshotChunk) ResponseLoadSnapshotChunk {
	return ResponseLoadSnapshotChunk{}
}

func (b *BaseApp) ApplySnapshotChunk(RequestApplySnapshotChunk) ResponseApplySnapshotChunk {
	return ResponseApplySnapshotChunk{Accepted: false}
}
