package types

import (
	"time"

	st "github.com/chainkit/corechain/store/types"
)

// MultiStore is the capability surface Context needs from the multi-store:
// named KVStore handles, independent of whether the caller is a tx-scoped
// cache, a block-scoped cache, or a read-only historical view.
type MultiStore interface {
	GetKVStore(name string) st.KVStore
}

// Header carries the portion of the consensus driver's block header the
// kernel cares about.
type Header struct {
	ChainID string
	Height  int64
	Time    time.Time
	Proposer []byte
}

// Context is the per-request execution handle threaded through AnteHandler
// and module handlers. A single struct serves every variant named in the
// data model (Init/Tx/Block/Query); callers that need variant-specific
// guarantees (e.g. a query context must never be written through) enforce
// them by which constructor they call and which MultiStore they pass, not
// by a separate Go type per variant.
type Context struct {
	store       MultiStore
	header      Header
	chainID     string
	txBytes     []byte
	eventMgr    *EventManager
	gasMeter    GasMeter
	blockGas    BlockGasMeter
	isCheckTx   bool
	minGasPrice Coins
}

func NewContext(store MultiStore, header Header, isCheckTx bool) Context {
	return Context{
		store:     store,
		header:    header,
		chainID:   header.ChainID,
		eventMgr:  NewEventManager(),
		gasMeter:  NewInfiniteGasMeter(),
		isCheckTx: isCheckTx,
	}
}

func (c Context) KVStore(key st.StoreKey) st.KVStore { return c.store.GetKVStore(key.Name()) }

func (c Context) MultiStore() MultiStore { return c.store }

func (c Context) BlockHeight() int64 { return c.header.Height }

func (c Context) BlockTime() time.Time { return c.header.Time }

func (c Context) ChainID() string { return c.chainID }

func (c Context) TxBytes() []byte { return c.txBytes }

func (c Context) IsCheckTx() bool { return c.isCheckTx }

func (c Context) EventManager() *EventManager { return c.eventMgr }

func (c Context) GasMeter() GasMeter { return c.gasMeter }

func (c Context) BlockGasMeter() BlockGasMeter { return c.blockGas }

func (c Context) MinGasPrices() Coins { return c.minGasPrice }

// WithMultiStore returns a derived Context bound to a different store view -
// used to open a fresh tx cache on top of the same header/gas/event state.
func (c Context) WithMultiStore(store MultiStore) Context {
	c.store = store
	return c
}

func (c Context) WithTxBytes(b []byte) Context {
	c.txBytes = b
	return c
}

func (c Context) WithGasMeter(gm GasMeter) Context {
	c.gasMeter = gm
	return c
}

func (c Context) WithBlockGasMeter(bgm BlockGasMeter) Context {
	c.blockGas = bgm
	return c
}

func (c Context) WithEventManager(em *EventManager) Context {
	c.eventMgr = em
	return c
}

func (c Context) WithIsCheckTx(check bool) Context {
	c.isCheckTx = check
	return c
}

func (c Context) WithMinGasPrices(coins Coins) Context {
	c.minGasPrice = coins
	return c
}
