// Package baseapp implements the ABCI application kernel: request
// dispatch across the full ABCI surface, the transaction lifecycle
// (decode, ante, route, write-through), and the module orchestration
// hooks the consensus driver's block sequence fires.
package baseapp

import (
	"time"

	sdk "github.com/chainkit/corechain/types"
)

// The ABCI request/response shapes the consensus driver exchanges with
// the kernel. Only the fields the kernel acts on are carried;
// transport framing belongs to the driver connection, not the kernel.

type RequestInitChain struct {
	ChainID         string
	Time            time.Time
	InitialHeight   int64
	AppStateBytes   []byte
	ConsensusParams ConsensusParams
}

type ConsensusParams struct {
	BlockMaxBytes int64
	BlockMaxGas   int64
}

type ResponseInitChain struct {
	Validators []ValidatorUpdate
	AppHash    []byte
}

type RequestInfo struct{}

type ResponseInfo struct {
	Data             string
	Version          string
	LastBlockHeight  int64
	LastBlockAppHash []byte
}

type RequestQuery struct {
	Path   string
	Data   []byte
	Height int64
}

type ResponseQuery struct {
	Code   uint32
	Log    string
	Value  []byte
	Height int64
}

type RequestCheckTx struct {
	Tx []byte
}

type ResponseCheckTx struct {
	Code      uint32
	Log       string
	GasWanted int64
	GasUsed   int64
}

type RequestDeliverTx struct {
	Tx []byte
}

type ResponseDeliverTx struct {
	Code      uint32
	Log       string
	Data      []byte
	GasWanted int64
	GasUsed   int64
	Events    []sdk.Event
}

type RequestBeginBlock struct {
	Header sdk.Header
}

type ResponseBeginBlock struct {
	Events []sdk.Event
}

type RequestEndBlock struct {
	Height int64
}

type ResponseEndBlock struct {
	ValidatorUpdates []ValidatorUpdate
	Events           []sdk.Event
}

type ResponseCommit struct {
	Data         []byte
	RetainHeight int64
}

// ValidatorUpdate is a consensus-power change handed back through
// EndBlock; power 0 removes the validator from the active set.
type ValidatorUpdate struct {
	PubKey []byte
	Power  int64
}

// Snapshot requests are acknowledged but not implemented; state sync is
// not supported.

type RequestListSnapshots struct{}

type ResponseListSnapshots struct{}

type RequestOfferSnapshot struct{}

type ResponseOfferSnapshot struct {
	Accepted bool
}

type RequestLoadSnapshotChunk struct {
	Height uint64
	Format uint32
	Chunk  uint32
}

type ResponseLoadSnapshotChunk struct {
	Chunk []byte
}

type RequestApplySnapshotChunk struct {
	Index uint32
	Chunk []byte
}

type ResponseApplySnapshotChunk struct {
	Accepted bool
}

// Application is the full ABCI surface the consensus driver calls. The
// mutating block sequence (InitChain, BeginBlock, DeliverTx, EndBlock,
// Commit) is invoked strictly sequentially; Query and CheckTx may be
// concurrent with it.
type Application interface {
	Echo(msg string) string
	Flush()
	Info(RequestInfo) ResponseInfo
	InitChain(RequestInitChain) ResponseInitChain
	Query(RequestQuery) ResponseQuery
	CheckTx(RequestCheckTx) ResponseCheckTx
	DeliverTx(RequestDeliverTx) ResponseDeliverTx
	BeginBlock(RequestBeginBlock) ResponseBeginBlock
	EndBlock(RequestEndBlock) ResponseEndBlock
	Commit() ResponseCommit
	ListSnapshots(RequestListSnapshots) ResponseListSnapshots
	OfferSnapshot(RequestOfferSnapshot) ResponseOfferSnapshot
	LoadSnapshotChunk(RequestLoadSnapshotChunk) ResponseLoadSnapshotChunk
	ApplySnapshotChunk(RequestApplySnapshotChunk) ResponseApplySnapshotChunk
}
