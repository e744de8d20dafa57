// Package keeper implements account storage for x/auth: address ->
// (account number, sequence, public key), plus the global next-account-
// number counter, backed by the same KVStore surface every other module
// keeper uses.
package keeper

import (
	"encoding/binary"

	sdk "github.com/chainkit/corechain/types"
	st "github.com/chainkit/corechain/store/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	authtypes "github.com/chainkit/corechain/x/auth/types"
)

var (
	accountPrefix    = []byte{0x01}
	nextAcctNumberKey = []byte{0x02}
)

func accountKey(addr []byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

// Keeper reads and writes account state through a single store key, the
// way every x/* keeper in this kernel is handed one KVStore rather than
// the whole multi-store. Its parameter subspace backs the max-memo-length
// and gas-cost parameters the AnteHandler pipeline reads every tx.
type Keeper struct {
	storeKey  st.StoreKey
	paramSpace paramskeeper.Subspace
}

func NewKeeper(storeKey st.StoreKey, paramSpace paramskeeper.Subspace) Keeper {
	return Keeper{storeKey: storeKey, paramSpace: paramSpace}
}

// GetParams returns the auth module's current parameters.
func (k Keeper) GetParams(ctx sdk.Context) authtypes.Params {
	var p authtypes.Params
	k.paramSpace.Get(ctx, authtypes.ParamsKey, &p)
	return p
}

func (k Keeper) SetParams(ctx sdk.Context, p authtypes.Params) {
	k.paramSpace.Set(ctx, authtypes.ParamsKey, p)
}

func (k Keeper) store(ctx sdk.Context) st.KVStore {
	return ctx.KVStore(k.storeKey)
}

// GetAccount returns the stored account for addr, or (Account{}, false) if
// none has been created yet.
func (k Keeper) GetAccount(ctx sdk.Context, addr []byte) (authtypes.Account, bool) {
	bz := k.store(ctx).Get(accountKey(addr))
	if bz == nil {
		return authtypes.Account{}, false
	}
	return decodeAccount(addr, bz), true
}

// GetOrCreateAccount returns the existing account for addr, or allocates
// the next account number and persists a fresh zero-sequence account.
func (k Keeper) GetOrCreateAccount(ctx sdk.Context, addr []byte) authtypes.Account {
	if acc, ok := k.GetAccount(ctx, addr); ok {
		return acc
	}
	acc := authtypes.Account{Address: addr, AccountNumber: k.nextAccountNumber(ctx)}
	k.SetAccount(ctx, acc)
	return acc
}

func (k Keeper) SetAccount(ctx sdk.Context, acc authtypes.Account) {
	k.store(ctx).Set(accountKey(acc.Address), encodeAccount(acc))
}

func (k Keeper) nextAccountNumber(ctx sdk.Context) uint64 {
	s := k.store(ctx)
	var n uint64
	if bz := s.Get(nextAcctNumberKey); bz != nil {
		n = binary.BigEndian.Uint64(bz)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n+1)
	s.Set(nextAcctNumberKey, buf)
	return n
}

// encodeAccount lays out account number, sequence, and pubkey as
// fixed-width/length-prefixed fields - the same style node.go uses for the
// tree's own canonical encoding, rather than pulling in a generic
// serialization library for a three-field record.
func encodeAccount(acc authtypes.Account) []byte {
	buf := make([]byte, 0, 16+1+len(acc.PubKey))
	num := make([]byte, 8)
	binary.BigEndian.PutUint64(num, acc.AccountNumber)
	buf = append(buf, num...)
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, acc.Sequence)
	buf = append(buf, seq...)
	buf = append(buf, byte(len(acc.PubKey)))
	buf = append(buf, acc.PubKey...)
	return buf
}

func decodeAccount(addr, bz []byte) authtypes.Account {
	num := binary.BigEndian.Uint64(bz[0:8])
	seq := binary.BigEndian.Uint64(bz[8:16])
	pkLen := int(bz[16])
	var pk []byte
	if pkLen > 0 {
		pk = append([]byte{}, bz[17:17+pkLen]...)
	}
	return authtypes.Account{Address: addr, AccountNumber: num, Sequence: seq, PubKey: pk}
}
