// Package keeper implements a minimal parameter subspace: each module
// mounts one Subspace over a shared store key, namespaced by the module's
// name, and stores each parameter JSON-encoded under name/key. It backs
// the auth, staking, and distribution parameters (max_memo_characters,
// tx_cost_per_byte, unbonding_time, max_validators, community_tax, ...)
// without pulling
// in a full proto-reflection param
// registry - this kernel's parameter set is small and fixed per module.
package keeper

import (
	"encoding/json"

	sdk "github.com/chainkit/corechain/types"
	st "github.com/chainkit/corechain/store/types"
)

// Keeper owns the single store key every module's Subspace is carved out
// of.
type Keeper struct {
	storeKey st.StoreKey
}

func NewKeeper(storeKey st.StoreKey) Keeper {
	return Keeper{storeKey: storeKey}
}

// Subspace returns a namespaced view scoped to moduleName; two modules
// never see each other's keys because every key is prefixed by the
// module name.
func (k Keeper) Subspace(moduleName string) Subspace {
	return Subspace{storeKey: k.storeKey, name: moduleName}
}

// Subspace is a per-module namespace within the shared params store.
type Subspace struct {
	storeKey st.StoreKey
	name     string
}

func (s Subspace) key(paramKey string) []byte {
	return append([]byte(s.name+"/"), []byte(paramKey)...)
}

// Set JSON-encodes value and stores it under paramKey within this
// subspace.
func (s Subspace) Set(ctx sdk.Context, paramKey string, value interface{}) {
	bz, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(s.storeKey).Set(s.key(paramKey), bz)
}

// Get decodes the stored value for paramKey into dest, panicking if the
// key has never been set - every module is expected to set its full
// parameter set at genesis, so a missing key here is a programming error,
// not a runtime condition to handle gracefully.
func (s Subspace) Get(ctx sdk.Context, paramKey string, dest interface{}) {
	bz := ctx.KVStore(s.storeKey).Get(s.key(paramKey))
	if bz == nil {
		panic("params: key not set: " + s.name + "/" + paramKey)
	}
	if err := json.Unmarshal(bz, dest); err != nil {
		panic(err)
	}
}

// Has reports whether paramKey has been set in this subspace.
func (s Subspace) Has(ctx sdk.Context, paramKey string) bool {
	return ctx.KVStore(s.storeKey).Has(s.key(paramKey))
}
