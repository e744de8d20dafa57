// Package keeper implements x/staking: validator and delegation storage,
// the bond/unbond/redelegate state machine, end-of-block validator-set
// recomputation, and slashing.
package keeper

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/chainkit/corechain/crypto/keys"
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	"github.com/chainkit/corechain/x/staking/types"
)

// Keeper is handed one KVStore, the same pattern every module keeper in
// this kernel follows, plus the bank keeper it moves tokens through for
// every bond/unbond/slash transfer.
type Keeper struct {
	storeKey   st.StoreKey
	bankKeeper bankkeeper.Keeper
	paramSpace paramskeeper.Subspace
	hooks      types.StakingHooks
}

func NewKeeper(storeKey st.StoreKey, bankKeeper bankkeeper.Keeper, paramSpace paramskeeper.Subspace) Keeper {
	return Keeper{storeKey: storeKey, bankKeeper: bankKeeper, paramSpace: paramSpace}
}

// SetHooks registers the module(s) notified before/after a delegation's
// shares change or a validator is slashed - distribution is the one
// implementor in this kernel, wired at app construction time. Panics if
// called twice, the same guard cosmos-sdk's SetHooks uses since hooks are
// meant to be fixed for the app's lifetime.
func (k Keeper) SetHooks(h types.StakingHooks) Keeper {
	if k.hooks != nil {
		panic("staking: SetHooks called twice")
	}
	k.hooks = h
	return k
}

func (k Keeper) store(ctx sdk.Context) st.KVStore {
	return ctx.KVStore(k.storeKey)
}

func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	var p types.Params
	k.paramSpace.Get(ctx, types.ParamsKey, &p)
	return p
}

func (k Keeper) SetParams(ctx sdk.Context, p types.Params) {
	k.paramSpace.Set(ctx, types.ParamsKey, p)
}

// --- validator storage ---

type validatorJSON struct {
	OperatorAddress   []byte
	ConsensusPubKey   []byte
	Jailed            bool
	Status            types.BondStatus
	Tokens            string
	DelegatorShares   string
	Description       types.Description
	UnbondingHeight   int64
	UnbondingTime     int64 // unix nanos
	CommissionRate    string
	CommissionMaxRate string
	CommissionMaxChangeRate string
	CommissionUpdateTime    int64 // unix nanos
	MinSelfDelegation string
}

func encodeValidator(v types.Validator) []byte {
	bz, err := json.Marshal(validatorJSON{
		OperatorAddress:         v.OperatorAddress,
		ConsensusPubKey:         v.ConsensusPubKey,
		Jailed:                  v.Jailed,
		Status:                  v.Status,
		Tokens:                  v.Tokens.String(),
		DelegatorShares:         v.DelegatorShares.String(),
		Description:             v.Description,
		UnbondingHeight:         v.UnbondingHeight,
		UnbondingTime:           v.UnbondingTime.UnixNano(),
		CommissionRate:          v.Commission.Rate.String(),
		CommissionMaxRate:       v.Commission.MaxRate.String(),
		CommissionMaxChangeRate: v.Commission.MaxChangeRate.String(),
		CommissionUpdateTime:    v.Commission.UpdateTime.UnixNano(),
		MinSelfDelegation:       v.MinSelfDelegation.String(),
	})
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeValidator(bz []byte) types.Validator {
	var vj validatorJSON
	if err := json.Unmarshal(bz, &vj); err != nil {
		panic(err)
	}
	tokens, _ := sdk.NewIntFromString(vj.Tokens)
	shares, _ := sdk.NewDecFromString(vj.DelegatorShares)
	rate, _ := sdk.NewDecFromString(vj.CommissionRate)
	maxRate, _ := sdk.NewDecFromString(vj.CommissionMaxRate)
	maxChange, _ := sdk.NewDecFromString(vj.CommissionMaxChangeRate)
	minSelf, _ := sdk.NewIntFromString(vj.MinSelfDelegation)
	return types.Validator{
		OperatorAddress: vj.OperatorAddress,
		ConsensusPubKey: vj.ConsensusPubKey,
		Jailed:          vj.Jailed,
		Status:          vj.Status,
		Tokens:          tokens,
		DelegatorShares: shares,
		Description:     vj.Description,
		UnbondingHeight: vj.UnbondingHeight,
		UnbondingTime:   time.Unix(0, vj.UnbondingTime).UTC(),
		Commission: types.Commission{
			Rate:          rate,
			MaxRate:       maxRate,
			MaxChangeRate: maxChange,
			UpdateTime:    time.Unix(0, vj.CommissionUpdateTime).UTC(),
		},
		MinSelfDelegation: minSelf,
	}
}

func (k Keeper) GetValidator(ctx sdk.Context, operatorAddr []byte) (types.Validator, bool) {
	bz := k.store(ctx).Get(types.ValidatorKey(operatorAddr))
	if bz == nil {
		return types.Validator{}, false
	}
	return decodeValidator(bz), true
}

// SetValidator persists v's record only; the power-index entry is written
// separately by SetValidatorByPowerIndex.
func (k Keeper) SetValidator(ctx sdk.Context, v types.Validator) {
	k.store(ctx).Set(types.ValidatorKey(v.OperatorAddress), encodeValidator(v))
}

// SetValidatorByPowerIndex writes (or rewrites) the power-sorted index
// entry for v, used by the end-of-block top-N selection.
func (k Keeper) SetValidatorByPowerIndex(ctx sdk.Context, v types.Validator) {
	k.store(ctx).Set(types.ValidatorsByPowerIndexKeyFor(v.ConsensusPower(), v.OperatorAddress), v.OperatorAddress)
}

func (k Keeper) DeleteValidatorByPowerIndex(ctx sdk.Context, v types.Validator) {
	k.store(ctx).Delete(types.ValidatorsByPowerIndexKeyFor(v.ConsensusPower(), v.OperatorAddress))
}

// IterateValidatorsByPower walks validators from highest to lowest
// consensus power, the order apply_and_return_validator_set_updates
// selects the top MaxValidators from.
func (k Keeper) IterateValidatorsByPower(ctx sdk.Context, fn func(v types.Validator) (stop bool)) {
	prefix := types.ValidatorsByPowerIndexKey
	it := k.store(ctx).ReverseIterator(prefix, sdk.PrefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		operatorAddr := it.Value()
		v, ok := k.GetValidator(ctx, operatorAddr)
		if !ok {
			continue
		}
		if fn(v) {
			return
		}
	}
}

func (k Keeper) GetLastValidatorPower(ctx sdk.Context, operatorAddr []byte) (int64, bool) {
	bz := k.store(ctx).Get(types.LastValidatorPowerKeyFor(operatorAddr))
	if bz == nil {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(bz)), true
}

func (k Keeper) SetLastValidatorPower(ctx sdk.Context, operatorAddr []byte, power int64) {
	k.store(ctx).Set(types.LastValidatorPowerKeyFor(operatorAddr), types.PowerBytes(power))
}

func (k Keeper) DeleteLastValidatorPower(ctx sdk.Context, operatorAddr []byte) {
	k.store(ctx).Delete(types.LastValidatorPowerKeyFor(operatorAddr))
}

func (k Keeper) GetLastTotalPower(ctx sdk.Context) sdk.Int {
	bz := k.store(ctx).Get(types.LastTotalPowerKey)
	if bz == nil {
		return sdk.ZeroInt()
	}
	n, _ := sdk.NewIntFromString(string(bz))
	return n
}

func (k Keeper) SetLastTotalPower(ctx sdk.Context, power sdk.Int) {
	k.store(ctx).Set(types.LastTotalPowerKey, []byte(power.String()))
}

// consAddressFromPubKey derives the consensus address an ed25519
// consensus public key indexes under, nil if the key bytes are malformed.
func consAddressFromPubKey(pubKey []byte) []byte {
	key, err := keys.NewEd25519PubKey(pubKey)
	if err != nil {
		return nil
	}
	return key.Address()
}

// RemoveValidator deletes a fully-unbonded validator and every index
// entry pointing at it. Only called once the validator has no remaining
// delegator shares.
func (k Keeper) RemoveValidator(ctx sdk.Context, v types.Validator) {
	k.DeleteValidatorByPowerIndex(ctx, v)
	k.store(ctx).Delete(types.ValidatorKey(v.OperatorAddress))
	if consAddr := consAddressFromPubKey(v.ConsensusPubKey); consAddr != nil {
		k.store(ctx).Delete(types.ValidatorByConsAddrKey(consAddr))
	}
	if k.hooks != nil {
		k.hooks.AfterValidatorRemoved(ctx, v.OperatorAddress)
	}
}

// bondedPoolName / notBondedPoolName are the two module accounts every
// bond-status transition moves tokens between.
const (
	bondedPoolName    = banktypes.BondedPoolName
	notBondedPoolName = banktypes.NotBondedPoolName
)
