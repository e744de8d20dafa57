// Package app assembles the full application from the kernel and the
// modules: store keys, keepers, the hook graph, the message and query
// routers, and the module invocation order.
package app

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/baseapp"
	"github.com/chainkit/corechain/crypto/bech32"
	"github.com/chainkit/corechain/store/rootmulti"
	st "github.com/chainkit/corechain/store/types"
	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/auth/ante"
	authkeeper "github.com/chainkit/corechain/x/auth/keeper"
	authtypes "github.com/chainkit/corechain/x/auth/types"
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	distrkeeper "github.com/chainkit/corechain/x/distribution/keeper"
	distrtypes "github.com/chainkit/corechain/x/distribution/types"
	paramskeeper "github.com/chainkit/corechain/x/params/keeper"
	stakingkeeper "github.com/chainkit/corechain/x/staking/keeper"
	stakingtypes "github.com/chainkit/corechain/x/staking/types"
)

const AppName = "corechain"

// App is the wired application: the BaseApp kernel plus every module
// keeper, exposed for tests and for the server package.
type App struct {
	*baseapp.BaseApp

	Keys map[string]st.StoreKey

	ParamsKeeper  paramskeeper.Keeper
	AccountKeeper authkeeper.Keeper
	BankKeeper    bankkeeper.Keeper
	StakingKeeper stakingkeeper.Keeper
	DistrKeeper   distrkeeper.Keeper
}

// NewApp builds the application over db. The store-key set is fixed: one
// sub-store per module plus the shared params space.
func NewApp(db *bolt.DB, opts ...baseapp.Option) (*App, error) {
	keys := map[string]st.StoreKey{
		authtypes.ModuleName:    st.NewKVStoreKey(authtypes.ModuleName),
		banktypes.ModuleName:    st.NewKVStoreKey(banktypes.ModuleName),
		stakingtypes.ModuleName: st.NewKVStoreKey(stakingtypes.ModuleName),
		distrtypes.ModuleName:   st.NewKVStoreKey(distrtypes.ModuleName),
		"params":                st.NewKVStoreKey("params"),
	}

	cms, err := rootmulti.NewStore(db, keys)
	if err != nil {
		return nil, err
	}

	paramsKeeper := paramskeeper.NewKeeper(keys["params"])
	accountKeeper := authkeeper.NewKeeper(keys[authtypes.ModuleName], paramsKeeper.Subspace(authtypes.ModuleName))
	bankKeeper := bankkeeper.NewKeeper(keys[banktypes.ModuleName])
	stakingKeeper := stakingkeeper.NewKeeper(keys[stakingtypes.ModuleName], bankKeeper, paramsKeeper.Subspace(stakingtypes.ModuleName))
	distrKeeper := distrkeeper.NewKeeper(keys[distrtypes.ModuleName], paramsKeeper.Subspace(distrtypes.ModuleName), bankKeeper, stakingKeeper)
	stakingKeeper = stakingKeeper.SetHooks(stakingtypes.NewMultiStakingHooks(distrKeeper.Hooks()))

	router := baseapp.NewRouter()
	registerRoutes(router, accountKeeper, bankKeeper, stakingKeeper, distrKeeper)

	anteHandler := ante.NewAnteHandler(ante.HandlerOptions{
		AccountKeeper: accountKeeper,
		BankKeeper:    bankKeeper,
		MsgDecoder:    router.Decode,
	})

	mm := baseapp.NewModuleManager(
		authModule{k: accountKeeper},
		bankModule{k: bankKeeper},
		// distribution allocates against the previous block's powers, so it
		// must run before staking recomputes them.
		distrModule{k: distrKeeper},
		stakingModule{k: stakingKeeper},
	)

	ba := baseapp.NewBaseApp(AppName, cms, router, baseapp.AnteHandler(anteHandler), mm, opts...)
	return &App{
		BaseApp:       ba,
		Keys:          keys,
		ParamsKeeper:  paramsKeeper,
		AccountKeeper: accountKeeper,
		BankKeeper:    bankKeeper,
		StakingKeeper: stakingKeeper,
		DistrKeeper:   distrKeeper,
	}, nil
}

func registerRoutes(router *baseapp.Router, ak authkeeper.Keeper, bk bankkeeper.Keeper, sk stakingkeeper.Keeper, dk distrkeeper.Keeper) {
	router.AddRoute(banktypes.TypeURLMsgSend,
		func(value []byte) (sdk.Msg, error) { return banktypes.DecodeMsgSend(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return bk.HandleMsgSend(ctx, msg.(banktypes.MsgSend))
		})

	router.AddRoute(stakingtypes.TypeURLMsgCreateValidator,
		func(value []byte) (sdk.Msg, error) { return stakingtypes.DecodeMsgCreateValidator(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return sk.HandleMsgCreateValidator(ctx, msg.(stakingtypes.MsgCreateValidator))
		})
	router.AddRoute(stakingtypes.TypeURLMsgEditValidator,
		func(value []byte) (sdk.Msg, error) { return stakingtypes.DecodeMsgEditValidator(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return sk.HandleMsgEditValidator(ctx, msg.(stakingtypes.MsgEditValidator))
		})
	router.AddRoute(stakingtypes.TypeURLMsgDelegate,
		func(value []byte) (sdk.Msg, error) { return stakingtypes.DecodeMsgDelegate(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return sk.HandleMsgDelegate(ctx, msg.(stakingtypes.MsgDelegate))
		})
	router.AddRoute(stakingtypes.TypeURLMsgUndelegate,
		func(value []byte) (sdk.Msg, error) { return stakingtypes.DecodeMsgUndelegate(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return sk.HandleMsgUndelegate(ctx, msg.(stakingtypes.MsgUndelegate))
		})
	router.AddRoute(stakingtypes.TypeURLMsgBeginRedelegate,
		func(value []byte) (sdk.Msg, error) { return stakingtypes.DecodeMsgBeginRedelegate(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return sk.HandleMsgBeginRedelegate(ctx, msg.(stakingtypes.MsgBeginRedelegate))
		})

	router.AddRoute(distrtypes.TypeURLMsgWithdrawDelegatorReward,
		func(value []byte) (sdk.Msg, error) { return distrtypes.DecodeMsgWithdrawDelegatorReward(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return dk.HandleMsgWithdrawDelegatorReward(ctx, msg.(distrtypes.MsgWithdrawDelegatorReward))
		})
	router.AddRoute(distrtypes.TypeURLMsgWithdrawValidatorCommission,
		func(value []byte) (sdk.Msg, error) { return distrtypes.DecodeMsgWithdrawValidatorCommission(value) },
		func(ctx sdk.Context, msg sdk.Msg) (sdk.Result, error) {
			return dk.HandleMsgWithdrawValidatorCommission(ctx, msg.(distrtypes.MsgWithdrawValidatorCommission))
		})

	// query paths: the request data is a bech32 address (bank, auth) or a
	// bech32 validator operator address (staking).
	router.AddQuery("/bank/balances", func(ctx sdk.Context, data []byte) ([]byte, error) {
		_, addr, err := bech32.DecodeToBytes(string(data))
		if err != nil {
			return nil, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid address: %s", err)
		}
		coins := bk.GetAllBalances(ctx, addr)
		return json.Marshal(coins.String())
	})
	router.AddQuery("/auth/account", func(ctx sdk.Context, data []byte) ([]byte, error) {
		_, addr, err := bech32.DecodeToBytes(string(data))
		if err != nil {
			return nil, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid address: %s", err)
		}
		acc, ok := ak.GetAccount(ctx, addr)
		if !ok {
			return nil, sdkerrors.Wrap(sdkerrors.ErrAccountNotFound, "account does not exist")
		}
		return json.Marshal(map[string]uint64{
			"account_number": acc.AccountNumber,
			"sequence":       acc.Sequence,
		})
	})
	router.AddQuery("/staking/validator", func(ctx sdk.Context, data []byte) ([]byte, error) {
		_, addr, err := bech32.DecodeToBytes(string(data))
		if err != nil {
			return nil, sdkerrors.Wrapf(sdkerrors.ErrInvalidRequest, "invalid validator address: %s", err)
		}
		v, ok := sk.GetValidator(ctx, addr)
		if !ok {
			return nil, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "validator not found")
		}
		return json.Marshal(map[string]string{
			"status": v.Status.String(),
			"tokens": v.Tokens.String(),
			"shares": v.DelegatorShares.String(),
		})
	})
}
