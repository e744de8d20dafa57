package app

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/chainkit/corechain/baseapp"
	"github.com/chainkit/corechain/crypto/bech32"
	sdk "github.com/chainkit/corechain/types"
	authkeeper "github.com/chainkit/corechain/x/auth/keeper"
	authtypes "github.com/chainkit/corechain/x/auth/types"
	bankkeeper "github.com/chainkit/corechain/x/bank/keeper"
	banktypes "github.com/chainkit/corechain/x/bank/types"
	distrkeeper "github.com/chainkit/corechain/x/distribution/keeper"
	distrtypes "github.com/chainkit/corechain/x/distribution/types"
	stakingkeeper "github.com/chainkit/corechain/x/staking/keeper"
	stakingtypes "github.com/chainkit/corechain/x/staking/types"
)

// The per-module genesis payloads: a JSON object mapping module name to
// its slice, consumed by that module's InitGenesis.

type authGenesis struct {
	Params   *authtypes.Params `json:"params"`
	Accounts []string          `json:"accounts"`
}

type bankGenesis struct {
	Balances []struct {
		Address string `json:"address"`
		Coins   []struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"coins"`
	} `json:"balances"`
}

type stakingGenesis struct {
	Params *stakingtypes.Params `json:"params"`
}

type distrGenesis struct {
	Params *distrtypes.Params `json:"params"`
}

// --- auth ---

type authModule struct {
	k authkeeper.Keeper
}

func (m authModule) Name() string { return authtypes.ModuleName }

func (m authModule) InitGenesis(ctx sdk.Context, data json.RawMessage) error {
	var gen authGenesis
	if len(data) > 0 {
		if err := json.Unmarshal(data, &gen); err != nil {
			return errors.Wrap(err, "auth genesis")
		}
	}
	params := authtypes.DefaultParams()
	if gen.Params != nil {
		params = *gen.Params
	}
	m.k.SetParams(ctx, params)
	for _, addr := range gen.Accounts {
		_, raw, err := bech32.DecodeToBytes(addr)
		if err != nil {
			return errors.Wrapf(err, "auth genesis account %q", addr)
		}
		m.k.GetOrCreateAccount(ctx, raw)
	}
	return nil
}

func (m authModule) BeginBlock(sdk.Context) {}

func (m authModule) EndBlock(sdk.Context) []baseapp.ValidatorUpdate { return nil }

// --- bank ---

type bankModule struct {
	k bankkeeper.Keeper
}

func (m bankModule) Name() string { return banktypes.ModuleName }

func (m bankModule) InitGenesis(ctx sdk.Context, data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var gen bankGenesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return errors.Wrap(err, "bank genesis")
	}
	balances := make([]bankkeeper.GenesisBalance, 0, len(gen.Balances))
	for _, b := range gen.Balances {
		_, raw, err := bech32.DecodeToBytes(b.Address)
		if err != nil {
			return errors.Wrapf(err, "bank genesis balance %q", b.Address)
		}
		coins := make([]sdk.Coin, 0, len(b.Coins))
		for _, c := range b.Coins {
			amt, ok := sdk.NewIntFromString(c.Amount)
			if !ok {
				return errors.Errorf("bank genesis: invalid amount %q", c.Amount)
			}
			coins = append(coins, sdk.Coin{Denom: c.Denom, Amount: amt})
		}
		balances = append(balances, bankkeeper.GenesisBalance{Address: raw, Coins: sdk.NewCoins(coins...)})
	}
	m.k.InitGenesis(ctx, balances)
	return nil
}

func (m bankModule) BeginBlock(sdk.Context) {}

func (m bankModule) EndBlock(sdk.Context) []baseapp.ValidatorUpdate { return nil }

// --- staking ---

type stakingModule struct {
	k stakingkeeper.Keeper
}

func (m stakingModule) Name() string { return stakingtypes.ModuleName }

func (m stakingModule) InitGenesis(ctx sdk.Context, data json.RawMessage) error {
	var gen stakingGenesis
	if len(data) > 0 {
		if err := json.Unmarshal(data, &gen); err != nil {
			return errors.Wrap(err, "staking genesis")
		}
	}
	params := stakingtypes.DefaultParams()
	if gen.Params != nil {
		params = *gen.Params
	}
	m.k.InitGenesis(ctx, params)
	return nil
}

func (m stakingModule) BeginBlock(sdk.Context) {}

// EndBlock runs queue maturation and the validator-set recomputation,
// translating the staking keeper's updates into the ABCI shape.
func (m stakingModule) EndBlock(ctx sdk.Context) []baseapp.ValidatorUpdate {
	updates := m.k.EndBlocker(ctx)
	out := make([]baseapp.ValidatorUpdate, 0, len(updates))
	for _, u := range updates {
		out = append(out, baseapp.ValidatorUpdate{PubKey: u.ConsensusPubKey, Power: u.Power})
	}
	return out
}

// --- distribution ---

type distrModule struct {
	k distrkeeper.Keeper
}

func (m distrModule) Name() string { return distrtypes.ModuleName }

func (m distrModule) InitGenesis(ctx sdk.Context, data json.RawMessage) error {
	var gen distrGenesis
	if len(data) > 0 {
		if err := json.Unmarshal(data, &gen); err != nil {
			return errors.Wrap(err, "distribution genesis")
		}
	}
	params := distrtypes.DefaultParams()
	if gen.Params != nil {
		params = *gen.Params
	}
	m.k.InitGenesis(ctx, params)
	return nil
}

func (m distrModule) BeginBlock(ctx sdk.Context) {
	m.k.BeginBlocker(ctx)
}

func (m distrModule) EndBlock(sdk.Context) []baseapp.ValidatorUpdate { return nil }
