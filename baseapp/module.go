package baseapp

import (
	"encoding/json"

	sdk "github.com/chainkit/corechain/types"
)

// AppModule is one registered module's lifecycle surface: genesis
// initialization and the per-block hooks BaseApp fires around the
// transaction batch. EndBlock may return validator-set updates; only one
// registered module (staking) ever does.
type AppModule interface {
	Name() string
	InitGenesis(ctx sdk.Context, data json.RawMessage) error
	BeginBlock(ctx sdk.Context)
	EndBlock(ctx sdk.Context) []ValidatorUpdate
}

// ModuleManager holds the registered modules in their fixed invocation
// order - genesis, begin-block, and end-block all run in registration
// order, which the app wiring chooses deliberately (distribution's
// allocation must see the previous block's staking powers before staking
// recomputes them).
type ModuleManager struct {
	modules []AppModule
}

func NewModuleManager(modules ...AppModule) *ModuleManager {
	return &ModuleManager{modules: modules}
}

// InitGenesis hands each module its slice of the genesis app state; a
// module absent from the genesis document is initialized with nil data
// and must apply its defaults.
func (mm *ModuleManager) InitGenesis(ctx sdk.Context, appState map[string]json.RawMessage) error {
	for _, m := range mm.modules {
		if err := m.InitGenesis(ctx, appState[m.Name()]); err != nil {
			return err
		}
	}
	return nil
}

func (mm *ModuleManager) BeginBlock(ctx sdk.Context) {
	for _, m := range mm.modules {
		m.BeginBlock(ctx)
	}
}

func (mm *ModuleManager) EndBlock(ctx sdk.Context) []ValidatorUpdate {
	var updates []ValidatorUpdate
	for _, m := range mm.modules {
		moduleUpdates := m.EndBlock(ctx)
		if len(moduleUpdates) > 0 && len(updates) > 0 {
			panic("baseapp: more than one module returned validator updates")
		}
		if len(moduleUpdates) > 0 {
			updates = moduleUpdates
		}
	}
	return updates
}
