// Package server is the thin configuration layer between the command
// line and the application kernel: it parses flags, opens the node
// database, loads the genesis document, and hands the assembled ABCI
// application to whatever driver connection the process runs under.
package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/chainkit/corechain/app"
	"github.com/chainkit/corechain/baseapp"
	sdk "github.com/chainkit/corechain/types"
)

var (
	// HomeDirFlag locates the node's data directory.
	HomeDirFlag = &cli.StringFlag{
		Name:  "home",
		Usage: "node home directory",
		Value: defaultHome(),
	}
	// ChainIDFlag names the chain this node serves.
	ChainIDFlag = &cli.StringFlag{
		Name:  "chain-id",
		Usage: "chain identifier",
		Value: "corechain-1",
	}
	// MinGasPricesFlag sets the mempool admission fee floor.
	MinGasPricesFlag = &cli.StringFlag{
		Name:  "minimum-gas-prices",
		Usage: "minimum gas prices for CheckTx admission (e.g. 1uatom)",
	}
	// GenesisFlag points at the genesis app-state document.
	GenesisFlag = &cli.StringFlag{
		Name:  "genesis",
		Usage: "path to the genesis document",
	}
)

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".corechain"
	}
	return filepath.Join(home, ".corechain")
}

// NewCliApp builds the process's command line surface.
func NewCliApp() *cli.App {
	return &cli.App{
		Name:  app.AppName,
		Usage: "ABCI application kernel node",
		Flags: []cli.Flag{HomeDirFlag, ChainIDFlag, MinGasPricesFlag, GenesisFlag},
		Action: func(c *cli.Context) error {
			application, err := BuildApp(c)
			if err != nil {
				return err
			}
			return Serve(c, application)
		},
	}
}

// BuildApp opens the node database under the home directory and
// assembles the application from the parsed flags.
func BuildApp(c *cli.Context) (*app.App, error) {
	home := c.String(HomeDirFlag.Name)
	if err := os.MkdirAll(filepath.Join(home, "data"), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(home, "data", "application.db"), 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	var opts []baseapp.Option
	if raw := c.String(MinGasPricesFlag.Name); raw != "" {
		prices, err := sdk.ParseCoins(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, baseapp.WithMinGasPrices(prices))
	}
	return app.NewApp(db, opts...)
}

// GenesisDoc is the top-level genesis document: the chain
// identity plus the module-name-to-payload app state InitChain consumes.
type GenesisDoc struct {
	ChainID         string                     `json:"chain_id"`
	InitialHeight   int64                      `json:"initial_height"`
	ConsensusParams *baseapp.ConsensusParams   `json:"consensus_params"`
	AppState        map[string]json.RawMessage `json:"app_state"`
}

// LoadGenesis reads and parses the genesis document at path.
func LoadGenesis(path string) (GenesisDoc, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return GenesisDoc{}, err
	}
	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return GenesisDoc{}, err
	}
	return doc, nil
}

// InitChainRequest converts a genesis document into the InitChain
// request the kernel consumes.
func (doc GenesisDoc) InitChainRequest(genesisTime time.Time) baseapp.RequestInitChain {
	req := baseapp.RequestInitChain{
		ChainID:       doc.ChainID,
		Time:          genesisTime,
		InitialHeight: doc.InitialHeight,
	}
	if doc.ConsensusParams != nil {
		req.ConsensusParams = *doc.ConsensusParams
	}
	if doc.AppState != nil {
		bz, err := json.Marshal(doc.AppState)
		if err != nil {
			panic(err)
		}
		req.AppStateBytes = bz
	}
	return req
}

// Serve initializes a fresh chain from the genesis document if the store
// is empty, then blocks waiting for the external consensus driver. The
// driver transport itself (a socket ABCI connection) is outside this
// kernel's scope; Serve's contract is that the returned application is
// fully initialized and safe to drive.
func Serve(c *cli.Context, application *app.App) error {
	info := application.Info(baseapp.RequestInfo{})
	entry := log.WithFields(log.Fields{"prefix": "server", "chainID": c.String(ChainIDFlag.Name)})

	if info.LastBlockHeight == 0 {
		genesisPath := c.String(GenesisFlag.Name)
		if genesisPath == "" {
			genesisPath = filepath.Join(c.String(HomeDirFlag.Name), "config", "genesis.json")
		}
		doc, err := LoadGenesis(genesisPath)
		if err != nil {
			return err
		}
		if doc.ChainID == "" {
			doc.ChainID = c.String(ChainIDFlag.Name)
		}
		application.InitChain(doc.InitChainRequest(time.Now().UTC()))
		entry.WithField("genesis", genesisPath).Info("chain state initialized from genesis")
	} else {
		entry.WithFields(log.Fields{"height": info.LastBlockHeight}).Info("resuming from committed state")
	}

	entry.Info("application ready; waiting for consensus driver")
	select {} // the ABCI driver connection owns the process lifetime
}
