package types

import "github.com/chainkit/corechain/types/errors"

// Re-exported here so call sites that already import "types" for Coin/Context
// don't need a second import for the handful of sentinel errors referenced
// throughout this package. The registry itself lives in types/errors to
// avoid an import cycle (errors.Error needs no knowledge of Coin/Context).
var (
	ErrInvalidCoins = errors.ErrInvalidCoins
)
